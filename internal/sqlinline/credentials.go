package sqlinline

// QSelectCredential returns the stored secret for one provider.
const QSelectCredential = `--sql 3f0c2b7e-5d14-4a8e-9c61-0b7d2e4f9a15
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertCredential = `--sql 6d4f5660-0f7c-4f73-a1f3-9ab6d5e6c7a3
with incoming as (
    select
        $1::text as provider,
        $2::text as token,
        coalesce($3::jsonb, '{}'::jsonb) as properties
)
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), (select provider from incoming), (select token from incoming), (select properties from incoming), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`

const QDeleteCredential = `--sql b2a91d4c-7e03-4f6b-8d25-c1e8a0f37b64
delete from integration_tokens
where provider = $1::text;
`

// QSelectCredentialUpdatedAt returns when one provider's secret last changed.
const QSelectCredentialUpdatedAt = `--sql 9c7e41a2-3b58-4d0f-a6e2-5f18c9d07b33
select updated_at
from integration_tokens
where provider = $1::text
limit 1;
`
