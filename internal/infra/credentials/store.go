package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"mediagen/internal/auth"
	"mediagen/internal/infra"
	"mediagen/internal/sqlinline"
)

const (
	ProviderVertex = "vertex"
)

// Store persists the vendor service-account blob so a restarted instance can
// rebuild its authenticated context.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// ServiceAccount returns the stored blob, or nil when none was saved.
func (s *Store) ServiceAccount(ctx context.Context) ([]byte, error) {
	token, err := s.Token(ctx, ProviderVertex)
	if err != nil || token == "" {
		return nil, err
	}
	return []byte(token), nil
}

// ServiceAccountUpdatedAt reports when the stored blob last changed, or the zero
// time when none is stored.
func (s *Store) ServiceAccountUpdatedAt(ctx context.Context) (time.Time, error) {
	var updated time.Time
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectCredentialUpdatedAt, ProviderVertex).Scan(&updated); err != nil {
		if infra.IsNoRows(err) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return updated, nil
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectCredential, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetServiceAccount saves blob with non-secret descriptive properties such as
// the client email.
func (s *Store) SetServiceAccount(ctx context.Context, blob []byte, props map[string]any) error {
	token := strings.TrimSpace(string(blob))
	if token == "" {
		return errors.New("service account is required")
	}
	return s.upsert(ctx, ProviderVertex, token, props)
}

func (s *Store) DeleteServiceAccount(ctx context.Context) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteCredential, ProviderVertex)
	return err
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertCredential, provider, token, raw)
	return err
}

var _ auth.StampedSource = (*Store)(nil)
