package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"mediagen/internal/sqlinline"
)

type stubExecutor struct {
	token   string
	updated time.Time
	err     error
	queried string
	exec    struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.queried = query
	return stubRow{token: s.token, updated: s.updated, err: s.err}
}

type stubRow struct {
	token   string
	updated time.Time
	err     error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 0 {
		return errors.New("no dest")
	}
	switch ptr := dest[0].(type) {
	case *string:
		*ptr = r.token
	case *time.Time:
		*ptr = r.updated
	default:
		return errors.New("invalid dest")
	}
	return nil
}

func TestServiceAccount(t *testing.T) {
	store := NewStore(&stubExecutor{token: " {\"type\":\"service_account\"}\n"})
	blob, err := store.ServiceAccount(context.Background())
	if err != nil {
		t.Fatalf("ServiceAccount error: %v", err)
	}
	if string(blob) != `{"type":"service_account"}` {
		t.Fatalf("unexpected blob %q", blob)
	}
}

func TestServiceAccount_NoRows(t *testing.T) {
	store := NewStore(&stubExecutor{err: pgx.ErrNoRows})
	blob, err := store.ServiceAccount(context.Background())
	if err != nil {
		t.Fatalf("ServiceAccount error: %v", err)
	}
	if blob != nil {
		t.Fatalf("expected nil blob, got %q", blob)
	}
}

func TestServiceAccount_QueryError(t *testing.T) {
	store := NewStore(&stubExecutor{err: errors.New("connection reset")})
	if _, err := store.ServiceAccount(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSetServiceAccount(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	props := map[string]any{"client_email": "svc@demo.iam.gserviceaccount.com"}
	if err := store.SetServiceAccount(context.Background(), []byte("secret"), props); err != nil {
		t.Fatalf("SetServiceAccount error: %v", err)
	}
	if exec.exec.query != sqlinline.QUpsertCredential {
		t.Fatal("expected upsert query")
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[0].(string); !ok || v != ProviderVertex {
		t.Fatalf("expected provider argument, got %v", exec.exec.args[0])
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected secret argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
	raw, ok := exec.exec.args[2].([]byte)
	if !ok {
		t.Fatalf("expected json properties, got %T", exec.exec.args[2])
	}
	var decoded map[string]string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode properties: %v", err)
	}
	if decoded["client_email"] != "svc@demo.iam.gserviceaccount.com" {
		t.Fatalf("unexpected properties %v", decoded)
	}
}

func TestSetServiceAccountEmpty(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.SetServiceAccount(context.Background(), []byte("  "), nil); err == nil {
		t.Fatal("expected error for empty blob")
	}
}

func TestDeleteServiceAccount(t *testing.T) {
	exec := &stubExecutor{}
	if err := NewStore(exec).DeleteServiceAccount(context.Background()); err != nil {
		t.Fatalf("DeleteServiceAccount error: %v", err)
	}
	if exec.exec.query != sqlinline.QDeleteCredential {
		t.Fatal("expected delete query")
	}
}

func TestServiceAccountUpdatedAt(t *testing.T) {
	updated := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	exec := &stubExecutor{updated: updated}
	store := NewStore(exec)

	got, err := store.ServiceAccountUpdatedAt(context.Background())
	if err != nil {
		t.Fatalf("ServiceAccountUpdatedAt error: %v", err)
	}
	if !got.Equal(updated) {
		t.Fatalf("updated = %s, want %s", got, updated)
	}
	if exec.queried != sqlinline.QSelectCredentialUpdatedAt {
		t.Fatal("unexpected query")
	}
}

func TestServiceAccountUpdatedAt_NoRows(t *testing.T) {
	store := NewStore(&stubExecutor{err: pgx.ErrNoRows})
	got, err := store.ServiceAccountUpdatedAt(context.Background())
	if err != nil {
		t.Fatalf("ServiceAccountUpdatedAt error: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("updated = %s, want zero", got)
	}
}
