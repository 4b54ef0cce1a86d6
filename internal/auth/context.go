package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	gauth "cloud.google.com/go/auth"
)

// Context is an authenticated, immutable view of the vendor identity. It is
// threaded explicitly through every launch and poll; nothing reads it from
// package state.
type Context struct {
	ProjectID   string
	Region      string
	ClientEmail string
	Credentials *gauth.Credentials
	IssuedAt    time.Time
}

var errNoCredentials = errors.New("auth context has no credentials")

// Token returns a bearer token for the vendor API. Refresh is handled by the
// credentials' own cache.
func (c *Context) Token(ctx context.Context) (string, error) {
	if c == nil || c.Credentials == nil {
		return "", errNoCredentials
	}
	tok, err := c.Credentials.Token(ctx)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

// Holder publishes the current Context. Store replaces it wholesale; callers
// Load once per request and keep that snapshot until they finish.
type Holder struct {
	current atomic.Pointer[Context]
}

func NewHolder(initial *Context) *Holder {
	h := &Holder{}
	h.current.Store(initial)
	return h
}

func (h *Holder) Load() *Context {
	if h == nil {
		return nil
	}
	return h.current.Load()
}

func (h *Holder) Store(c *Context) {
	h.current.Store(c)
}
