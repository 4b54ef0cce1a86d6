package auth

import (
	"context"
	"sync"
	"time"

	"mediagen/internal/infra"
)

// StampedSource is a BlobSource that also reports when its blob last changed.
// A zero time means nothing is stored.
type StampedSource interface {
	BlobSource
	ServiceAccountUpdatedAt(ctx context.Context) (time.Time, error)
}

// StoreLoader rebuilds a Context from a stored blob. *Provider implements it.
type StoreLoader interface {
	FromStore(ctx context.Context, src BlobSource) (*Context, error)
}

type SyncOptions struct {
	Holder *Holder
	Loader StoreLoader
	// Source is optional; without it the Syncer only publishes what it is given.
	Source StampedSource
	// Interval bounds how often a loaded context is checked against Source.
	Interval time.Duration
	Logger   *infra.Logger
	Now      func() time.Time
}

// Syncer keeps a Holder in step with the shared credential store, so an
// instance picks up a key stored by any other instance.
type Syncer struct {
	holder   *Holder
	loader   StoreLoader
	source   StampedSource
	interval time.Duration
	logger   *infra.Logger
	now      func() time.Time

	mu        sync.Mutex
	checkedAt time.Time
	seen      time.Time
}

func NewSyncer(opts SyncOptions) *Syncer {
	if opts.Holder == nil {
		opts.Holder = NewHolder(nil)
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = infra.NopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Syncer{
		holder:   opts.Holder,
		loader:   opts.Loader,
		source:   opts.Source,
		interval: opts.Interval,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// Load returns the published context without consulting the store.
func (s *Syncer) Load() *Context {
	return s.holder.Load()
}

// Current returns the context for one request. When nothing is loaded the store
// is consulted on every call; otherwise at most once per interval. A stored key
// newer than both the active context and the last stamp seen replaces it.
func (s *Syncer) Current(ctx context.Context) *Context {
	if s.source == nil || s.loader == nil {
		return s.holder.Load()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ac := s.holder.Load()
	now := s.now()
	if ac != nil && !s.checkedAt.IsZero() && now.Sub(s.checkedAt) < s.interval {
		return ac
	}
	s.checkedAt = now

	stamp, err := s.source.ServiceAccountUpdatedAt(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("credential store check failed")
		return ac
	}
	if stamp.IsZero() || !stamp.After(s.seen) {
		return ac
	}
	s.seen = stamp
	if ac != nil && !stamp.After(ac.IssuedAt) {
		return ac
	}

	next, err := s.loader.FromStore(ctx, s.source)
	if err != nil {
		s.logger.Error().Err(err).Time("stored_at", stamp).Msg("stored service account rejected")
		return ac
	}
	if next == nil {
		return ac
	}
	s.holder.Store(next)
	s.logger.Info().
		Str("project", next.ProjectID).
		Str("client_email", next.ClientEmail).
		Time("stored_at", stamp).
		Msg("auth context reloaded from credential store")
	return next
}

// Replace publishes ac. stored reports that its blob was just written to the
// source, which keeps this instance from reloading its own write.
func (s *Syncer) Replace(ctx context.Context, ac *Context, stored bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.holder.Store(ac)
	if !stored || s.source == nil {
		return
	}
	stamp, err := s.source.ServiceAccountUpdatedAt(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("credential store check failed")
		return
	}
	if stamp.After(s.seen) {
		s.seen = stamp
	}
	s.checkedAt = s.now()
}

var _ StoreLoader = (*Provider)(nil)
