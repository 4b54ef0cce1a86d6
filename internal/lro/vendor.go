package lro

import (
	"context"
	"time"

	"mediagen/internal/auth"
	"mediagen/internal/domain"
	"mediagen/internal/infra"
)

// Vendor is the generative media backend. Submit starts an operation and returns
// the vendor's identifier untouched; Fetch reads the operation's current state
// exactly once.
type Vendor interface {
	Submit(ctx context.Context, ac *auth.Context, model string, req domain.GenerationRequest) (string, error)
	Fetch(ctx context.Context, ac *auth.Context, id string) (*domain.RemoteOperation, error)
}

// ModelMap selects the vendor model per media kind.
type ModelMap map[domain.MediaKind]string

// Observer receives one event per launch and per poll.
type Observer interface {
	ObserveLaunch(kind domain.MediaKind, code domain.Code, elapsed time.Duration)
	ObservePoll(state domain.OperationState, code domain.Code, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveLaunch(domain.MediaKind, domain.Code, time.Duration) {}

func (nopObserver) ObservePoll(domain.OperationState, domain.Code, time.Duration) {}

const defaultTimeout = 30 * time.Second

// Options configures the launcher and translator.
type Options struct {
	Vendor   Vendor
	Models   ModelMap
	Timeout  time.Duration
	Observer Observer
	Logger   *infra.Logger
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	if o.Logger == nil {
		o.Logger = infra.NopLogger()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
