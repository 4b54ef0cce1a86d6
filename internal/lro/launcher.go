package lro

import (
	"context"
	"errors"
	"strings"

	"mediagen/internal/auth"
	"mediagen/internal/domain"
)

var (
	errEmptyPrompt  = errors.New("prompt is required")
	errNoAuth       = errors.New("no authenticated context; call POST /v1/auth or configure credentials")
	errEmptyID      = errors.New("vendor returned an empty operation id")
	errUnknownModel = errors.New("no model configured for media kind")
)

// Launcher starts generation operations and returns without waiting for them.
type Launcher struct {
	opts Options
}

func NewLauncher(opts Options) *Launcher {
	return &Launcher{opts: opts.withDefaults()}
}

// Start submits req once and hands back the vendor's operation id verbatim.
func (l *Launcher) Start(ctx context.Context, req domain.GenerationRequest, ac *auth.Context) (domain.OperationHandle, error) {
	const op = "lro.Start"

	if strings.TrimSpace(req.Prompt) == "" {
		return domain.OperationHandle{}, domain.NewError(domain.CodeValidation, op, errEmptyPrompt)
	}
	kind, ok := domain.ParseMediaKind(string(req.Kind))
	if !ok {
		return domain.OperationHandle{}, domain.Errorf(domain.CodeValidation, op, "unsupported media kind %q", req.Kind)
	}
	if ac == nil {
		return domain.OperationHandle{}, domain.NewError(domain.CodeAuthInvalid, op, errNoAuth)
	}
	model := strings.TrimSpace(l.opts.Models[kind])
	if model == "" {
		return domain.OperationHandle{}, domain.NewError(domain.CodeLaunch, op, errUnknownModel)
	}
	req.Kind = kind

	started := l.opts.Now()
	id, err := l.submit(ctx, ac, model, req)
	elapsed := l.opts.Now().Sub(started)
	if err != nil {
		l.opts.Observer.ObserveLaunch(kind, domain.CodeLaunch, elapsed)
		l.opts.Logger.Warn().Err(err).Str("model", model).Str("kind", string(kind)).Msg("launch failed")
		return domain.OperationHandle{}, domain.NewError(domain.CodeLaunch, op, err)
	}
	if id == "" {
		l.opts.Observer.ObserveLaunch(kind, domain.CodeLaunch, elapsed)
		return domain.OperationHandle{}, domain.NewError(domain.CodeLaunch, op, errEmptyID)
	}

	l.opts.Observer.ObserveLaunch(kind, "", elapsed)
	l.opts.Logger.Debug().Str("model", model).Str("operation", id).Msg("operation started")
	return domain.OperationHandle{ID: id, StartedAt: started.UTC()}, nil
}

func (l *Launcher) submit(ctx context.Context, ac *auth.Context, model string, req domain.GenerationRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()
	return l.opts.Vendor.Submit(ctx, ac, model, req)
}
