package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"mediagen/internal/auth"
	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/storage"
)

// Launcher starts generation operations.
type Launcher interface {
	Start(ctx context.Context, req domain.GenerationRequest, ac *auth.Context) (domain.OperationHandle, error)
}

// Poller answers status queries.
type Poller interface {
	Poll(ctx context.Context, id string, ac *auth.Context) (domain.OperationStatus, error)
}

// Authenticator turns a posted service account into an auth context.
type Authenticator interface {
	Authenticate(ctx context.Context, blob []byte) (*auth.Context, error)
}

// AuthState publishes the active auth context. Current may refresh it from the
// shared credential store; Replace installs a freshly posted one.
type AuthState interface {
	Current(ctx context.Context) *auth.Context
	Replace(ctx context.Context, ac *auth.Context, stored bool)
}

// CredentialStore persists the service account so other instances and restarts
// can rebuild the same context.
type CredentialStore interface {
	SetServiceAccount(ctx context.Context, blob []byte, props map[string]any) error
}

type App struct {
	Logger        *infra.Logger
	Launcher      Launcher
	Poller        Poller
	Authenticator Authenticator
	Credentials   CredentialStore
	Auth          AuthState
	Locator       *storage.Locator
	Metrics       http.Handler
}

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// fail writes a classified error. unauthenticated marks requests that arrived
// before any auth context was configured.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error, unauthenticated bool) {
	code := domain.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case domain.CodeValidation:
		status = http.StatusBadRequest
	case domain.CodeAuthInvalid:
		status = http.StatusBadRequest
		if unauthenticated {
			status = http.StatusUnauthorized
		}
	case domain.CodeAuthRejected:
		status = http.StatusUnauthorized
	case domain.CodeLaunch, domain.CodePoll:
		status = http.StatusInternalServerError
	default:
		code = "INTERNAL"
	}
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		return
	}
	if status >= http.StatusInternalServerError {
		a.logger().Error().Err(err).Str("code", string(code)).Str("path", r.URL.Path).Msg("request failed")
	}
	a.error(w, status, string(code), domain.MessageOf(err))
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.error(w, http.StatusBadRequest, string(domain.CodeValidation), "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (a *App) logger() *infra.Logger {
	if a.Logger == nil {
		return infra.NopLogger()
	}
	return a.Logger
}
