// Package watch is a caller-side client for the operations API. It owns the
// retry and cadence policy the server deliberately leaves to callers.
package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
)

// Options configures a Watcher.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Interval   time.Duration
	// MaxErrors is how many consecutive failed polls end the watch.
	MaxErrors int
	Logger    *infra.Logger
}

type Watcher struct {
	baseURL    string
	httpClient *http.Client
	interval   time.Duration
	maxErrors  int
	logger     *infra.Logger
}

// Status is one poll answer from the API.
type Status struct {
	OperationID string `json:"operationId"`
	Status      string `json:"status"`
	ArtifactURI string `json:"artifactUri,omitempty"`
	PublicURI   string `json:"publicUri,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Terminal reports whether the operation will not change again.
func (s Status) Terminal() bool {
	return domain.OperationState(s.Status).Terminal()
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Retryable is true for server-side failures; client errors never heal by waiting.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

func New(opts Options) *Watcher {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	maxErrors := opts.MaxErrors
	if maxErrors <= 0 {
		maxErrors = 3
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Watcher{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		httpClient: httpClient,
		interval:   interval,
		maxErrors:  maxErrors,
		logger:     logger,
	}
}

// Launch starts an operation and returns its id.
func (w *Watcher) Launch(ctx context.Context, prompt string, kind domain.MediaKind) (string, error) {
	var out struct {
		OperationID string    `json:"operationId"`
		StartedAt   time.Time `json:"startedAt"`
	}
	body := map[string]string{"prompt": prompt, "mediaKind": string(kind)}
	if err := w.do(ctx, "/v1/operations", body, &out); err != nil {
		return "", err
	}
	if out.OperationID == "" {
		return "", errors.New("launch response carried no operationId")
	}
	w.logger.Info().Str("operation", out.OperationID).Time("started_at", out.StartedAt).Msg("operation launched")
	return out.OperationID, nil
}

// Poll queries the operation once.
func (w *Watcher) Poll(ctx context.Context, id string) (Status, error) {
	var out Status
	err := w.do(ctx, "/v1/operations/status", map[string]string{"operationId": id}, &out)
	return out, err
}

// Wait polls id at the configured cadence until it is terminal, ctx ends, or
// MaxErrors consecutive polls fail. onStatus, when set, sees every answer.
func (w *Watcher) Wait(ctx context.Context, id string, onStatus func(Status)) (Status, error) {
	limiter := rate.NewLimiter(rate.Every(w.interval), 1)
	failures := 0
	for {
		if err := limiter.Wait(ctx); err != nil {
			return Status{}, err
		}
		st, err := w.Poll(ctx, id)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.Retryable() {
				return Status{}, err
			}
			if ctx.Err() != nil {
				return Status{}, ctx.Err()
			}
			failures++
			w.logger.Warn().Err(err).Int("failures", failures).Str("operation", id).Msg("poll failed")
			if failures >= w.maxErrors {
				return Status{}, fmt.Errorf("giving up after %d failed polls: %w", failures, err)
			}
			continue
		}
		failures = 0
		if onStatus != nil {
			onStatus(st)
		}
		if st.Terminal() {
			return st, nil
		}
	}
}

func (w *Watcher) do(ctx context.Context, path string, payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	endpoint, err := url.JoinPath(w.baseURL, path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil && envelope.Error.Code != "" {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
