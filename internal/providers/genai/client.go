package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	gsdk "google.golang.org/genai"

	"mediagen/internal/auth"
	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/lro"
)

// ErrImageUnsupported is returned for IMAGE requests: the SDK only exposes image
// generation as a blocking call, which cannot be tracked as an operation.
var ErrImageUnsupported = errors.New("genai: image generation has no long-running form in the SDK; use the vertex backend")

// Options controls how the SDK client is configured.
type Options struct {
	OutputURI  string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client adapts the google.golang.org/genai video operation API to lro.Vendor.
// One SDK client is kept per auth context and rebuilt when the context changes.
type Client struct {
	outputURI  string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
	newSDK     func(ctx context.Context, cfg *gsdk.ClientConfig) (*gsdk.Client, error)

	mu        sync.Mutex
	cachedFor *auth.Context
	cached    *gsdk.Client
}

func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Client{
		outputURI:  strings.TrimSpace(opts.OutputURI),
		baseURL:    strings.TrimSpace(opts.BaseURL),
		httpClient: opts.HTTPClient,
		logger:     logger,
		newSDK:     gsdk.NewClient,
	}
}

func (c *Client) sdk(ctx context.Context, ac *auth.Context) (*gsdk.Client, error) {
	if ac == nil {
		return nil, errors.New("genai: auth context is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil && c.cachedFor == ac {
		return c.cached, nil
	}
	cfg := &gsdk.ClientConfig{
		Backend:     gsdk.BackendVertexAI,
		Project:     ac.ProjectID,
		Location:    ac.Region,
		Credentials: ac.Credentials,
		HTTPClient:  c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = gsdk.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := c.newSDK(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai: new client: %w", err)
	}
	c.cachedFor, c.cached = ac, client
	return client, nil
}

// Submit starts a video generation operation and returns its name.
func (c *Client) Submit(ctx context.Context, ac *auth.Context, model string, req domain.GenerationRequest) (string, error) {
	if req.Kind == domain.MediaKindImage {
		return "", ErrImageUnsupported
	}
	client, err := c.sdk(ctx, ac)
	if err != nil {
		return "", err
	}
	op, err := client.Models.GenerateVideos(ctx, model, req.Prompt, nil, &gsdk.GenerateVideosConfig{
		NumberOfVideos: 1,
		OutputGCSURI:   c.outputURI,
	})
	if err != nil {
		return "", vendorError(err)
	}
	c.logger.Debug().Str("model", model).Str("operation", op.Name).Msg("genai: operation submitted")
	return op.Name, nil
}

// Fetch reads operation id once.
func (c *Client) Fetch(ctx context.Context, ac *auth.Context, id string) (*domain.RemoteOperation, error) {
	client, err := c.sdk(ctx, ac)
	if err != nil {
		return nil, err
	}
	op, err := client.Operations.GetVideosOperation(ctx, &gsdk.GenerateVideosOperation{Name: id}, nil)
	if err != nil {
		return nil, vendorError(err)
	}
	if op == nil {
		return nil, nil
	}
	if op.Name == "" {
		op.Name = id
	}
	return convert(op), nil
}

// vendorError reduces SDK API errors to the server's own message.
func vendorError(err error) error {
	var apiErr gsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	var apiErrPtr *gsdk.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Message != "" {
		return errors.New(apiErrPtr.Message)
	}
	return err
}

func convert(op *gsdk.GenerateVideosOperation) *domain.RemoteOperation {
	out := &domain.RemoteOperation{Name: op.Name, Done: op.Done}
	if len(op.Error) > 0 {
		out.Error = &domain.RemoteError{Code: intField(op.Error["code"])}
		if msg, ok := op.Error["message"].(string); ok {
			out.Error.Message = msg
		}
		return out
	}
	if op.Response == nil {
		return out
	}
	var parts []domain.Part
	for _, v := range op.Response.GeneratedVideos {
		if v == nil || v.Video == nil {
			continue
		}
		parts = append(parts, domain.Part{URI: v.Video.URI, MIMEType: v.Video.MIMEType})
	}
	if len(parts) > 0 {
		out.Candidates = []domain.Candidate{{Parts: parts}}
		return out
	}
	if op.Done && len(op.Response.RAIMediaFilteredReasons) > 0 {
		out.Error = &domain.RemoteError{Message: strings.Join(op.Response.RAIMediaFilteredReasons, "; ")}
	}
	return out
}

func intField(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

var _ lro.Vendor = (*Client)(nil)
