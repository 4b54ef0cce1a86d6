package vertex

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

	"mediagen/internal/auth"
	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/lro"
)

var (
	ErrNoContext = errors.New("vertex: auth context is required")
	errNoProject = errors.New("vertex: project id is required")
)

// APIError is a non-2xx answer from the API. Its text is the server's message,
// unchanged.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Options configures the Vertex AI REST client.
type Options struct {
	// BaseURL overrides the regional endpoint, mainly for tests.
	BaseURL        string
	Region         string
	OutputURI      string
	SampleCount    int
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client launches and reads publisher-model long-running operations.
type Client struct {
	baseURL     string
	region      string
	outputURI   string
	sampleCount int
	httpClient  *http.Client
	logger      *infra.Logger
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = "us-central1"
	}
	sampleCount := opts.SampleCount
	if sampleCount <= 0 {
		sampleCount = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		region:      region,
		outputURI:   strings.TrimSpace(opts.OutputURI),
		sampleCount: sampleCount,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// Submit calls predictLongRunning for model and returns the operation name.
func (c *Client) Submit(ctx context.Context, ac *auth.Context, model string, req domain.GenerationRequest) (string, error) {
	if ac == nil {
		return "", ErrNoContext
	}
	resource, err := c.modelResource(ac, model)
	if err != nil {
		return "", err
	}
	payload := predictRequest{
		Instances: []predictInstance{{Prompt: req.Prompt}},
		Parameters: predictParameters{
			SampleCount: c.sampleCount,
			StorageURI:  c.outputURI,
		},
	}

	var out operationResponse
	if err := c.do(ctx, ac, c.endpoint(ac)+"/v1/"+resource+":predictLongRunning", payload, &out); err != nil {
		return "", err
	}
	c.logger.Debug().
		Str("model", model).
		Str("kind", string(req.Kind)).
		Str("operation", out.Name).
		Msg("vertex: operation submitted")
	return out.Name, nil
}

// Fetch reads the current state of operation id. Publisher-model operations are
// read through the owning model's fetchPredictOperation method; the name itself
// is sent back unchanged.
func (c *Client) Fetch(ctx context.Context, ac *auth.Context, id string) (*domain.RemoteOperation, error) {
	if ac == nil {
		return nil, ErrNoContext
	}
	var (
		out operationResponse
		err error
	)
	if owner, _, ok := strings.Cut(id, "/operations/"); ok && strings.Contains(owner, "/models/") {
		err = c.do(ctx, ac, c.endpoint(ac)+"/v1/"+escapePath(owner)+":fetchPredictOperation", fetchRequest{OperationName: id}, &out)
	} else {
		err = c.do(ctx, ac, c.endpoint(ac)+"/v1/"+escapePath(strings.TrimPrefix(id, "/")), nil, &out)
	}
	if err != nil {
		return nil, err
	}
	if out.Name == "" {
		out.Name = id
	}
	c.logger.Debug().Str("operation", id).Bool("done", out.Done).Msg("vertex: operation fetched")
	return normalize(out), nil
}

// escapePath escapes each segment of a resource name so that '?' or '#' in an
// operation id stay part of the path.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func (c *Client) endpoint(ac *auth.Context) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return "https://" + c.regionFor(ac) + "-aiplatform.googleapis.com"
}

func (c *Client) regionFor(ac *auth.Context) string {
	if r := strings.TrimSpace(ac.Region); r != "" {
		return r
	}
	return c.region
}

// modelResource expands a model id into its full resource name. Ids that are
// already partial or full resource names are completed rather than rebuilt.
func (c *Client) modelResource(ac *auth.Context, model string) (string, error) {
	model = strings.Trim(strings.TrimSpace(model), "/")
	if model == "" {
		return "", errors.New("vertex: model is required")
	}
	if strings.HasPrefix(model, "projects/") {
		return model, nil
	}
	if strings.TrimSpace(ac.ProjectID) == "" {
		return "", errNoProject
	}
	prefix := "projects/" + ac.ProjectID + "/locations/" + c.regionFor(ac) + "/"
	if strings.HasPrefix(model, "publishers/") {
		return prefix + model, nil
	}
	return prefix + "publishers/google/models/" + model, nil
}

func (c *Client) do(ctx context.Context, ac *auth.Context, url string, payload any, out any) error {
	token, err := ac.Token(ctx)
	if err != nil {
		return fmt.Errorf("vertex: access token: %w", err)
	}

	method := http.MethodGet
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("vertex: encode request: %w", err)
		}
		method = http.MethodPost
		body = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("vertex: build request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if ac.ProjectID != "" {
		httpReq.Header.Set("X-Goog-User-Project", ac.ProjectID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("vertex: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("vertex: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorEnvelope
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Error.Message != "" {
			return &APIError{StatusCode: resp.StatusCode, Status: detail.Error.Status, Message: detail.Error.Message}
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("vertex: decode response: %w", err)
	}
	return nil
}

var _ lro.Vendor = (*Client)(nil)
