package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"mediagen/internal/auth"
	"mediagen/internal/domain"
	"mediagen/internal/storage"
)

type stubLauncher struct {
	handle domain.OperationHandle
	err    error

	got   domain.GenerationRequest
	gotAC *auth.Context
	calls int
}

func (s *stubLauncher) Start(_ context.Context, req domain.GenerationRequest, ac *auth.Context) (domain.OperationHandle, error) {
	s.calls++
	s.got = req
	s.gotAC = ac
	return s.handle, s.err
}

type stubPoller struct {
	status domain.OperationStatus
	err    error
	gotID  string
}

func (s *stubPoller) Poll(_ context.Context, id string, ac *auth.Context) (domain.OperationStatus, error) {
	s.gotID = id
	if ac == nil {
		return domain.OperationStatus{}, domain.Errorf(domain.CodeAuthInvalid, "poll", "no credentials configured")
	}
	return s.status, s.err
}

func newTestApp(l Launcher, p Poller, ac *auth.Context) *App {
	return &App{
		Launcher: l,
		Poller:   p,
		Auth:     auth.NewSyncer(auth.SyncOptions{Holder: auth.NewHolder(ac)}),
		Locator:  storage.NewLocator(""),
	}
}

func testContext() *auth.Context {
	return &auth.Context{ProjectID: "proj", Region: "us-central1", ClientEmail: "svc@proj.iam.gserviceaccount.com"}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestLaunchOperationAccepted(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	launcher := &stubLauncher{handle: domain.OperationHandle{ID: "projects/p/locations/l/publishers/google/models/veo/operations/42", StartedAt: started}}
	ac := testContext()
	app := newTestApp(launcher, &stubPoller{}, ac)

	req := httptest.NewRequest(http.MethodPost, "/v1/operations", strings.NewReader(`{"prompt":"a cat surfing","mediaKind":"video"}`))
	rec := httptest.NewRecorder()
	app.LaunchOperation(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp launchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OperationID != launcher.handle.ID || !resp.StartedAt.Equal(started) {
		t.Fatalf("response = %+v", resp)
	}
	if launcher.got.Kind != domain.MediaKindVideo || launcher.got.Prompt != "a cat surfing" {
		t.Fatalf("launcher got %+v", launcher.got)
	}
	if launcher.gotAC != ac {
		t.Fatal("launcher did not receive the active auth context")
	}
}

func TestLaunchOperationDefaultsToVideo(t *testing.T) {
	launcher := &stubLauncher{handle: domain.OperationHandle{ID: "op"}}
	app := newTestApp(launcher, &stubPoller{}, testContext())

	rec := httptest.NewRecorder()
	app.LaunchOperation(rec, httptest.NewRequest(http.MethodPost, "/v1/operations", strings.NewReader(`{"prompt":"x"}`)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if launcher.got.Kind != domain.MediaKindVideo {
		t.Fatalf("kind = %q, want VIDEO", launcher.got.Kind)
	}
}

func TestLaunchOperationRejectsUnknownKind(t *testing.T) {
	launcher := &stubLauncher{}
	app := newTestApp(launcher, &stubPoller{}, testContext())

	rec := httptest.NewRecorder()
	app.LaunchOperation(rec, httptest.NewRequest(http.MethodPost, "/v1/operations", strings.NewReader(`{"prompt":"x","mediaKind":"AUDIO"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeError(t, rec); got.Code != string(domain.CodeValidation) {
		t.Fatalf("code = %q", got.Code)
	}
	if launcher.calls != 0 {
		t.Fatal("launcher should not be called for an invalid kind")
	}
}

func TestLaunchOperationInvalidJSON(t *testing.T) {
	app := newTestApp(&stubLauncher{}, &stubPoller{}, testContext())

	rec := httptest.NewRecorder()
	app.LaunchOperation(rec, httptest.NewRequest(http.MethodPost, "/v1/operations", strings.NewReader(`{"prompt":`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestLaunchOperationErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		ac     *auth.Context
		status int
		code   string
		msg    string
	}{
		{"validation", domain.Errorf(domain.CodeValidation, "launch", "prompt is required"), testContext(), http.StatusBadRequest, "VALIDATION_ERROR", "prompt is required"},
		{"no auth", domain.Errorf(domain.CodeAuthInvalid, "launch", "no credentials configured"), nil, http.StatusUnauthorized, "AUTH_INVALID", "no credentials configured"},
		{"vendor", domain.NewError(domain.CodeLaunch, "launch", errors.New("quota exceeded for model veo")), testContext(), http.StatusInternalServerError, "LAUNCH_ERROR", "quota exceeded for model veo"},
		{"unclassified", errors.New("boom"), testContext(), http.StatusInternalServerError, "INTERNAL", "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(&stubLauncher{err: tc.err}, &stubPoller{}, tc.ac)
			rec := httptest.NewRecorder()
			app.LaunchOperation(rec, httptest.NewRequest(http.MethodPost, "/v1/operations", strings.NewReader(`{"prompt":"x"}`)))

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			got := decodeError(t, rec)
			if got.Code != tc.code || got.Message != tc.msg {
				t.Fatalf("error = %+v, want %s %q", got, tc.code, tc.msg)
			}
		})
	}
}

func TestPollOperationCompletedAddsPublicURI(t *testing.T) {
	poller := &stubPoller{status: domain.Completed("gs://bucket/out/video.mp4")}
	app := newTestApp(&stubLauncher{}, poller, testContext())

	rec := httptest.NewRecorder()
	app.PollOperation(rec, httptest.NewRequest(http.MethodPost, "/v1/operations/status", strings.NewReader(`{"operationId":"ops/1"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := statusResponse{
		OperationID: "ops/1",
		Status:      "COMPLETED",
		ArtifactURI: "gs://bucket/out/video.mp4",
		PublicURI:   "https://storage.googleapis.com/bucket/out/video.mp4",
	}
	if resp != want {
		t.Fatalf("response = %+v, want %+v", resp, want)
	}
	if poller.gotID != "ops/1" {
		t.Fatalf("poller id = %q", poller.gotID)
	}
}

func TestPollOperationFailedCarriesReason(t *testing.T) {
	poller := &stubPoller{status: domain.Failed("prompt blocked by safety filter")}
	app := newTestApp(&stubLauncher{}, poller, testContext())

	rec := httptest.NewRecorder()
	app.PollOperation(rec, httptest.NewRequest(http.MethodPost, "/v1/operations/status", strings.NewReader(`{"operationId":"op"}`)))

	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "FAILED" || resp.Reason != "prompt blocked by safety filter" || resp.ArtifactURI != "" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestPollOperationProcessingOmitsOptionalFields(t *testing.T) {
	app := newTestApp(&stubLauncher{}, &stubPoller{status: domain.Processing()}, testContext())

	rec := httptest.NewRecorder()
	app.PollOperation(rec, httptest.NewRequest(http.MethodPost, "/v1/operations/status", strings.NewReader(`{"operationId":"op"}`)))

	body := rec.Body.String()
	if !strings.Contains(body, `"status":"PROCESSING"`) {
		t.Fatalf("body = %s", body)
	}
	for _, field := range []string{"artifactUri", "publicUri", "reason"} {
		if strings.Contains(body, field) {
			t.Fatalf("body should omit %s: %s", field, body)
		}
	}
}

func TestPollOperationPollError(t *testing.T) {
	poller := &stubPoller{err: domain.NewError(domain.CodePoll, "poll", errors.New("connection reset"))}
	app := newTestApp(&stubLauncher{}, poller, testContext())

	rec := httptest.NewRecorder()
	app.PollOperation(rec, httptest.NewRequest(http.MethodPost, "/v1/operations/status", strings.NewReader(`{"operationId":"op"}`)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeError(t, rec); got.Code != "POLL_ERROR" || got.Message != "connection reset" {
		t.Fatalf("error = %+v", got)
	}
}

func TestOperationStatusReadsWildcardPath(t *testing.T) {
	poller := &stubPoller{status: domain.Processing()}
	app := newTestApp(&stubLauncher{}, poller, testContext())

	r := chi.NewRouter()
	r.Get("/v1/operations/*", app.OperationStatus)

	id := "projects/p/locations/us-central1/publishers/google/models/veo-3.0/operations/abc"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/operations/"+id, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if poller.gotID != id {
		t.Fatalf("poller id = %q, want %q", poller.gotID, id)
	}
}

func TestHealth(t *testing.T) {
	app := &App{}
	rec := httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsHandlerMissing(t *testing.T) {
	app := &App{}
	rec := httptest.NewRecorder()
	app.MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	app := &App{}
	rec := httptest.NewRecorder()
	app.OpenAPIJSON(rec, httptest.NewRequest(http.MethodGet, openAPIPath, nil))
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Fatalf("Cache-Control = %q", got)
	}

	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("openapi.json is not valid JSON: %v", err)
	}
	paths, _ := doc["paths"].(map[string]any)
	for _, p := range []string{"/v1/operations", "/v1/operations/status", "/v1/auth"} {
		if _, ok := paths[p]; !ok {
			t.Fatalf("openapi.json missing path %s", p)
		}
	}
}

func TestOpenAPIDocsLoadsDocument(t *testing.T) {
	app := &App{}
	rec := httptest.NewRecorder()
	app.OpenAPIDocs(rec, httptest.NewRequest(http.MethodGet, "/v1/docs", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `spec-url="`+openAPIPath+`"`) {
		t.Fatalf("docs page does not load %s", openAPIPath)
	}
}
