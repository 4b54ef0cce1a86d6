package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"mediagen/internal/domain"
)

type launchRequest struct {
	Prompt    string `json:"prompt"`
	MediaKind string `json:"mediaKind"`
}

type launchResponse struct {
	OperationID string    `json:"operationId"`
	StartedAt   time.Time `json:"startedAt"`
}

type pollRequest struct {
	OperationID string `json:"operationId"`
}

type statusResponse struct {
	OperationID string `json:"operationId"`
	Status      string `json:"status"`
	ArtifactURI string `json:"artifactUri,omitempty"`
	PublicURI   string `json:"publicUri,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// LaunchOperation starts a generation and answers with the operation id right
// away. An omitted mediaKind means VIDEO.
func (a *App) LaunchOperation(w http.ResponseWriter, r *http.Request) {
	var req launchRequest
	if !a.decode(w, r, &req) {
		return
	}
	kind := domain.MediaKindVideo
	if strings.TrimSpace(req.MediaKind) != "" {
		parsed, ok := domain.ParseMediaKind(req.MediaKind)
		if !ok {
			a.error(w, http.StatusBadRequest, string(domain.CodeValidation), "mediaKind must be IMAGE or VIDEO")
			return
		}
		kind = parsed
	}

	ac := a.Auth.Current(r.Context())
	handle, err := a.Launcher.Start(r.Context(), domain.GenerationRequest{Prompt: req.Prompt, Kind: kind}, ac)
	if err != nil {
		a.fail(w, r, err, ac == nil)
		return
	}
	a.json(w, http.StatusAccepted, launchResponse{OperationID: handle.ID, StartedAt: handle.StartedAt})
}

// PollOperation reads the id from the JSON body.
func (a *App) PollOperation(w http.ResponseWriter, r *http.Request) {
	var req pollRequest
	if !a.decode(w, r, &req) {
		return
	}
	a.poll(w, r, req.OperationID)
}

// OperationStatus reads the id from the path; ids may contain slashes.
func (a *App) OperationStatus(w http.ResponseWriter, r *http.Request) {
	a.poll(w, r, chi.URLParam(r, "*"))
}

func (a *App) poll(w http.ResponseWriter, r *http.Request, id string) {
	ac := a.Auth.Current(r.Context())
	status, err := a.Poller.Poll(r.Context(), id, ac)
	if err != nil {
		a.fail(w, r, err, ac == nil)
		return
	}

	resp := statusResponse{OperationID: id, Status: string(status.State)}
	switch status.State {
	case domain.StateCompleted:
		ref := a.Locator.Reference(status.ArtifactURI)
		resp.ArtifactURI = ref.InternalURI
		resp.PublicURI = ref.PublicURI
	case domain.StateFailed:
		resp.Reason = status.Reason
	}
	a.json(w, http.StatusOK, resp)
}
