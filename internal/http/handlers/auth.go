package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"mediagen/internal/auth"
	"mediagen/internal/domain"
	"mediagen/internal/middleware"
)

type authRequest struct {
	// ServiceAccount is either the key document itself or a base64 string.
	ServiceAccount json.RawMessage `json:"serviceAccount"`
}

type authResponse struct {
	ProjectID   string    `json:"projectId"`
	Region      string    `json:"region"`
	ClientEmail string    `json:"clientEmail"`
	IssuedAt    time.Time `json:"issuedAt"`
	Persisted   bool      `json:"persisted"`
}

// Authenticate replaces the active auth context. Requests already in flight keep
// the context they started with. The key is persisted only for a verified admin.
func (a *App) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if !a.decode(w, r, &req) {
		return
	}
	blob := serviceAccountBlob(req.ServiceAccount)
	if len(blob) == 0 {
		a.error(w, http.StatusBadRequest, string(domain.CodeAuthInvalid), "serviceAccount is required")
		return
	}

	ac, err := a.Authenticator.Authenticate(r.Context(), blob)
	if err != nil {
		a.fail(w, r, err, false)
		return
	}

	persisted := a.persist(r, ac, blob)
	a.Auth.Replace(r.Context(), ac, persisted)

	a.json(w, http.StatusOK, authResponse{
		ProjectID:   ac.ProjectID,
		Region:      ac.Region,
		ClientEmail: ac.ClientEmail,
		IssuedAt:    ac.IssuedAt,
		Persisted:   persisted,
	})
}

// persist stores blob for other instances. Only a verified admin may overwrite
// the stored key; an unguarded route keeps the new context in memory.
func (a *App) persist(r *http.Request, ac *auth.Context, blob []byte) bool {
	if a.Credentials == nil {
		return false
	}
	subject := middleware.AdminSubjectFromContext(r.Context())
	if subject == "" {
		a.logger().Warn().Str("client_email", ac.ClientEmail).Msg("auth route unguarded, service account not persisted")
		return false
	}
	props := map[string]any{"client_email": ac.ClientEmail, "project_id": ac.ProjectID, "stored_by": subject}
	if err := a.Credentials.SetServiceAccount(r.Context(), blob, props); err != nil {
		a.logger().Error().Err(err).Msg("persist service account failed")
		return false
	}
	return true
}

func serviceAccountBlob(raw json.RawMessage) []byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return []byte(s)
	}
	return raw
}
