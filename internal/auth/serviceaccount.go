package auth

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"mediagen/internal/domain"
)

// ServiceAccount holds the fields of a service-account key that the provider
// checks before handing the document to the credentials library.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

var errEmptyBlob = errors.New("service account is empty")

// ParseServiceAccount accepts a raw JSON key or its base64 encoding and returns
// the parsed key along with the decoded JSON document.
func ParseServiceAccount(blob []byte) (*ServiceAccount, []byte, error) {
	const op = "auth.ParseServiceAccount"

	raw := bytes.TrimSpace(blob)
	if len(raw) == 0 {
		return nil, nil, domain.NewError(domain.CodeAuthInvalid, op, errEmptyBlob)
	}
	if raw[0] != '{' {
		decoded, err := decodeBase64(string(raw))
		if err != nil {
			return nil, nil, domain.Errorf(domain.CodeAuthInvalid, op, "service account is neither JSON nor base64")
		}
		raw = bytes.TrimSpace(decoded)
	}

	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, nil, domain.Errorf(domain.CodeAuthInvalid, op, "decode service account: %v", err)
	}
	if sa.Type != "service_account" {
		return nil, nil, domain.Errorf(domain.CodeAuthInvalid, op, "unsupported credential type %q", sa.Type)
	}

	var missing []string
	if strings.TrimSpace(sa.ProjectID) == "" {
		missing = append(missing, "project_id")
	}
	if strings.TrimSpace(sa.ClientEmail) == "" {
		missing = append(missing, "client_email")
	}
	if strings.TrimSpace(sa.PrivateKey) == "" {
		missing = append(missing, "private_key")
	}
	if len(missing) > 0 {
		return nil, nil, domain.Errorf(domain.CodeAuthInvalid, op, "service account missing %s", strings.Join(missing, ", "))
	}
	return &sa, raw, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		out, err := enc.DecodeString(s)
		if err == nil {
			return out, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
