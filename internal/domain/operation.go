package domain

import (
	"strings"
	"time"
)

// MediaKind enumerates the kinds of media a caller can ask for.
type MediaKind string

const (
	MediaKindImage MediaKind = "IMAGE"
	MediaKindVideo MediaKind = "VIDEO"
)

// ParseMediaKind normalizes free-form input into a supported kind.
func ParseMediaKind(s string) (MediaKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(MediaKindImage):
		return MediaKindImage, true
	case string(MediaKindVideo):
		return MediaKindVideo, true
	default:
		return "", false
	}
}

// GenerationRequest is consumed once by the launcher and never persisted.
type GenerationRequest struct {
	Prompt string
	Kind   MediaKind
}

// OperationHandle identifies a vendor operation. ID is an opaque token and must be
// presented back verbatim on every status query.
type OperationHandle struct {
	ID        string
	StartedAt time.Time
}

// OperationState enumerates the client-facing lifecycle states.
type OperationState string

const (
	StateProcessing OperationState = "PROCESSING"
	StateCompleted  OperationState = "COMPLETED"
	StateFailed     OperationState = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s OperationState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// OperationStatus is the tagged union returned by a poll. ArtifactURI is only set
// for COMPLETED, Reason only for FAILED.
type OperationStatus struct {
	State       OperationState
	ArtifactURI string
	Reason      string
}

func Processing() OperationStatus {
	return OperationStatus{State: StateProcessing}
}

func Completed(artifactURI string) OperationStatus {
	return OperationStatus{State: StateCompleted, ArtifactURI: artifactURI}
}

func Failed(reason string) OperationStatus {
	return OperationStatus{State: StateFailed, Reason: reason}
}

// ArtifactReference pairs the vendor storage URI with its web-accessible form.
// It is derived on demand and never stored.
type ArtifactReference struct {
	InternalURI string
	PublicURI   string
}
