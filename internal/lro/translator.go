package lro

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mediagen/internal/auth"
	"mediagen/internal/domain"
)

// ReasonArtifactMissing is reported when a finished operation carries neither an
// error nor a locatable artifact.
const ReasonArtifactMissing = "artifact location missing from terminal response"

var (
	errEmptyOperationID = errors.New("operationId is required")
	errNoOperation      = errors.New("vendor returned no operation")
)

// Translator answers status queries. It keeps no record of operations; every
// Poll reads the vendor once.
type Translator struct {
	opts Options
}

func NewTranslator(opts Options) *Translator {
	return &Translator{opts: opts.withDefaults()}
}

// Poll fetches the operation named by id and maps it to a client status.
func (t *Translator) Poll(ctx context.Context, id string, ac *auth.Context) (domain.OperationStatus, error) {
	const op = "lro.Poll"

	if strings.TrimSpace(id) == "" {
		return domain.OperationStatus{}, domain.NewError(domain.CodeValidation, op, errEmptyOperationID)
	}
	if ac == nil {
		return domain.OperationStatus{}, domain.NewError(domain.CodeAuthInvalid, op, errNoAuth)
	}

	started := t.opts.Now()
	remote, err := t.fetch(ctx, ac, id)
	elapsed := t.opts.Now().Sub(started)
	if err == nil && remote == nil {
		err = errNoOperation
	}
	if err != nil {
		t.opts.Observer.ObservePoll("", domain.CodePoll, elapsed)
		t.opts.Logger.Warn().Err(err).Str("operation", id).Msg("poll failed")
		return domain.OperationStatus{}, domain.NewError(domain.CodePoll, op, err)
	}

	status := Translate(remote)
	t.opts.Observer.ObservePoll(status.State, "", elapsed)
	t.opts.Logger.Debug().Str("operation", id).Str("state", string(status.State)).Msg("operation polled")
	return status, nil
}

func (t *Translator) fetch(ctx context.Context, ac *auth.Context, id string) (*domain.RemoteOperation, error) {
	ctx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()
	return t.opts.Vendor.Fetch(ctx, ac, id)
}

// Translate applies the ordered decision table: not done, vendor error, first
// candidate's artifact, then the missing-artifact failure.
func Translate(remote *domain.RemoteOperation) domain.OperationStatus {
	if remote == nil {
		return domain.Failed(ReasonArtifactMissing)
	}
	if !remote.Done {
		return domain.Processing()
	}
	if remote.Error != nil {
		return domain.Failed(errorReason(remote.Error))
	}
	if uri := firstArtifact(remote.Candidates); uri != "" {
		return domain.Completed(uri)
	}
	return domain.Failed(ReasonArtifactMissing)
}

func errorReason(e *domain.RemoteError) string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("operation failed with code %d", e.Code)
}

func firstArtifact(candidates []domain.Candidate) string {
	if len(candidates) == 0 {
		return ""
	}
	for _, part := range candidates[0].Parts {
		if uri := strings.TrimSpace(part.URI); uri != "" {
			return uri
		}
	}
	return ""
}
