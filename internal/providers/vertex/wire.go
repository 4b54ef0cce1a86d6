package vertex

import (
	"strings"

	"mediagen/internal/domain"
)

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount int    `json:"sampleCount,omitempty"`
	StorageURI  string `json:"storageUri,omitempty"`
}

type fetchRequest struct {
	OperationName string `json:"operationName"`
}

type operationResponse struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *statusError    `json:"error,omitempty"`
	Response *resultEnvelope `json:"response,omitempty"`
}

type statusError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

type errorEnvelope struct {
	Error statusError `json:"error"`
}

// resultEnvelope covers the result shapes seen across model generations: Veo
// videos, older generatedSamples, Imagen-style predictions and content
// candidates.
type resultEnvelope struct {
	Videos                  []storedMedia     `json:"videos,omitempty"`
	GeneratedSamples        []generatedSample `json:"generatedSamples,omitempty"`
	Predictions             []storedMedia     `json:"predictions,omitempty"`
	Candidates              []wireCandidate   `json:"candidates,omitempty"`
	RAIMediaFilteredCount   int               `json:"raiMediaFilteredCount,omitempty"`
	RAIMediaFilteredReasons []string          `json:"raiMediaFilteredReasons,omitempty"`
}

type storedMedia struct {
	GCSURI   string `json:"gcsUri,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
}

type generatedSample struct {
	Video struct {
		URI      string `json:"uri,omitempty"`
		MIMEType string `json:"mimeType,omitempty"`
	} `json:"video"`
}

type wireCandidate struct {
	Content struct {
		Parts []wirePart `json:"parts"`
	} `json:"content"`
}

type wirePart struct {
	FileData *struct {
		MIMEType string `json:"mimeType,omitempty"`
		FileURI  string `json:"fileUri,omitempty"`
	} `json:"fileData,omitempty"`
	Video   string `json:"video,omitempty"`
	FileURL string `json:"fileUrl,omitempty"`
}

func (p wirePart) toDomain() domain.Part {
	if p.FileData != nil && strings.TrimSpace(p.FileData.FileURI) != "" {
		return domain.Part{URI: p.FileData.FileURI, MIMEType: p.FileData.MIMEType}
	}
	if strings.TrimSpace(p.Video) != "" {
		return domain.Part{URI: p.Video}
	}
	return domain.Part{URI: p.FileURL}
}

// normalize maps the wire operation onto the vendor-neutral shape. A finished
// result whose every sample was filtered is reported as an error carrying the
// filter reasons.
func normalize(resp operationResponse) *domain.RemoteOperation {
	op := &domain.RemoteOperation{Name: resp.Name, Done: resp.Done}
	if resp.Error != nil {
		op.Error = &domain.RemoteError{Code: resp.Error.Code, Message: resp.Error.Message}
		return op
	}
	if resp.Response == nil {
		return op
	}
	r := resp.Response

	if len(r.Candidates) > 0 {
		for _, c := range r.Candidates {
			cand := domain.Candidate{}
			for _, p := range c.Content.Parts {
				cand.Parts = append(cand.Parts, p.toDomain())
			}
			op.Candidates = append(op.Candidates, cand)
		}
		return op
	}

	var parts []domain.Part
	for _, v := range r.Videos {
		parts = append(parts, domain.Part{URI: v.GCSURI, MIMEType: v.MIMEType})
	}
	for _, s := range r.GeneratedSamples {
		parts = append(parts, domain.Part{URI: s.Video.URI, MIMEType: s.Video.MIMEType})
	}
	for _, p := range r.Predictions {
		parts = append(parts, domain.Part{URI: p.GCSURI, MIMEType: p.MIMEType})
	}
	if len(parts) > 0 {
		op.Candidates = []domain.Candidate{{Parts: parts}}
		return op
	}

	if resp.Done && len(r.RAIMediaFilteredReasons) > 0 {
		op.Error = &domain.RemoteError{Message: strings.Join(r.RAIMediaFilteredReasons, "; ")}
	}
	return op
}
