package domain

// RemoteOperation is the vendor-neutral view of a long-running operation as
// reported by the provider at one instant. Vendor clients normalize their wire
// format into this shape; the status translator only ever reads this.
type RemoteOperation struct {
	Name       string
	Done       bool
	Error      *RemoteError
	Candidates []Candidate
}

// RemoteError is the error payload attached to a finished operation.
type RemoteError struct {
	Code    int
	Message string
}

// Candidate is one generated result. Only the first candidate is consulted.
type Candidate struct {
	Parts []Part
}

// Part is a content part that may point at a stored artifact.
type Part struct {
	URI      string
	MIMEType string
}
