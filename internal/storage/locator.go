package storage

import (
	"strings"

	"mediagen/internal/domain"
)

const (
	// InternalScheme is the prefix the provider uses for objects in Cloud Storage.
	InternalScheme = "gs://"

	// DefaultPublicBaseURL serves Cloud Storage objects over HTTPS.
	DefaultPublicBaseURL = "https://storage.googleapis.com/"
)

// Locator turns provider storage URIs into web references. It is a pure string
// transform; whether the object is actually readable at the public URI is decided
// by the bucket's access policy, not here.
type Locator struct {
	publicBase string
}

// NewLocator builds a Locator serving from publicBase. An empty base falls back to
// DefaultPublicBaseURL. The base always ends with exactly one slash.
func NewLocator(publicBase string) *Locator {
	return &Locator{publicBase: normalizeBase(publicBase)}
}

// PublicBase returns the configured web prefix.
func (l *Locator) PublicBase() string {
	if l == nil {
		return DefaultPublicBaseURL
	}
	return l.publicBase
}

// ToPublicURI swaps the gs:// prefix for the public base. Inputs without the
// internal scheme, including the empty string, are returned unchanged.
func (l *Locator) ToPublicURI(internalURI string) string {
	rest, ok := strings.CutPrefix(internalURI, InternalScheme)
	if !ok {
		return internalURI
	}
	return l.PublicBase() + rest
}

// ToInternalURI is the inverse of ToPublicURI.
func (l *Locator) ToInternalURI(publicURI string) string {
	rest, ok := strings.CutPrefix(publicURI, l.PublicBase())
	if !ok {
		return publicURI
	}
	return InternalScheme + rest
}

// Reference pairs internalURI with its public form.
func (l *Locator) Reference(internalURI string) domain.ArtifactReference {
	return domain.ArtifactReference{
		InternalURI: internalURI,
		PublicURI:   l.ToPublicURI(internalURI),
	}
}

func normalizeBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return DefaultPublicBaseURL
	}
	return strings.TrimRight(base, "/") + "/"
}
