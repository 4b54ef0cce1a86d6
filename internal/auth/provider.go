package auth

import (
	"context"
	"strings"
	"time"

	gauth "cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
)

const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Options configures a Provider. FromJSON and Detect default to the
// cloud.google.com/go/auth implementations.
type Options struct {
	Region          string
	ProjectOverride string
	// Verify fetches one access token during authentication so a revoked or
	// malformed key is rejected up front.
	Verify   bool
	Logger   *infra.Logger
	FromJSON func(raw []byte) (*gauth.Credentials, error)
	Detect   func() (*gauth.Credentials, error)
	Now      func() time.Time
}

// BlobSource yields a previously stored service-account blob.
type BlobSource interface {
	ServiceAccount(ctx context.Context) ([]byte, error)
}

// Provider turns credential material into a Context.
type Provider struct {
	opts Options
}

func NewProvider(opts Options) *Provider {
	if opts.FromJSON == nil {
		opts.FromJSON = serviceAccountCredentials
	}
	if opts.Detect == nil {
		opts.Detect = defaultCredentials
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = infra.NopLogger()
	}
	return &Provider{opts: opts}
}

func serviceAccountCredentials(raw []byte) (*gauth.Credentials, error) {
	return credentials.NewCredentialsFromJSON(credentials.ServiceAccount, raw, &credentials.DetectOptions{
		Scopes: []string{CloudPlatformScope},
	})
}

func defaultCredentials() (*gauth.Credentials, error) {
	return credentials.DetectDefault(&credentials.DetectOptions{
		Scopes: []string{CloudPlatformScope},
	})
}

// Authenticate validates blob and builds an in-memory credential from it.
func (p *Provider) Authenticate(ctx context.Context, blob []byte) (*Context, error) {
	const op = "auth.Authenticate"

	sa, raw, err := ParseServiceAccount(blob)
	if err != nil {
		return nil, err
	}
	creds, err := p.opts.FromJSON(raw)
	if err != nil {
		return nil, domain.NewError(domain.CodeAuthInvalid, op, err)
	}
	if err := p.verify(ctx, op, creds); err != nil {
		return nil, err
	}

	ac := &Context{
		ProjectID:   p.project(sa.ProjectID),
		Region:      p.opts.Region,
		ClientEmail: sa.ClientEmail,
		Credentials: creds,
		IssuedAt:    p.opts.Now().UTC(),
	}
	p.opts.Logger.Info().
		Str("project", ac.ProjectID).
		Str("client_email", ac.ClientEmail).
		Msg("service account authenticated")
	return ac, nil
}

// Ambient resolves Application Default Credentials. It returns nil, nil when the
// environment offers none.
func (p *Provider) Ambient(ctx context.Context) (*Context, error) {
	const op = "auth.Ambient"

	creds, err := p.opts.Detect()
	if err != nil {
		p.opts.Logger.Info().Err(err).Msg("no ambient credentials")
		return nil, nil
	}
	project := strings.TrimSpace(p.opts.ProjectOverride)
	if project == "" {
		project, err = creds.ProjectID(ctx)
		if err != nil {
			return nil, domain.NewError(domain.CodeAuthInvalid, op, err)
		}
	}
	if strings.TrimSpace(project) == "" {
		return nil, domain.Errorf(domain.CodeAuthInvalid, op, "project id could not be resolved; set GOOGLE_CLOUD_PROJECT")
	}
	if err := p.verify(ctx, op, creds); err != nil {
		return nil, err
	}

	p.opts.Logger.Info().Str("project", project).Msg("ambient credentials loaded")
	return &Context{
		ProjectID:   project,
		Region:      p.opts.Region,
		Credentials: creds,
		IssuedAt:    p.opts.Now().UTC(),
	}, nil
}

// FromEnvironment authenticates with blob when one is configured and falls back
// to ambient credentials otherwise.
func (p *Provider) FromEnvironment(ctx context.Context, blob []byte) (*Context, error) {
	if strings.TrimSpace(string(blob)) != "" {
		return p.Authenticate(ctx, blob)
	}
	return p.Ambient(ctx)
}

// FromStore authenticates with the blob held by src. A missing blob yields nil, nil.
func (p *Provider) FromStore(ctx context.Context, src BlobSource) (*Context, error) {
	if src == nil {
		return nil, nil
	}
	blob, err := src.ServiceAccount(ctx)
	if err != nil {
		return nil, domain.NewError(domain.CodeAuthInvalid, "auth.FromStore", err)
	}
	if len(blob) == 0 {
		return nil, nil
	}
	return p.Authenticate(ctx, blob)
}

func (p *Provider) verify(ctx context.Context, op string, creds *gauth.Credentials) error {
	if !p.opts.Verify {
		return nil
	}
	if _, err := creds.Token(ctx); err != nil {
		return domain.NewError(domain.CodeAuthRejected, op, err)
	}
	return nil
}

func (p *Provider) project(fromKey string) string {
	if override := strings.TrimSpace(p.opts.ProjectOverride); override != "" {
		return override
	}
	return fromKey
}
