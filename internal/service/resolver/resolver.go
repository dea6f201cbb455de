package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/ratranqu/endstone/internal/domain/server"
	"github.com/ratranqu/endstone/internal/logger"
)

// maxDocumentBytes bounds the metadata document; the real file is well under 1 MiB.
const maxDocumentBytes = 8 << 20

var (
	errBadHTTPStatus = errors.New("unexpected http status")
	errBadScheme     = errors.New("remote must be an http or https URL")
	errEmptyDocument = errors.New("document is empty")
)

// Resolver resolves server downloads from a remote bedrock server data document.
type Resolver struct {
	// client performs the single metadata request.
	client *http.Client
	// timeout bounds the request when the caller's context has no deadline.
	timeout time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient overrides the HTTP client (tests use the httptest TLS client).
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		if client != nil {
			r.client = client
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		client:  http.DefaultClient,
		timeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve fetches the document at remoteURL and looks up (platform, version).
// Every failure is a *domain.ResolutionError of kind Unreachable, MalformedMetadata or VersionNotFound.
func (r *Resolver) Resolve(
	ctx context.Context,
	remoteURL string,
	platform domain.Platform,
	version string,
) (*domain.RemoteDescriptor, error) {
	fail := func(kind, err error) error {
		return &domain.ResolutionError{
			Kind:     kind,
			URL:      remoteURL,
			Platform: platform,
			Version:  version,
			Err:      err,
		}
	}

	logger.InfoKV(ctx, "Fetching bedrock server data", "remote", remoteURL, "platform", platform, "version", version)

	body, err := r.fetch(ctx, remoteURL)
	if err != nil {
		return nil, fail(domain.ErrUnreachable, err)
	}

	doc, err := Parse(body)
	if err != nil {
		return nil, fail(domain.ErrMalformedMetadata, err)
	}

	descriptor, err := doc.Lookup(platform, version)
	if err != nil {
		var resolutionErr *domain.ResolutionError
		if errors.As(err, &resolutionErr) {
			resolutionErr.URL = remoteURL
		}

		return nil, err
	}

	logger.DebugKV(ctx, "Resolved server download",
		"url", descriptor.DownloadURL, "format", descriptor.Format, "checksum", descriptor.HasChecksum())

	return descriptor, nil
}

// Parse decodes a bedrock server data document.
// The published document is JSON; YAML mirrors are accepted as well.
func Parse(body []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errEmptyDocument
	}

	var doc Document

	// Tab-indented JSON is not valid YAML, so JSON goes through encoding/json.
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("decode json document: %w", err)
		}
	} else if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml document: %w", err)
	}

	if doc.Binary == nil {
		return nil, errNoBinarySection
	}

	return &doc, nil
}

// fetch performs the GET request and returns the body.
func (r *Resolver) fetch(ctx context.Context, remoteURL string) ([]byte, error) {
	u, err := url.Parse(remoteURL)
	if err != nil {
		return nil, err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%q: %w", remoteURL, errBadScheme)
	}

	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.1")

	response, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", remoteURL, response.Status, errBadHTTPStatus)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	return body, nil
}

// callContext returns a context with the resolver's timeout unless ctx already has a deadline.
func (r *Resolver) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || r.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, r.timeout)
}
