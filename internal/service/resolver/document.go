package resolver

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	domain "github.com/ratranqu/endstone/internal/domain/server"
)

var (
	errNoBinarySection = errors.New(`document has no "binary" section`)
	errEmptyEntry      = errors.New("entry is empty")
	errNoURL           = errors.New(`entry has no "url"`)
	errBadURL          = errors.New("entry url must be absolute http(s)")
	errBadChecksum     = errors.New("sha256 must be 64 hex characters")
	errBadFormat       = errors.New("unknown archive format")
)

// Document is the bedrock server data file.
// Binary maps version -> platform key ("linux", "windows") -> artifact.
type Document struct {
	Binary map[string]map[string]*Artifact `json:"binary" yaml:"binary"`
}

// Artifact is one downloadable server build.
type Artifact struct {
	URL    string `json:"url"              yaml:"url"`
	SHA256 string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Lookup returns the descriptor for (platform, version).
// Failures are *domain.ResolutionError of kind VersionNotFound or MalformedMetadata
// with the URL left for the caller to fill in.
func (d *Document) Lookup(platform domain.Platform, version string) (*domain.RemoteDescriptor, error) {
	fail := func(kind, err error) error {
		return &domain.ResolutionError{Kind: kind, Platform: platform, Version: version, Err: err}
	}

	if d == nil || d.Binary == nil {
		return nil, fail(domain.ErrMalformedMetadata, errNoBinarySection)
	}

	platforms, ok := d.Binary[version]
	if !ok {
		return nil, fail(domain.ErrVersionNotFound, fmt.Errorf("no v%s entry for %s", version, platform))
	}

	artifact, ok := platforms[platform.Key()]
	if !ok {
		return nil, fail(domain.ErrVersionNotFound, fmt.Errorf("v%s is not published for %s", version, platform))
	}

	if err := artifact.validate(); err != nil {
		return nil, fail(domain.ErrMalformedMetadata, fmt.Errorf("v%s/%s: %w", version, platform.Key(), err))
	}

	format := domain.InferArchiveFormat(artifact.URL)
	if artifact.Format != "" {
		format, _ = domain.ParseArchiveFormat(artifact.Format)
	}

	return &domain.RemoteDescriptor{
		Platform:    platform,
		Version:     version,
		DownloadURL: strings.TrimSpace(artifact.URL),
		Checksum:    strings.ToLower(strings.TrimSpace(artifact.SHA256)),
		Format:      format,
	}, nil
}

// validate checks the fields the installer relies on.
func (a *Artifact) validate() error {
	if a == nil {
		return errEmptyEntry
	}

	raw := strings.TrimSpace(a.URL)
	if raw == "" {
		return errNoURL
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q: %w", raw, errBadURL)
	}

	if sum := strings.TrimSpace(a.SHA256); sum != "" && !isValidHexHash(sum) {
		return fmt.Errorf("%q: %w", sum, errBadChecksum)
	}

	if a.Format != "" {
		if _, ok := domain.ParseArchiveFormat(a.Format); !ok {
			return fmt.Errorf("%q: %w", a.Format, errBadFormat)
		}
	}

	return nil
}

// isValidHexHash checks if s is a valid 64-character hex-encoded SHA256 hash.
func isValidHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}

	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}

	return true
}
