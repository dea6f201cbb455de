package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/ratranqu/endstone/internal/domain/server"
)

const (
	linuxSum = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

	sampleDocument = `{
	"binary": {
		"1.20.0": {
			"linux": {
				"url": "https://cdn.example.com/bin-linux/bedrock-server-1.20.0.zip",
				"sha256": "` + linuxSum + `"
			},
			"windows": {
				"url": "https://cdn.example.com/bin-win/bedrock-server-1.20.0.zip"
			}
		}
	}
}`
)

// newServer serves body with status over TLS and counts requests.
func newServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32

	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)

	return ts, &hits
}

// TestResolve_Found resolves a published (platform, version) pair.
func TestResolve_Found(t *testing.T) {
	t.Parallel()

	ts, hits := newServer(t, http.StatusOK, sampleDocument)
	r := New(WithHTTPClient(ts.Client()), WithTimeout(time.Second))

	d, err := r.Resolve(context.Background(), ts.URL, domain.Linux, "1.20.0")
	require.NoError(t, err)
	require.Equal(t, domain.Linux, d.Platform)
	require.Equal(t, "1.20.0", d.Version)
	require.Equal(t, "https://cdn.example.com/bin-linux/bedrock-server-1.20.0.zip", d.DownloadURL)
	require.Equal(t, linuxSum, d.Checksum)
	require.Equal(t, domain.FormatZip, d.Format)
	require.EqualValues(t, 1, hits.Load())

	d, err = r.Resolve(context.Background(), ts.URL, domain.Windows, "1.20.0")
	require.NoError(t, err)
	require.False(t, d.HasChecksum())
}

// TestResolve_VersionNotFound names both the version and the platform.
func TestResolve_VersionNotFound(t *testing.T) {
	t.Parallel()

	ts, _ := newServer(t, http.StatusOK, sampleDocument)
	r := New(WithHTTPClient(ts.Client()))

	_, err := r.Resolve(context.Background(), ts.URL, domain.Windows, "9.9.9")
	require.ErrorIs(t, err, domain.ErrVersionNotFound)
	require.Contains(t, err.Error(), "9.9.9")
	require.Contains(t, err.Error(), "Windows")

	var resolutionErr *domain.ResolutionError
	require.ErrorAs(t, err, &resolutionErr)
	require.Equal(t, ts.URL, resolutionErr.URL)
}

// TestResolve_PlatformMissingForVersion does not fall back to another platform.
func TestResolve_PlatformMissingForVersion(t *testing.T) {
	t.Parallel()

	doc := `{"binary": {"1.20.0": {"windows": {"url": "https://cdn.example.com/w.zip"}}}}`
	ts, _ := newServer(t, http.StatusOK, doc)

	_, err := New(WithHTTPClient(ts.Client())).Resolve(context.Background(), ts.URL, domain.Linux, "1.20.0")
	require.ErrorIs(t, err, domain.ErrVersionNotFound)
	require.Contains(t, err.Error(), "Linux")
}

// TestResolve_Malformed covers documents that cannot be understood.
func TestResolve_Malformed(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":       `{"binary": `,
		"empty":          ``,
		"no binary":      `{"versions": {}}`,
		"wrong shape":    `{"binary": {"1.20.0": "https://cdn.example.com/x.zip"}}`,
		"missing url":    `{"binary": {"1.20.0": {"linux": {"sha256": "` + linuxSum + `"}}}}`,
		"relative url":   `{"binary": {"1.20.0": {"linux": {"url": "/x.zip"}}}}`,
		"bad checksum":   `{"binary": {"1.20.0": {"linux": {"url": "https://c.example.com/x.zip", "sha256": "abc"}}}}`,
		"bad format":     `{"binary": {"1.20.0": {"linux": {"url": "https://c.example.com/x", "format": "rar"}}}}`,
		"null entry":     `{"binary": {"1.20.0": {"linux": null}}}`,
		"yaml no binary": "latest: 1.20.0\n",
	}

	for name, body := range cases {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ts, _ := newServer(t, http.StatusOK, body)

			_, err := New(WithHTTPClient(ts.Client())).Resolve(context.Background(), ts.URL, domain.Linux, "1.20.0")
			require.ErrorIs(t, err, domain.ErrMalformedMetadata)
		})
	}
}

// TestResolve_Unreachable covers transport failures and bad statuses.
func TestResolve_Unreachable(t *testing.T) {
	t.Parallel()

	ts, _ := newServer(t, http.StatusNotFound, "missing")
	r := New(WithHTTPClient(ts.Client()))

	_, err := r.Resolve(context.Background(), ts.URL, domain.Linux, "1.20.0")
	require.ErrorIs(t, err, domain.ErrUnreachable)
	require.ErrorIs(t, err, errBadHTTPStatus)

	closed := httptest.NewTLSServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	_, err = r.Resolve(context.Background(), closedURL, domain.Linux, "1.20.0")
	require.ErrorIs(t, err, domain.ErrUnreachable)

	_, err = r.Resolve(context.Background(), "file:///etc/passwd", domain.Linux, "1.20.0")
	require.ErrorIs(t, err, domain.ErrUnreachable)
	require.ErrorIs(t, err, errBadScheme)
}

// TestResolve_Timeout bounds a stalled metadata request.
func TestResolve_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	ts := httptest.NewTLSServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		ts.Close()
	})

	r := New(WithHTTPClient(ts.Client()), WithTimeout(50*time.Millisecond))

	_, err := r.Resolve(context.Background(), ts.URL, domain.Linux, "1.20.0")
	require.ErrorIs(t, err, domain.ErrUnreachable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestParse_YAML accepts YAML mirrors of the document.
func TestParse_YAML(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(strings.Join([]string{
		"binary:",
		"  1.20.0:",
		"    linux:",
		"      url: https://cdn.example.com/server.tar.gz",
	}, "\n")))
	require.NoError(t, err)

	d, err := doc.Lookup(domain.Linux, "1.20.0")
	require.NoError(t, err)
	require.Equal(t, domain.FormatTarGz, d.Format)
}

// TestLookup_ExplicitFormat overrides the URL-derived format.
func TestLookup_ExplicitFormat(t *testing.T) {
	t.Parallel()

	doc := &Document{Binary: map[string]map[string]*Artifact{
		"1.20.0": {"linux": {URL: "https://cdn.example.com/download?id=1", Format: "zip", SHA256: strings.ToUpper(linuxSum)}},
	}}

	d, err := doc.Lookup(domain.Linux, "1.20.0")
	require.NoError(t, err)
	require.Equal(t, domain.FormatZip, d.Format)
	require.Equal(t, linuxSum, d.Checksum)
}
