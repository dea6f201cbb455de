package installer

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"syscall"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	domain "github.com/ratranqu/endstone/internal/domain/server"
)

const serverScript = "#!/bin/sh\nexit 0\n"

// entry is one file in a generated test archive.
type entry struct {
	name string
	body string
}

// zipArchive builds an in-memory zip with the given entries.
func zipArchive(t *testing.T, entries ...entry) []byte {
	t.Helper()

	var buf bytes.Buffer

	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Create(e.name)
		require.NoError(t, err)

		_, err = f.Write([]byte(e.body))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	return buf.Bytes()
}

// tarGzArchive builds an in-memory gzip-compressed tarball with the given entries.
func tarGzArchive(t *testing.T, entries ...entry) []byte {
	t.Helper()

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     e.name,
			Mode:     0o644,
			Size:     int64(len(e.body)),
			Typeflag: tar.TypeReg,
		}))

		_, err := tw.Write([]byte(e.body))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	return buf.Bytes()
}

// serve publishes body at /artifact and returns the artifact URL.
func serve(t *testing.T, status int, body []byte) string {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(ts.Close)

	return ts.URL + "/artifact"
}

// sha256Hex returns the lower-case hex digest of body.
func sha256Hex(body []byte) string {
	sum := sha256.Sum256(body)

	return hex.EncodeToString(sum[:])
}

// testLayout returns the default layout for Linux 1.20.0 under a temporary base.
func testLayout(t *testing.T) (string, domain.Layout) {
	t.Helper()

	base := t.TempDir()

	layout, err := domain.ResolveLayout(
		filepath.Join(base, "bedrock_server", "{system}", "{version}"),
		domain.Linux,
		"1.20.0",
		"bedrock_server",
	)
	require.NoError(t, err)

	return base, layout
}

// descriptor builds a descriptor for url with the given checksum and format.
func descriptor(url, checksum string, format domain.ArchiveFormat) *domain.RemoteDescriptor {
	return &domain.RemoteDescriptor{
		Platform:    domain.Linux,
		Version:     "1.20.0",
		DownloadURL: url,
		Checksum:    checksum,
		Format:      format,
	}
}

// dirNames lists the entry names in dir.
func dirNames(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	sort.Strings(names)

	return names
}

// TestInstall_Zip installs a zip artifact and leaves no staging residue.
func TestInstall_Zip(t *testing.T) {
	t.Parallel()

	body := zipArchive(t,
		entry{"bedrock_server", serverScript},
		entry{"server.properties", "server-name=Dedicated Server\n"},
		entry{"behavior_packs/vanilla/manifest.json", "{}"},
	)
	url := serve(t, http.StatusOK, body)
	_, layout := testLayout(t)

	err := New(time.Second).Install(context.Background(), descriptor(url, sha256Hex(body), domain.FormatZip), layout)
	require.NoError(t, err)

	info, err := os.Stat(layout.Executable)
	require.NoError(t, err)

	if runtime.GOOS != "windows" {
		require.Equal(t, DefaultFileMode, info.Mode().Perm())
	}

	_, err = os.Stat(filepath.Join(layout.Root, "behavior_packs", "vanilla", "manifest.json"))
	require.NoError(t, err)

	require.Equal(t, []string{"1.20.0"}, dirNames(t, filepath.Dir(layout.Root)))
}

// TestInstall_ChecksumMismatch leaves nothing behind and a retry succeeds.
func TestInstall_SweepsStaleStaging(t *testing.T) {
	t.Parallel()

	body := zipArchive(t, entry{"bedrock_server", serverScript})
	url := serve(t, http.StatusOK, body)
	_, layout := testLayout(t)

	parent := filepath.Dir(layout.Root)
	stale := filepath.Join(parent, ".1.20.0.staging-4242")
	require.NoError(t, os.MkdirAll(filepath.Join(stale, "tree"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "artifact"), []byte("partial"), 0o644))

	other := filepath.Join(parent, ".1.19.0.staging-1")
	require.NoError(t, os.Mkdir(other, 0o755))

	err := New(time.Second).Install(context.Background(), descriptor(url, sha256Hex(body), domain.FormatZip), layout)
	require.NoError(t, err)

	require.NoDirExists(t, stale)
	require.DirExists(t, other)
	require.FileExists(t, layout.Executable)
}

func TestInstall_ChecksumMismatch(t *testing.T) {
	t.Parallel()

	body := zipArchive(t, entry{"bedrock_server", serverScript})
	url := serve(t, http.StatusOK, body)
	base, layout := testLayout(t)
	wrong := sha256Hex([]byte("something else"))

	err := New(time.Second).Install(context.Background(), descriptor(url, wrong, domain.FormatZip), layout)
	require.ErrorIs(t, err, domain.ErrIntegrityFailure)
	require.ErrorIs(t, err, ErrChecksumMismatch)

	var installErr *domain.InstallError
	require.ErrorAs(t, err, &installErr)
	require.Equal(t, layout.Executable, installErr.Path)
	require.Equal(t, url, installErr.URL)

	_, err = os.Stat(layout.Executable)
	require.ErrorIs(t, err, fs.ErrNotExist)

	// Directories created for the attempt are gone again.
	require.Empty(t, dirNames(t, base))

	err = New(time.Second).Install(context.Background(), descriptor(url, sha256Hex(body), domain.FormatZip), layout)
	require.NoError(t, err)

	_, err = os.Stat(layout.Executable)
	require.NoError(t, err)
}

// TestInstall_HTTPError reports a network failure.
func TestInstall_HTTPError(t *testing.T) {
	t.Parallel()

	url := serve(t, http.StatusNotFound, []byte("gone"))
	_, layout := testLayout(t)

	err := New(time.Second).Install(context.Background(), descriptor(url, "", domain.FormatZip), layout)
	require.ErrorIs(t, err, domain.ErrNetworkFailure)
	require.ErrorIs(t, err, errBadHTTPStatus)

	_, err = os.Stat(layout.Executable)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

// TestInstall_MissingBinary rejects archives without the server executable.
func TestInstall_MissingBinary(t *testing.T) {
	t.Parallel()

	body := zipArchive(t, entry{"readme.txt", "hello"})
	url := serve(t, http.StatusOK, body)
	_, layout := testLayout(t)

	err := New(time.Second).Install(context.Background(), descriptor(url, "", domain.FormatZip), layout)
	require.ErrorIs(t, err, domain.ErrIntegrityFailure)
	require.ErrorIs(t, err, errMissingBinary)

	_, err = os.Stat(layout.Root)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

// TestInstall_CorruptArchive treats an unreadable archive as an integrity failure.
func TestInstall_CorruptArchive(t *testing.T) {
	t.Parallel()

	url := serve(t, http.StatusOK, []byte("definitely not a zip file"))
	_, layout := testLayout(t)

	err := New(time.Second).Install(context.Background(), descriptor(url, "", domain.FormatZip), layout)
	require.ErrorIs(t, err, domain.ErrIntegrityFailure)
}

// TestInstall_UnsafePath refuses entries that escape the install root.
func TestInstall_UnsafePath(t *testing.T) {
	t.Parallel()

	body := zipArchive(t,
		entry{"bedrock_server", serverScript},
		entry{"../../evil.txt", "owned"},
	)
	url := serve(t, http.StatusOK, body)
	base, layout := testLayout(t)

	err := New(time.Second).Install(context.Background(), descriptor(url, "", domain.FormatZip), layout)
	require.ErrorIs(t, err, domain.ErrIntegrityFailure)

	_, err = os.Stat(layout.Executable)
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = os.Stat(filepath.Join(base, "evil.txt"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

// TestInstall_TarGzNested flattens a single top-level folder.
func TestInstall_TarGzNested(t *testing.T) {
	t.Parallel()

	body := tarGzArchive(t,
		entry{"bedrock-server-1.20.0/bedrock_server", serverScript},
		entry{"bedrock-server-1.20.0/release-notes.txt", "notes"},
	)
	url := serve(t, http.StatusOK, body)
	_, layout := testLayout(t)

	err := New(time.Second).Install(context.Background(), descriptor(url, sha256Hex(body), domain.FormatTarGz), layout)
	require.NoError(t, err)
	require.Equal(t, []string{"bedrock_server", "release-notes.txt"}, dirNames(t, layout.Root))
}

// TestInstall_Raw places a bare executable through go-update.
func TestInstall_Raw(t *testing.T) {
	t.Parallel()

	body := []byte(serverScript)
	url := serve(t, http.StatusOK, body)
	_, layout := testLayout(t)

	err := New(time.Second).Install(context.Background(), descriptor(url, sha256Hex(body), domain.FormatRaw), layout)
	require.NoError(t, err)

	got, err := os.ReadFile(layout.Executable)
	require.NoError(t, err)
	require.Equal(t, body, got)
}

// TestInstall_ExistingRootKeepsUserFiles merges into an existing folder.
func TestInstall_ExistingRootKeepsUserFiles(t *testing.T) {
	t.Parallel()

	_, layout := testLayout(t)
	require.NoError(t, os.MkdirAll(filepath.Join(layout.Root, "worlds", "Bedrock level"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(layout.Root, "server.properties"), []byte("custom"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(layout.Root, "worlds", "Bedrock level", "level.dat"), []byte("w"), 0o600))

	body := zipArchive(t,
		entry{"bedrock_server", serverScript},
		entry{"server.properties", "default"},
		entry{"allowlist.json", "[]"},
		entry{"worlds/.keep", ""},
	)
	url := serve(t, http.StatusOK, body)

	err := New(time.Second).Install(context.Background(), descriptor(url, "", domain.FormatZip), layout)
	require.NoError(t, err)

	props, err := os.ReadFile(filepath.Join(layout.Root, "server.properties"))
	require.NoError(t, err)
	require.Equal(t, "custom", string(props))

	for _, name := range []string{"allowlist.json", "bedrock_server", filepath.Join("worlds", ".keep"), filepath.Join("worlds", "Bedrock level", "level.dat")} {
		_, err = os.Stat(filepath.Join(layout.Root, name))
		require.NoError(t, err, name)
	}
}

// TestInstall_PermissionDenied classifies an unwritable parent folder.
func TestInstall_PermissionDenied(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}

	body := zipArchive(t, entry{"bedrock_server", serverScript})
	url := serve(t, http.StatusOK, body)
	_, layout := testLayout(t)

	parent := filepath.Dir(layout.Root)
	require.NoError(t, os.MkdirAll(parent, 0o755))
	require.NoError(t, os.Chmod(parent, 0o555))
	t.Cleanup(func() {
		_ = os.Chmod(parent, 0o755)
	})

	err := New(time.Second).Install(context.Background(), descriptor(url, "", domain.FormatZip), layout)
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
}

// TestClassify maps filesystem errors to install failure kinds.
func TestClassify(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, classify(&fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}), domain.ErrPermissionDenied)
	require.ErrorIs(t, classify(errors.New("other")), domain.ErrFilesystemFailure)

	if runtime.GOOS != "windows" {
		require.ErrorIs(t, classify(&fs.PathError{Op: "write", Path: "x", Err: syscall.ENOSPC}), domain.ErrDiskFull)
	}

	require.ErrorIs(t, kindOf(network(errors.New("reset"))), domain.ErrNetworkFailure)
	require.ErrorIs(t, kindOf(integrity(errors.New("bad"))), domain.ErrIntegrityFailure)
}

// TestSafeDestination rejects paths that escape the destination.
func TestSafeDestination(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()

	got, skip, err := safeDestination(dest, "a/b.txt")
	require.NoError(t, err)
	require.False(t, skip)
	require.Equal(t, filepath.Join(dest, "a", "b.txt"), got)

	_, skip, err = safeDestination(dest, "./")
	require.NoError(t, err)
	require.True(t, skip)

	for _, name := range []string{"../x", "a/../../x", "/etc/passwd"} {
		_, _, err = safeDestination(dest, name)
		require.ErrorIs(t, err, errUnsafePath, name)
	}
}
