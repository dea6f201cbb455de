package installer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	domain "github.com/ratranqu/endstone/internal/domain/server"
	"github.com/ratranqu/endstone/internal/logger"
)

const (
	// DefaultFileMode is applied to the server executable.
	DefaultFileMode os.FileMode = 0o755

	// dirMode is used for directories the installer creates.
	dirMode os.FileMode = 0o755

	// defaultHeaderTimeout bounds the wait for the artifact response headers.
	defaultHeaderTimeout = 30 * time.Second

	// userAgent identifies the launcher to artifact hosts.
	userAgent = "endstone-bootstrap"
)

var (
	errNilDescriptor  = errors.New("descriptor is nil")
	errMissingBinary  = errors.New("artifact does not contain the server executable")
	errRootNotDir     = errors.New("install root exists but is not a directory")
	errUnknownFormat  = errors.New("unknown archive format")
	errBinaryNotAFile = errors.New("server executable in artifact is not a regular file")
)

// DefaultPreservedFiles are server files a user is expected to edit; an install
// into an existing folder never overwrites them.
func DefaultPreservedFiles() []string {
	return []string{"server.properties", "allowlist.json", "permissions.json"}
}

// Installer places server artifacts on disk.
type Installer struct {
	// client downloads artifacts.
	client *http.Client
	// preserved holds top-level names kept when the install root already exists.
	preserved map[string]struct{}
	// goos decides whether executable permission bits are set.
	goos string
}

// Option configures an Installer.
type Option func(*Installer)

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(i *Installer) {
		if client != nil {
			i.client = client
		}
	}
}

// WithPreservedFiles replaces the list of user files kept on reinstall.
func WithPreservedFiles(names ...string) Option {
	return func(i *Installer) {
		i.preserved = sliceToSet(names)
	}
}

// New creates an Installer. headerTimeout bounds the wait for the server to
// start answering; the body itself may take as long as it needs.
func New(headerTimeout time.Duration, opts ...Option) *Installer {
	if headerTimeout <= 0 {
		headerTimeout = defaultHeaderTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // Stdlib guarantees the type.
	transport.ResponseHeaderTimeout = headerTimeout

	i := &Installer{
		client:    &http.Client{Transport: transport},
		preserved: sliceToSet(DefaultPreservedFiles()),
		goos:      runtime.GOOS,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Install downloads descriptor's artifact and promotes it to layout.
// Every failure is a *domain.InstallError and leaves nothing at layout.Executable.
func (i *Installer) Install(ctx context.Context, descriptor *domain.RemoteDescriptor, layout domain.Layout) (retErr error) {
	ctx = logger.WithName(ctx, "installer")

	if descriptor == nil {
		return &domain.InstallError{Kind: domain.ErrFilesystemFailure, Path: layout.Executable, Err: errNilDescriptor}
	}

	fail := func(kind, err error) error {
		return &domain.InstallError{
			Kind: kind,
			URL:  descriptor.DownloadURL,
			Path: layout.Executable,
			Err:  err,
		}
	}

	parent := filepath.Dir(layout.Root)

	created, err := ensureDirTracked(parent)
	if err != nil {
		return fail(classify(err), err)
	}

	defer func() {
		if retErr != nil {
			removeEmptyDirs(created)
		}
	}()

	prefix := stagingPrefix(layout.Root)
	sweepStaging(ctx, parent, prefix)

	staging, err := os.MkdirTemp(parent, prefix)
	if err != nil {
		return fail(classify(err), fmt.Errorf("create staging directory: %w", err))
	}

	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			logger.WarnKV(ctx, "Unable to remove staging directory", "path", staging, "error", err)
		}
	}()

	logger.InfoKV(ctx, "Downloading server", "url", descriptor.DownloadURL, "staging", staging)

	artifact := filepath.Join(staging, "artifact")

	checksum, err := i.download(ctx, descriptor.DownloadURL, artifact)
	if err != nil {
		return fail(kindOf(err), err)
	}

	if descriptor.HasChecksum() {
		logger.Info(ctx, "Verifying artifact checksum")

		if err = verifyChecksum(descriptor.DownloadURL, descriptor.Checksum, checksum); err != nil {
			return fail(domain.ErrIntegrityFailure, err)
		}
	} else {
		logger.WarnKV(ctx, "No checksum published, skipping verification", "sha256", checksum)
	}

	tree := filepath.Join(staging, "tree")
	if err = os.Mkdir(tree, dirMode); err != nil {
		return fail(classify(err), err)
	}

	logger.InfoKV(ctx, "Unpacking artifact", "format", descriptor.Format)

	if err = i.unpack(ctx, descriptor, artifact, tree, layout.BinaryName()); err != nil {
		return fail(kindOf(err), err)
	}

	tree, err = locateBinary(tree, layout.BinaryName())
	if err != nil {
		return fail(kindOf(err), err)
	}

	if i.goos != "windows" {
		if err = os.Chmod(filepath.Join(tree, layout.BinaryName()), DefaultFileMode); err != nil {
			return fail(classify(err), err)
		}
	}

	logger.InfoKV(ctx, "Promoting staged server", "root", layout.Root)

	if err = i.promote(ctx, tree, layout); err != nil {
		return fail(kindOf(err), err)
	}

	logger.InfoKV(ctx, "Server installed", "executable", layout.Executable, "version", descriptor.Version)

	return nil
}

// unpack dispatches on the artifact format.
func (i *Installer) unpack(
	ctx context.Context,
	descriptor *domain.RemoteDescriptor,
	artifact, tree, binaryName string,
) error {
	switch descriptor.Format {
	case domain.FormatZip:
		return extractZip(ctx, artifact, tree)
	case domain.FormatTarGz:
		return extractTarGz(ctx, artifact, tree)
	case domain.FormatRaw, "":
		return placeRaw(artifact, filepath.Join(tree, binaryName), descriptor.Checksum)
	default:
		return integrity(fmt.Errorf("%q: %w", descriptor.Format, errUnknownFormat))
	}
}

// locateBinary returns the directory inside tree that holds binaryName.
// Archives that wrap everything in one top-level folder are accepted.
func locateBinary(tree, binaryName string) (string, error) {
	for i := 0; i < 2; i++ {
		info, err := os.Lstat(filepath.Join(tree, binaryName))
		if err == nil {
			if !info.Mode().IsRegular() {
				return "", integrity(errBinaryNotAFile)
			}

			return tree, nil
		}

		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}

		entries, err := os.ReadDir(tree)
		if err != nil {
			return "", err
		}

		if len(entries) != 1 || !entries[0].IsDir() {
			break
		}

		tree = filepath.Join(tree, entries[0].Name())
	}

	return "", integrity(errMissingBinary)
}

// sliceToSet converts a slice to a set for quick lookups.
func sliceToSet[T comparable](elements []T) map[T]struct{} {
	result := make(map[T]struct{}, len(elements))
	for _, value := range elements {
		result[value] = struct{}{}
	}

	return result
}
