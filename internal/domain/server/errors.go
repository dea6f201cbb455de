package server

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
)

// Resolution failure kinds.
var (
	// ErrUnreachable means the remote descriptor could not be fetched.
	ErrUnreachable = errors.New("remote metadata unreachable")
	// ErrMalformedMetadata means the remote descriptor could not be understood.
	ErrMalformedMetadata = errors.New("malformed remote metadata")
	// ErrVersionNotFound means the descriptor has no entry for the requested (platform, version).
	ErrVersionNotFound = errors.New("version not found in remote metadata")
)

// Install failure kinds.
var (
	// ErrNetworkFailure means the artifact download failed.
	ErrNetworkFailure = errors.New("network failure")
	// ErrIntegrityFailure means the artifact did not match its checksum or is not a usable archive.
	ErrIntegrityFailure = errors.New("integrity failure")
	// ErrDiskFull means the filesystem ran out of space or quota.
	ErrDiskFull = errors.New("disk full")
	// ErrPermissionDenied means the installer may not write to the install location.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrFilesystemFailure is any other local I/O failure during install.
	ErrFilesystemFailure = errors.New("filesystem failure")
)

var (
	// ErrUnsupportedPlatform is wrapped by UnsupportedPlatformError.
	ErrUnsupportedPlatform = errors.New("platform is not supported")
	// ErrSpawn is wrapped by SpawnError.
	ErrSpawn = errors.New("unable to start server process")
	// ErrInstallDeclined means the caller refused to install a missing server.
	ErrInstallDeclined = errors.New("server install declined")
)

// UnsupportedPlatformError names a platform no bootstrap exists for.
type UnsupportedPlatformError struct {
	Platform string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("%s is not supported", e.Platform)
}

// Unwrap returns ErrUnsupportedPlatform so callers can use errors.Is.
func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

// ResolutionError reports why a (platform, version) pair could not be resolved.
type ResolutionError struct {
	// Kind is one of ErrUnreachable, ErrMalformedMetadata or ErrVersionNotFound.
	Kind     error
	URL      string
	Platform Platform
	Version  string
	// Err is the underlying cause, if any.
	Err error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "resolve %s server v%s from %s: %v", e.Platform, e.Version, e.URL, e.Kind)

	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *ResolutionError) Unwrap() []error {
	return nonNil(e.Kind, e.Err)
}

// InstallError reports why an install attempt failed.
type InstallError struct {
	// Kind is one of the Err*Failure / ErrDiskFull / ErrPermissionDenied values.
	Kind error
	URL  string
	Path string
	Err  error
}

func (e *InstallError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "install %s", e.Path)

	if e.URL != "" {
		fmt.Fprintf(&b, " from %s", e.URL)
	}

	fmt.Fprintf(&b, ": %v", e.Kind)

	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *InstallError) Unwrap() []error {
	return nonNil(e.Kind, e.Err)
}

// SpawnError means the server executable could not be started at all.
// It is distinct from the server starting and exiting non-zero.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Path, e.Err)
}

// Unwrap exposes ErrSpawn and the cause.
func (e *SpawnError) Unwrap() []error {
	return nonNil(ErrSpawn, e.Err)
}

// NewDeclinedError returns the error raised when the user refuses to install.
// It satisfies errors.Is(err, fs.ErrNotExist) and references the missing executable.
func NewDeclinedError(executable string) error {
	return fmt.Errorf("%w: %w", ErrInstallDeclined, &fs.PathError{
		Op:   "open",
		Path: executable,
		Err:  syscall.ENOENT,
	})
}

func nonNil(errs ...error) []error {
	out := make([]error, 0, len(errs))

	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}

	return out
}
