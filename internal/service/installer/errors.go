package installer

import (
	"errors"
	"fmt"
	"io/fs"

	domain "github.com/ratranqu/endstone/internal/domain/server"
)

// ErrChecksumMismatch indicates the computed SHA256 hash does not match the expected hash.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ChecksumError provides details about a checksum verification failure.
// It wraps ErrChecksumMismatch so callers can use errors.Is for classification.
type ChecksumError struct {
	URL      string
	Expected string
	Got      string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s: expected sha256 %s, got %s", e.URL, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// kindError tags an internal failure with its install failure kind.
type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }

func (e *kindError) Unwrap() error { return e.err }

// integrity tags err as an artifact defect.
func integrity(err error) error {
	return &kindError{kind: domain.ErrIntegrityFailure, err: err}
}

// network tags err as a download failure.
func network(err error) error {
	return &kindError{kind: domain.ErrNetworkFailure, err: err}
}

// kindOf returns the install failure kind for err.
// Untagged errors are local filesystem failures.
func kindOf(err error) error {
	var tagged *kindError
	if errors.As(err, &tagged) {
		return tagged.kind
	}

	return classify(err)
}

// classify maps a local filesystem error to an install failure kind.
func classify(err error) error {
	switch {
	case isDiskFull(err):
		return domain.ErrDiskFull
	case errors.Is(err, fs.ErrPermission):
		return domain.ErrPermissionDenied
	default:
		return domain.ErrFilesystemFailure
	}
}
