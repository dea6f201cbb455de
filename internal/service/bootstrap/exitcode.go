package bootstrap

import (
	"errors"

	domain "github.com/ratranqu/endstone/internal/domain/server"
)

// Exit codes for failures that happen before the server runs. They sit at the
// top of the range so they are unlikely to collide with the server's own codes.
const (
	UnsupportedPlatformExitCode = 250
	DeclinedExitCode            = 251
	ResolutionExitCode          = 252
	InstallExitCode             = 253
	SpawnExitCode               = 254
	FailureExitCode             = 255
)

// ExitCode maps a launcher failure to the process exit code.
// A nil error maps to 0; callers pass the server's code through themselves.
//
// The ranges overlap: a server exiting with 250-255, or killed on Unix by a
// signal that maps to 128+n >= 250, yields a code that looks like a launcher
// failure. The launcher log tells the two apart.
func ExitCode(err error) int {
	var (
		unsupportedErr *domain.UnsupportedPlatformError
		resolutionErr  *domain.ResolutionError
		installErr     *domain.InstallError
		spawnErr       *domain.SpawnError
	)

	switch {
	case err == nil:
		return 0
	case errors.As(err, &unsupportedErr):
		return UnsupportedPlatformExitCode
	case errors.Is(err, domain.ErrInstallDeclined):
		return DeclinedExitCode
	case errors.As(err, &resolutionErr):
		return ResolutionExitCode
	case errors.As(err, &installErr):
		return InstallExitCode
	case errors.As(err, &spawnErr):
		return SpawnExitCode
	default:
		return FailureExitCode
	}
}
