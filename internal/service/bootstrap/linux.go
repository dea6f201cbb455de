package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	domain "github.com/ratranqu/endstone/internal/domain/server"
)

// Linux runs bedrock_server with the install root on the library search path.
type Linux struct {
	*base
}

// NewLinux creates the Linux variant.
func NewLinux(settings Settings) (*Linux, error) {
	b, err := newBase(domain.Linux, LinuxBinary, settings)
	if err != nil {
		return nil, err
	}

	return &Linux{base: b}, nil
}

// Run starts the server with LD_LIBRARY_PATH and, when configured, LD_PRELOAD set.
func (l *Linux) Run(ctx context.Context) (int, error) {
	if err := l.absolute(); err != nil {
		return SpawnExitCode, &domain.SpawnError{Path: l.layout.Executable, Err: err}
	}

	environ, err := l.environment(os.Environ())
	if err != nil {
		return SpawnExitCode, &domain.SpawnError{Path: l.layout.Executable, Err: err}
	}

	return l.run(ctx, environ)
}

func (l *Linux) environment(environ []string) ([]string, error) {
	environ = prependEnv(environ, "LD_LIBRARY_PATH", l.layout.Root, ":", false)

	if l.settings.RuntimeLibrary == "" {
		return environ, nil
	}

	library, err := filepath.Abs(l.settings.RuntimeLibrary)
	if err != nil {
		return nil, fmt.Errorf("runtime library: %w", err)
	}

	if _, err = os.Stat(library); err != nil {
		return nil, fmt.Errorf("runtime library: %w", err)
	}

	return prependEnv(environ, "LD_PRELOAD", library, ":", false), nil
}
