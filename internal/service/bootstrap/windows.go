package bootstrap

import (
	"context"
	"os"

	domain "github.com/ratranqu/endstone/internal/domain/server"
)

// Windows runs bedrock_server.exe with the install root first on PATH.
type Windows struct {
	*base
}

// NewWindows creates the Windows variant.
func NewWindows(settings Settings) (*Windows, error) {
	b, err := newBase(domain.Windows, WindowsBinary, settings)
	if err != nil {
		return nil, err
	}

	return &Windows{base: b}, nil
}

// Run enables virtual terminal processing on the console for the lifetime of
// the server so its colour output renders, then restores the previous mode.
func (w *Windows) Run(ctx context.Context) (int, error) {
	if err := w.absolute(); err != nil {
		return SpawnExitCode, &domain.SpawnError{Path: w.layout.Executable, Err: err}
	}

	restore := enableVirtualTerminal(ctx)
	defer restore()

	return w.run(ctx, w.environment(os.Environ()))
}

func (w *Windows) environment(environ []string) []string {
	return prependEnv(environ, "PATH", w.layout.Root, ";", true)
}
