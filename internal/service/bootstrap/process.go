package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/mitchellh/go-ps"

	domain "github.com/ratranqu/endstone/internal/domain/server"
	"github.com/ratranqu/endstone/internal/logger"
)

// pluginsFolderMode is used when creating the plugins folder.
const pluginsFolderMode os.FileMode = 0o755

// run starts the server once and waits for it. Signals received meanwhile are
// relayed to the server; a cancelled ctx asks it to stop.
func (b *base) run(ctx context.Context, environ []string) (int, error) {
	ctx = logger.WithFields(logger.WithName(ctx, "bootstrap"), "executable", b.layout.Executable)

	if err := b.ensurePluginsFolder(ctx); err != nil {
		return SpawnExitCode, &domain.SpawnError{Path: b.layout.Executable, Err: err}
	}

	warnIfRunning(ctx, b.layout.BinaryName())

	cmd := exec.Command(b.layout.Executable, b.settings.Args...) //nolint:gosec // The path is the resolved server layout.
	cmd.Dir = b.layout.Root
	cmd.Env = environ
	cmd.Stdin = b.settings.Stdin
	cmd.Stdout = b.settings.Stdout
	cmd.Stderr = b.settings.Stderr

	signals := make(chan os.Signal, len(forwardedSignals))
	signal.Notify(signals, forwardedSignals...)

	defer signal.Stop(signals)

	logger.InfoKV(ctx, "Starting server", "args", b.settings.Args)

	if err := cmd.Start(); err != nil {
		return SpawnExitCode, &domain.SpawnError{Path: b.layout.Executable, Err: err}
	}

	logger.InfoKV(ctx, "Server started", "pid", cmd.Process.Pid)

	waited := make(chan error, 1)

	go func() {
		waited <- cmd.Wait()
	}()

	fromTerminal := isTerminal(b.settings.Stdin)
	done := ctx.Done()

	for {
		select {
		case sig := <-signals:
			if !relayed(sig, fromTerminal) {
				logger.DebugKV(ctx, "Server received the signal from the terminal", "signal", sig.String())
				continue
			}

			logger.InfoKV(ctx, "Forwarding signal to server", "signal", sig.String())

			if err := forward(cmd.Process, sig); err != nil {
				logger.WarnKV(ctx, "Unable to forward signal", "signal", sig.String(), "error", err)
			}
		case <-done:
			done = nil

			logger.InfoKV(ctx, "Stopping server", "reason", ctx.Err())

			if err := forward(cmd.Process, nil); err != nil {
				logger.WarnKV(ctx, "Unable to stop server", "error", err)
			}
		case err := <-waited:
			return b.exited(ctx, cmd.ProcessState, err)
		}
	}
}

// exited turns the result of Wait into the server's exit code.
func (b *base) exited(ctx context.Context, state *os.ProcessState, err error) (int, error) {
	var exitErr *exec.ExitError

	switch {
	case state == nil:
		return FailureExitCode, fmt.Errorf("wait for server: %w", err)
	case err != nil && !errors.As(err, &exitErr):
		logger.WarnKV(ctx, "Server stream copy failed", "error", err)
	}

	code := exitStatus(state)

	logger.InfoKV(ctx, "Server exited", "code", code, "state", state.String())

	return code, nil
}

// ensurePluginsFolder creates the plugins folder inside the install root.
func (b *base) ensurePluginsFolder(ctx context.Context) error {
	plugins := filepath.Join(b.layout.Root, filepath.FromSlash(b.settings.PluginsFolder))

	if err := os.MkdirAll(plugins, pluginsFolderMode); err != nil {
		return fmt.Errorf("create plugins folder: %w", err)
	}

	logger.DebugKV(ctx, "Plugins folder ready", "path", plugins)

	return nil
}

// warnIfRunning logs every other process running the same server binary.
// A second server on the same folder fights over the world files and ports.
func warnIfRunning(ctx context.Context, binaryName string) {
	processList, err := ps.Processes()
	if err != nil {
		logger.DebugKV(ctx, "Unable to list processes", "error", err)
		return
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID || process.Executable() != binaryName {
			continue
		}

		logger.WarnKV(ctx, "Another server process is already running", "pid", process.Pid(), "name", binaryName)
	}
}

// relayed reports whether sig has to be sent to the server. Ctrl+C on a shared
// terminal already reaches the server through the foreground process group.
func relayed(sig os.Signal, fromTerminal bool) bool {
	return !fromTerminal || sig != os.Interrupt
}

// isTerminal reports whether the server's stdin is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
