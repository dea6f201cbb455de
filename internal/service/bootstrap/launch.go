package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/ratranqu/endstone/internal/config"
	domain "github.com/ratranqu/endstone/internal/domain/server"
	"github.com/ratranqu/endstone/internal/logger"
	"github.com/ratranqu/endstone/internal/prompt"
)

var errNotRegularFile = errors.New("server executable is not a regular file")

// Options are the inputs of one launcher invocation.
type Options struct {
	// Config holds the launcher settings; nil means defaults.
	Config *config.Config
	// Platform overrides the detected platform name.
	Platform string
	// AssumeYes installs a missing server without asking.
	AssumeYes bool
	// Confirmer answers the install question; defaults to a Terminal on stdin.
	Confirmer prompt.Confirmer
	// Args are passed to the server.
	Args []string
}

// Run launches the server for the running platform and returns its exit code.
// On failure the returned code is ExitCode(err).
func Run(ctx context.Context, opts *Options) (int, error) {
	ctx = logger.WithName(ctx, "endstone")

	if opts == nil {
		opts = new(Options)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	platformName := opts.Platform
	if platformName == "" {
		platformName = domain.CurrentPlatformName()
	}

	b, err := Select(platformName, SettingsFromConfig(cfg, opts.Args))
	if err != nil {
		return ExitCode(err), err
	}

	confirmer := opts.Confirmer
	if confirmer == nil {
		confirmer = prompt.NewTerminal(os.Stdin, os.Stderr)
	}

	return Launch(ctx, b, confirmer, opts.AssumeYes)
}

// Launch makes sure the server is installed and runs it.
// Interrupts before the server starts cancel the install; afterwards they go to the server.
func Launch(ctx context.Context, b Bootstrap, confirmer prompt.Confirmer, assumeYes bool) (int, error) {
	prepareCtx, stop := signal.NotifyContext(ctx, forwardedSignals...)
	_, err := Ensure(prepareCtx, b, confirmer, assumeYes)

	stop()

	if err != nil {
		return ExitCode(err), err
	}

	return b.Run(ctx)
}

// Ensure checks for the server executable and installs it when missing and
// confirmed. Install is never called when the executable already exists.
// The returned state is StateReady or StateInstalled on success and
// StateInstallFailed otherwise.
func Ensure(ctx context.Context, b Bootstrap, confirmer prompt.Confirmer, assumeYes bool) (domain.InstallState, error) {
	ctx = logger.WithFields(logger.WithName(ctx, "bootstrap"),
		"platform", b.Platform().String(),
		"executable", b.ExecutablePath(),
	)

	state := domain.StateNotChecked
	transition := func(next domain.InstallState) {
		logger.DebugKV(ctx, "Install state changed", "from", state.String(), "to", next.String())
		state = next
	}

	info, err := os.Stat(b.ExecutablePath())

	switch {
	case err == nil && info.Mode().IsRegular():
		transition(domain.StateReady)
		return state, nil
	case err == nil:
		transition(domain.StateInstallFailed)
		return state, &domain.SpawnError{Path: b.ExecutablePath(), Err: errNotRegularFile}
	case !errors.Is(err, fs.ErrNotExist):
		transition(domain.StateInstallFailed)
		return state, &domain.SpawnError{Path: b.ExecutablePath(), Err: err}
	}

	transition(domain.StateMissing)

	if !assumeYes {
		question := installQuestion(b)

		confirmed, confirmErr := confirmer.Confirm(ctx, question, true)
		if confirmErr != nil {
			transition(domain.StateInstallFailed)
			return state, fmt.Errorf("confirm install: %w", confirmErr)
		}

		if !confirmed {
			transition(domain.StateInstallFailed)
			logger.Info(ctx, "Install declined")

			return state, domain.NewDeclinedError(b.ExecutablePath())
		}
	}

	transition(domain.StateInstalling)

	if err = b.Install(ctx); err != nil {
		transition(domain.StateInstallFailed)
		return state, err
	}

	if _, err = os.Stat(b.ExecutablePath()); err != nil {
		transition(domain.StateInstallFailed)
		return state, &domain.InstallError{Kind: domain.ErrFilesystemFailure, Path: b.ExecutablePath(), Err: err}
	}

	transition(domain.StateInstalled)

	return state, nil
}

// installQuestion is asked before a missing server is downloaded.
func installQuestion(b Bootstrap) string {
	layout := b.Layout()

	return fmt.Sprintf(
		"Bedrock Dedicated Server (v%s) is not found in %s. Would you like to download it now?",
		b.Version(),
		filepath.Dir(layout.Executable),
	)
}
