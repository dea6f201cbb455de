//go:build windows

package bootstrap

import (
	"context"

	"golang.org/x/sys/windows"

	"github.com/ratranqu/endstone/internal/logger"
)

// enableVirtualTerminal turns on ANSI escape processing for the console and
// returns a function restoring the previous mode.
func enableVirtualTerminal(ctx context.Context) func() {
	handle, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE)
	if err != nil {
		return func() {}
	}

	var mode uint32
	if err = windows.GetConsoleMode(handle, &mode); err != nil {
		// Not a console, e.g. output redirected to a file.
		return func() {}
	}

	if mode&windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING != 0 {
		return func() {}
	}

	if err = windows.SetConsoleMode(handle, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING); err != nil {
		logger.DebugKV(ctx, "Unable to enable virtual terminal processing", "error", err)
		return func() {}
	}

	return func() {
		if err := windows.SetConsoleMode(handle, mode); err != nil {
			logger.DebugKV(ctx, "Unable to restore console mode", "error", err)
		}
	}
}
