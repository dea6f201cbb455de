//go:build unix

package bootstrap

import (
	"os"
	"syscall"
)

// signalExitBase is added to the signal number of a killed server, as shells do.
const signalExitBase = 128

func exitStatus(state *os.ProcessState) int {
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return signalExitBase + int(status.Signal())
	}

	return state.ExitCode()
}
