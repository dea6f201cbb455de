//go:build unix

package bootstrap

import (
	"os"
	"syscall"
)

// forwardedSignals are relayed from the launcher to the server.
var forwardedSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT}

// forward sends sig to the server. A nil sig means the launch was cancelled
// and the server is asked to terminate.
func forward(process *os.Process, sig os.Signal) error {
	if sig == nil {
		sig = syscall.SIGTERM
	}

	return process.Signal(sig)
}
