//go:build !unix

package bootstrap

import "os"

// forwardedSignals are relayed from the launcher to the server.
var forwardedSignals = []os.Signal{os.Interrupt}

// forward relays sig to the server. The console already delivers Ctrl+C to
// every attached process, so interrupts need nothing more. A cancelled launch
// (nil sig) ends the server with Kill.
func forward(process *os.Process, sig os.Signal) error {
	if sig != nil {
		return nil
	}

	return process.Kill()
}
