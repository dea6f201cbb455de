//go:build !unix

package bootstrap

import "os"

func exitStatus(state *os.ProcessState) int {
	return state.ExitCode()
}
