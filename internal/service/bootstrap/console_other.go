//go:build !windows

package bootstrap

import "context"

// enableVirtualTerminal is a no-op outside Windows; terminals there already understand ANSI.
func enableVirtualTerminal(context.Context) func() {
	return func() {}
}
