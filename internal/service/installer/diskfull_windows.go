//go:build windows

package installer

import (
	"errors"

	"golang.org/x/sys/windows"
)

// isDiskFull reports out-of-space errors.
func isDiskFull(err error) bool {
	return errors.Is(err, windows.ERROR_DISK_FULL) || errors.Is(err, windows.ERROR_HANDLE_DISK_FULL)
}
