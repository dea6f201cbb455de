//go:build unix

package installer

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isDiskFull reports out-of-space and out-of-quota errors.
func isDiskFull(err error) bool {
	return errors.Is(err, unix.ENOSPC) || errors.Is(err, unix.EDQUOT)
}
