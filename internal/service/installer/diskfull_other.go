//go:build !unix && !windows

package installer

func isDiskFull(error) bool {
	return false
}
