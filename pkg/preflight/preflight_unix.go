//go:build !windows

package preflight

import (
	"golang.org/x/sys/unix"
)

// checkVolumeExists is a no-op on Unix: every path lives under "/".
func checkVolumeExists(string) error {
	return nil
}

// descriptorLimit returns the soft RLIMIT_NOFILE of the process.
func descriptorLimit() (uint64, bool) {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return 0, false
	}
	cur := uint64(rlim.Cur)
	// RLIM_INFINITY is spelled differently per platform; treat anything this large as unlimited.
	if cur >= 1<<62 {
		return 0, false
	}
	return cur, true
}
