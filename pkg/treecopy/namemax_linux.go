//go:build linux

package treecopy

import "golang.org/x/sys/unix"

// nameMax returns the longest file name the filesystem holding dir accepts.
func nameMax(dir string) int {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil || st.Namelen <= 0 {
		return defaultNameMax
	}
	return int(st.Namelen)
}
