//go:build unix

package fdretry

import "golang.org/x/sys/unix"

// errTooManyOpenFiles is EMFILE, the per-process descriptor limit.
var errTooManyOpenFiles error = unix.EMFILE
