//go:build windows

package fdretry

import "golang.org/x/sys/windows"

var errTooManyOpenFiles error = windows.ERROR_TOO_MANY_OPEN_FILES
