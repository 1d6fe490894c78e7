package cmd

import (
	"fmt"
	"io"
	"runtime"
)

// RunVersion prints the application version to w.
func RunVersion(w io.Writer, appName, appVersion string) error {
	_, err := fmt.Fprintf(w, "%s version %s (%s/%s)\n", appName, appVersion, runtime.GOOS, runtime.GOARCH)
	return err
}
