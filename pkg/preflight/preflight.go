// Package preflight provides the checks that run before the first copy task
// is launched. A failure here aborts the run before any task starts; the
// advisory checks only produce warnings.
package preflight

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/paulschiretz/pgl-treecopy/pkg/util"
)

// CreateDestinationRoot creates the destination argument as a single directory.
// An existing entry is accepted. Missing parents are not created.
func CreateDestinationRoot(dst string) error {
	if dst == "" {
		return fmt.Errorf("destination path cannot be empty")
	}
	if err := checkVolumeExists(dst); err != nil {
		return err
	}
	if err := util.MkdirTolerant(dst, util.CopyDirPerms); err != nil {
		return fmt.Errorf("failed to create destination directory %s: %w", dst, err)
	}
	return nil
}

// InspectSource stats the source path, following symlinks.
func InspectSource(src string) (fs.FileInfo, error) {
	if src == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source path %s does not exist: %w", src, err)
		}
		return nil, fmt.Errorf("failed to stat source %s: %w", src, err)
	}
	return info, nil
}

// RootDestination derives where the root task copies to. A directory source
// is nested under the destination by its own name; for anything else the
// destination argument is used as is.
func RootDestination(src, dst string, srcInfo fs.FileInfo) string {
	if srcInfo != nil && srcInfo.IsDir() {
		return filepath.Join(dst, filepath.Base(filepath.Clean(src)))
	}
	return dst
}

// CheckDescriptorBudget returns an error when the open-file limit of the
// process is too small for the configured worker count. Callers are expected
// to log it as a warning: a file task only starts once it can open both of
// its descriptors, so the copy still finishes but spends time waiting. It
// cannot finish while fewer than two descriptors are free.
func CheckDescriptorBudget(workers int) error {
	limit, ok := descriptorLimit()
	if !ok {
		return nil
	}
	// A directory task holds one descriptor, a file task two, plus stdio and the log file.
	needed := uint64(workers)*2 + 8
	if limit < needed {
		return fmt.Errorf("open file limit %d is below the %d descriptors %d workers may hold; tasks will wait for free descriptors and stall for good if fewer than two are ever free", limit, needed, workers)
	}
	return nil
}
