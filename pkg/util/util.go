package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Permission constants for created directories and files.
// The process umask is applied on top of these, exactly like open(2) and mkdir(2).
const (
	// CopyDirPerms is the mode every destination directory is created with (rwxrwxr-x).
	CopyDirPerms os.FileMode = 0775
	// CopyFilePerms is the mode every destination file is created with (rwxrwxr--).
	CopyFilePerms os.FileMode = 0774
	// ReportFilePerms is used for the optional run report (rw-rw-r--).
	ReportFilePerms os.FileMode = 0664
)

// MkdirTolerant creates a single directory. An already existing entry at path
// is treated as success; no check is made that it actually is a directory.
func MkdirTolerant(path string, perm os.FileMode) error {
	if err := os.Mkdir(path, perm); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return nil
}

// ExpandPath expands the tilde (~) prefix in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil // No tilde, return as-is.
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}

	// Replace the tilde with the home directory.
	return filepath.Join(home, path[1:]), nil
}
