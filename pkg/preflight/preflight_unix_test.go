//go:build !windows

package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateDestinationRoot_Unix(t *testing.T) {
	t.Run("Error - No Permission on Parent", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("permission checks do not apply to root")
		}
		parent := filepath.Join(t.TempDir(), "locked")
		if err := os.Mkdir(parent, 0555); err != nil {
			t.Fatalf("failed to create read-only parent: %v", err)
		}
		t.Cleanup(func() { os.Chmod(parent, 0755) })

		err := CreateDestinationRoot(filepath.Join(parent, "out"))
		if err == nil {
			t.Fatal("expected a permission error, but got nil")
		}
		if !strings.Contains(err.Error(), "permission denied") {
			t.Errorf("expected a permission error, but got: %v", err)
		}
	})
}

func TestCheckDescriptorBudget(t *testing.T) {
	limit, ok := descriptorLimit()
	if !ok {
		t.Skip("descriptor limit is unavailable or unlimited")
	}

	if err := CheckDescriptorBudget(1); err != nil && limit > 16 {
		t.Errorf("expected one worker to fit a limit of %d, got: %v", limit, err)
	}

	tooMany := int(limit) // twice the limit in descriptors
	err := CheckDescriptorBudget(tooMany)
	if err == nil {
		t.Fatalf("expected a warning for %d workers with a limit of %d", tooMany, limit)
	}
	if !strings.Contains(err.Error(), "open file limit") || !strings.Contains(err.Error(), "stall") {
		t.Errorf("unexpected message: %v", err)
	}
}
