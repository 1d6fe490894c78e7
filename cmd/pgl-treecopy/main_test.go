package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulschiretz/pgl-treecopy/pkg/flagparse"
	"github.com/paulschiretz/pgl-treecopy/pkg/plog"
)

func TestRun(t *testing.T) {
	var logBuf bytes.Buffer
	plog.SetOutput(&logBuf)
	t.Cleanup(func() {
		plog.SetOutput(os.Stderr)
		plog.SetLevel(plog.LevelInfo)
	})

	t.Run("wrong argument count is a usage error", func(t *testing.T) {
		err := run(context.Background(), []string{"only-one"})
		if !errors.Is(err, flagparse.ErrUsage) {
			t.Errorf("expected a usage error, got: %v", err)
		}
	})

	t.Run("help is not an error", func(t *testing.T) {
		if err := run(context.Background(), []string{"-h"}); err != nil {
			t.Errorf("expected no error, got: %v", err)
		}
	})

	t.Run("version", func(t *testing.T) {
		if err := run(context.Background(), []string{"-version"}); err != nil {
			t.Errorf("expected no error, got: %v", err)
		}
	})

	t.Run("copy", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "srcRoot")
		if err := os.MkdirAll(filepath.Join(src, "dirA"), 0755); err != nil {
			t.Fatalf("failed to create source: %v", err)
		}
		if err := os.WriteFile(filepath.Join(src, "dirA", "file1.txt"), []byte("hello"), 0644); err != nil {
			t.Fatalf("failed to write source file: %v", err)
		}
		out := filepath.Join(t.TempDir(), "out")

		if err := run(context.Background(), []string{"-workers", "3", src, out}); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		got, err := os.ReadFile(filepath.Join(out, "srcRoot", "dirA", "file1.txt"))
		if err != nil || string(got) != "hello" {
			t.Errorf("expected the copied file to contain 'hello', got %q (err: %v)", got, err)
		}
	})
}
