package plog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPlogLevels(t *testing.T) {
	// --- Setup: Redirect plog output to capture log output ---
	var logBuf bytes.Buffer
	SetOutput(&logBuf)
	// Restore original output after test.
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	t.Run("Logs all levels when level is Debug", func(t *testing.T) {
		logBuf.Reset()
		SetLevel(LevelDebug)

		Debug("debug message", "key", "val1")
		Info("info message", "key", "val2")
		Warn("warn message") // Should be in the buffer now, as SetOutput captures all levels.

		output := logBuf.String()

		if !strings.Contains(output, "level=DEBUG msg=\"debug message\" key=val1") {
			t.Errorf("expected debug message to be logged, but it wasn't. Got: %s", output)
		}
		if !strings.Contains(output, "level=INFO msg=\"info message\" key=val2") {
			t.Errorf("expected info message to be logged, but it wasn't. Got: %s", output)
		}
		if !strings.Contains(output, "level=WARN msg=\"warn message\"") {
			t.Errorf("expected warn message to be logged, but it wasn't. Got: %s", output)
		}
	})

	t.Run("Suppresses lower levels when level is Warn", func(t *testing.T) {
		logBuf.Reset()
		SetLevel(LevelWarn) // Set level to Warn, which should suppress Debug and Info

		Debug("debug message")
		Info("info message")

		output := logBuf.String()

		if strings.Contains(output, "level=DEBUG") || strings.Contains(output, "level=INFO") {
			t.Errorf("expected no debug or info output at warn level, but got: %s", output)
		}
	})

	t.Run("Logs Notice and above, but suppresses Debug", func(t *testing.T) {
		logBuf.Reset()
		SetLevel(LevelNotice) // Set level to Notice

		Debug("debug message")
		Notice("notice message", "key", "val1")
		Info("info message", "key", "val2")
		Warn("warn message")

		output := logBuf.String()

		if strings.Contains(output, "level=DEBUG msg=\"debug message\"") {
			t.Errorf("expected debug message to be suppressed at notice level, but it was logged. Got: %s", output)
		}
		if !strings.Contains(output, "level=NOTICE msg=\"notice message\" key=val1") {
			t.Errorf("expected notice message to be logged, but it wasn't. Got: %s", output)
		}
		if !strings.Contains(output, "level=INFO msg=\"info message\" key=val2") {
			t.Errorf("expected info message to be logged, but it wasn't. Got: %s", output)
		}
	})
}

func TestLevelFromString(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"debug", "DEBUG"},
		{"NOTICE", "INFO+2"},
		{" info ", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := LevelFromString(tc.input).String(); got != tc.expected {
				t.Errorf("LevelFromString(%q) = %s; want %s", tc.input, got, tc.expected)
			}
		})
	}
}

func TestQuietMode(t *testing.T) {
	var logBuf bytes.Buffer
	SetOutput(&logBuf)
	SetLevel(LevelDebug)
	t.Cleanup(func() {
		SetQuiet(false)
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	SetQuiet(true)

	Debug("debug message")
	Info("info message")
	Notice("notice message")
	Warn("warn message")
	Error("error message")

	output := logBuf.String()
	for _, suppressed := range []string{"debug message", "info message", "notice message"} {
		if strings.Contains(output, suppressed) {
			t.Errorf("expected %q to be suppressed in quiet mode. Got: %s", suppressed, output)
		}
	}
	for _, kept := range []string{"level=WARN msg=\"warn message\"", "level=ERROR msg=\"error message\""} {
		if !strings.Contains(output, kept) {
			t.Errorf("expected %q to be logged in quiet mode. Got: %s", kept, output)
		}
	}
}

func TestSetLogFile(t *testing.T) {
	var logBuf bytes.Buffer
	SetOutput(&logBuf)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	path := filepath.Join(t.TempDir(), "treecopy.log")
	closer := SetLogFile(path, 1, 1)
	Info("copy_file start", "task", 7)
	Warn("copy_file failed", "task", 7)
	SetLogFile("", 0, 0)
	if err := closer.Close(); err != nil {
		t.Fatalf("failed to close log file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "msg=\"copy_file start\" task=7") {
		t.Errorf("expected info record in log file. Got: %s", content)
	}
	if !strings.Contains(content, "level=WARN msg=\"copy_file failed\"") {
		t.Errorf("expected warn record in log file. Got: %s", content)
	}
	if !strings.Contains(logBuf.String(), "copy_file start") {
		t.Errorf("expected record to still reach the primary output. Got: %s", logBuf.String())
	}

	Info("after tee removed")
	data, _ = os.ReadFile(path)
	if strings.Contains(string(data), "after tee removed") {
		t.Error("expected no records in the log file after SetLogFile(\"\")")
	}
}
