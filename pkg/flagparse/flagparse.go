package flagparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulschiretz/pgl-treecopy/pkg/buildinfo"
)

// ErrUsage is returned when the positional arguments are not exactly <source> <destination>.
var ErrUsage = errors.New("usage error")

// cliFlags holds pointers to all command-line flags.
type cliFlags struct {
	ConfigPath *string
	LogLevel   *string
	Quiet      *bool
	Version    *bool

	Workers         *int
	RetryWaitMillis *int
	ProgressSeconds *int

	ReportPath    *string
	LogFile       *string
	LogRotateSize *string
}

func registerFlags(fs *flag.FlagSet, f *cliFlags) {
	f.ConfigPath = fs.String("config", "", "Path to a JSON configuration file.")
	f.LogLevel = fs.String("log-level", "info", "Set the logging level: 'debug', 'notice', 'info', 'warn', 'error'.")
	f.Quiet = fs.Bool("quiet", false, "Suppress everything below warnings, including the per-task start and finish lines.")
	f.Version = fs.Bool("version", false, "Print the application version and exit.")

	f.Workers = fs.Int("workers", 0, "Number of worker goroutines running copy tasks.")
	f.RetryWaitMillis = fs.Int("retry-wait-ms", 0, "Milliseconds to wait before retrying an open that hit the file descriptor limit.")
	f.ProgressSeconds = fs.Int("progress-seconds", 0, "Interval in seconds between progress summaries (0 disables them).")

	f.ReportPath = fs.String("report", "", "Write a per-task report as JSON lines. A '.gz' or '.zst' suffix compresses it.")
	f.LogFile = fs.String("log-file", "", "Additionally write all log records to this file.")
	f.LogRotateSize = fs.String("log-rotate-size", "", "Rotate the log file once it reaches this size (e.g. '10MB').")
}

// Parse parses the provided arguments (usually os.Args[1:]) and returns the
// command and a map holding only the flags the user set. For Copy, the map
// also holds the two positional arguments under "source" and "destination".
// Flags must precede the positional arguments.
func Parse(args []string) (Command, map[string]any, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet(buildinfo.Name, flag.ContinueOnError)
	registerFlags(fs, f)
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return None, nil, nil
		}
		return None, nil, err
	}

	if *f.Version {
		return Version, nil, nil
	}

	positional := fs.Args()
	if len(positional) != 2 {
		fs.Usage()
		return None, nil, fmt.Errorf("%w: expected <source> <destination>, got %d argument(s)", ErrUsage, len(positional))
	}

	flagMap := flagsToMap(fs, f)
	flagMap["source"] = positional[0]
	flagMap["destination"] = positional[1]
	return Copy, flagMap, nil
}

func flagsToMap(fs *flag.FlagSet, f *cliFlags) map[string]any {
	// Only flags the user explicitly set override the loaded configuration.
	usedFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { usedFlags[f.Name] = true })

	flagMap := make(map[string]any)

	addIfUsed(flagMap, usedFlags, "config", f.ConfigPath)
	addIfUsed(flagMap, usedFlags, "log-level", f.LogLevel)
	addIfUsed(flagMap, usedFlags, "quiet", f.Quiet)

	addIfUsed(flagMap, usedFlags, "workers", f.Workers)
	addIfUsed(flagMap, usedFlags, "retry-wait-ms", f.RetryWaitMillis)
	addIfUsed(flagMap, usedFlags, "progress-seconds", f.ProgressSeconds)

	addIfUsed(flagMap, usedFlags, "report", f.ReportPath)
	addIfUsed(flagMap, usedFlags, "log-file", f.LogFile)
	addIfUsed(flagMap, usedFlags, "log-rotate-size", f.LogRotateSize)

	return flagMap
}

// addIfUsed adds the value of ptr to flagMap if ptr is not nil and the flag was set.
func addIfUsed[T any](flagMap map[string]any, usedFlags map[string]bool, name string, ptr *T) {
	if ptr != nil && usedFlags[name] {
		flagMap[name] = *ptr
	}
}

func printUsage(fs *flag.FlagSet) {
	execName := filepath.Base(os.Args[0])
	fmt.Fprintf(fs.Output(), "%s(%s) ", buildinfo.Name, buildinfo.Version)
	fmt.Fprintf(fs.Output(), "Copies a directory tree concurrently, one task per directory and file.\n\n")
	fmt.Fprintf(fs.Output(), "Usage: %s [flags] <source> <destination>\n", execName)
	fmt.Fprintf(fs.Output(), "       %s -version\n\n", execName)
	fmt.Fprintf(fs.Output(), "A directory source is copied to <destination>/<name of source>.\n\n")
	fmt.Fprintf(fs.Output(), "Flags:\n")
	fs.PrintDefaults()
}
