package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/paulschiretz/pgl-treecopy/pkg/buildinfo"
	"github.com/paulschiretz/pgl-treecopy/pkg/plog"
	"github.com/paulschiretz/pgl-treecopy/pkg/taskreport"
	"github.com/paulschiretz/pgl-treecopy/pkg/treecopy"
	"github.com/paulschiretz/pgl-treecopy/pkg/util"
)

// ConfigFileName is looked up in the working directory when no -config flag is given.
const ConfigFileName = "pgl-treecopy.config.json"

var validLogLevels = map[string]bool{
	"debug":  true,
	"info":   true,
	"notice": true,
	"warn":   true,
	"error":  true,
}

type EngineConfig struct {
	Workers         int `json:"workers"`
	RetryWaitMillis int `json:"retryWaitMillis" comment:"Wait between attempts when the process is out of file descriptors."`
	ProgressSeconds int `json:"progressSeconds" comment:"Interval of the periodic progress summary. 0 disables it."`
}

type ReportConfig struct {
	// Path of the per-task report. Empty disables the report.
	Path string `json:"path"`
}

type LogConfig struct {
	File       string `json:"file"`
	RotateSize string `json:"rotateSize"`
	MaxBackups int    `json:"maxBackups"`
}

type Config struct {
	Version     string       `json:"version"`
	Source      string       `json:"-"` // Never read from the config file
	Destination string       `json:"-"` // Never read from the config file
	LogLevel    string       `json:"logLevel"`
	Quiet       bool         `json:"quiet"`
	Engine      EngineConfig `json:"engine"`
	Report      ReportConfig `json:"report"`
	Log         LogConfig    `json:"log"`
}

// NewDefault creates and returns a Config struct with sensible default values.
func NewDefault() Config {
	return Config{
		Version:  buildinfo.Version,
		LogLevel: "info",
		Quiet:    false,
		Engine: EngineConfig{
			Workers:         treecopy.DefaultWorkers,
			RetryWaitMillis: 1000, // One second, matching the classic EMFILE back-off.
			ProgressSeconds: 0,
		},
		Log: LogConfig{
			RotateSize: "100MB",
			MaxBackups: 3,
		},
	}
}

// Load reads the configuration at path on top of the defaults.
// An empty path looks for ConfigFileName in the working directory and falls
// back to the defaults when it is absent. An explicit path must exist; a
// leading ~ is expanded to the home directory.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = ConfigFileName
	}
	path, err := util.ExpandPath(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not expand config path: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return NewDefault(), nil // No config file is the normal case.
		}
		return Config{}, fmt.Errorf("error opening config file %s: %w", path, err)
	}
	defer file.Close()

	plog.Info("Loading configuration", "path", path)
	// Start with default values so missing fields in the file keep their defaults.
	config := NewDefault()
	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	config.Version = buildinfo.Version
	return config, nil
}

// Validate checks the configuration for logical errors and inconsistencies.
// It also expands a leading ~ in the source, destination, report and log paths.
func (c *Config) Validate() error {
	if c.Source == "" {
		return errors.New("source path cannot be empty")
	}
	if c.Destination == "" {
		return errors.New("destination path cannot be empty")
	}

	// Expand paths for canonical representation before use.
	var err error
	if c.Source, err = util.ExpandPath(c.Source); err != nil {
		return fmt.Errorf("could not expand source path: %w", err)
	}
	if c.Destination, err = util.ExpandPath(c.Destination); err != nil {
		return fmt.Errorf("could not expand destination path: %w", err)
	}
	if c.Report.Path, err = util.ExpandPath(c.Report.Path); err != nil {
		return fmt.Errorf("could not expand report path: %w", err)
	}
	if c.Log.File, err = util.ExpandPath(c.Log.File); err != nil {
		return fmt.Errorf("could not expand log file path: %w", err)
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %q. Must be 'debug', 'info', 'notice', 'warn', or 'error'", c.LogLevel)
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Engine.Workers)
	}
	if c.Engine.RetryWaitMillis < 0 {
		return fmt.Errorf("retryWaitMillis cannot be negative, got %d", c.Engine.RetryWaitMillis)
	}
	if c.Engine.ProgressSeconds < 0 {
		return fmt.Errorf("progressSeconds cannot be negative, got %d", c.Engine.ProgressSeconds)
	}
	if c.Log.MaxBackups < 0 {
		return fmt.Errorf("log maxBackups cannot be negative, got %d", c.Log.MaxBackups)
	}
	if c.Log.File != "" {
		if _, err := c.Log.RotateSizeMB(); err != nil {
			return err
		}
	}
	return nil
}

// RotateSizeMB converts RotateSize into whole megabytes, rounding up.
// An empty size returns 0, which leaves the rotation size to the log writer's default.
func (l LogConfig) RotateSizeMB() (int, error) {
	if l.RotateSize == "" {
		return 0, nil
	}
	size, err := humanize.ParseBytes(l.RotateSize)
	if err != nil {
		return 0, fmt.Errorf("invalid log rotate size %q: %w", l.RotateSize, err)
	}
	if size == 0 {
		return 0, fmt.Errorf("log rotate size must be greater than zero, got %q", l.RotateSize)
	}
	const mb = 1024 * 1024
	return int((size + mb - 1) / mb), nil
}

// RetryWait returns the descriptor retry interval as a duration.
func (e EngineConfig) RetryWait() time.Duration {
	return time.Duration(e.RetryWaitMillis) * time.Millisecond
}

// ProgressInterval returns the progress summary interval as a duration.
func (e EngineConfig) ProgressInterval() time.Duration {
	return time.Duration(e.ProgressSeconds) * time.Second
}

// LogSummary logs the effective configuration of the run.
func (c *Config) LogSummary() {
	logArgs := []any{
		"log_level", c.LogLevel,
		"source", c.Source,
		"destination", c.Destination,
		"workers", c.Engine.Workers,
		"retry_wait", c.Engine.RetryWait(),
	}
	if c.Engine.ProgressSeconds > 0 {
		logArgs = append(logArgs, "progress", c.Engine.ProgressInterval())
	}
	if c.Report.Path != "" {
		logArgs = append(logArgs, "report", fmt.Sprintf("%s (f:%s)", c.Report.Path, taskreport.FormatForPath(c.Report.Path)))
	}
	if c.Log.File != "" {
		logArgs = append(logArgs, "log_file", fmt.Sprintf("%s (rotate:%s keep:%d)", c.Log.File, c.Log.RotateSize, c.Log.MaxBackups))
	}
	plog.Info("Configuration loaded", logArgs...)
}

// MergeConfigWithFlags overlays the configuration values from flags on top of a base
// configuration. It iterates over the setFlags map, which contains only the flags
// explicitly provided by the user on the command line.
func MergeConfigWithFlags(base Config, setFlags map[string]any) Config {
	merged := base

	for name, value := range setFlags {
		switch name {
		case "source":
			merged.Source = value.(string)
		case "destination":
			merged.Destination = value.(string)
		case "log-level":
			merged.LogLevel = value.(string)
		case "quiet":
			merged.Quiet = value.(bool)
		case "workers":
			merged.Engine.Workers = value.(int)
		case "retry-wait-ms":
			merged.Engine.RetryWaitMillis = value.(int)
		case "progress-seconds":
			merged.Engine.ProgressSeconds = value.(int)
		case "report":
			merged.Report.Path = value.(string)
		case "log-file":
			merged.Log.File = value.(string)
		case "log-rotate-size":
			merged.Log.RotateSize = value.(string)
		case "config":
			// Consumed by Load.
		default:
			plog.Debug("unhandled flag in MergeConfigWithFlags", "flag", name)
		}
	}
	return merged
}
