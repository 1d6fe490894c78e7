package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/paulschiretz/pgl-treecopy/pkg/buildinfo"
	"github.com/paulschiretz/pgl-treecopy/pkg/config"
	"github.com/paulschiretz/pgl-treecopy/pkg/plog"
	"github.com/paulschiretz/pgl-treecopy/pkg/taskreport"
	"github.com/paulschiretz/pgl-treecopy/pkg/treecopy"
)

// RunCopy handles the logic for the tree copy.
//
// It returns an error only when the copy could not start. Once the root task
// is launched, failed tasks are logged and reported but do not fail the run.
func RunCopy(ctx context.Context, flagMap map[string]any) error {
	startTime := time.Now()

	configPath, _ := flagMap["config"].(string)
	loadedConfig, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Merge the flag values over the loaded config to get the final run config.
	runConfig := config.MergeConfigWithFlags(loadedConfig, flagMap)
	if err := runConfig.Validate(); err != nil {
		return err
	}

	plog.SetLevel(plog.LevelFromString(runConfig.LogLevel))
	plog.SetQuiet(runConfig.Quiet)

	if runConfig.Log.File != "" {
		rotateMB, err := runConfig.Log.RotateSizeMB()
		if err != nil {
			return err
		}
		logFile := plog.SetLogFile(runConfig.Log.File, rotateMB, runConfig.Log.MaxBackups)
		defer func() {
			plog.SetLogFile("", 0, 0)
			_ = logFile.Close()
		}()
	}

	runConfig.LogSummary()

	copier := treecopy.NewCopier(treecopy.Options{
		Workers:          runConfig.Engine.Workers,
		RetryWait:        runConfig.Engine.RetryWait(),
		ProgressInterval: runConfig.Engine.ProgressInterval(),
	})

	report, err := copier.Run(ctx, runConfig.Source, runConfig.Destination)
	if err != nil {
		return err // The error will be logged with full details by main()
	}

	if runConfig.Report.Path != "" {
		if err := taskreport.Write(runConfig.Report.Path, report); err != nil {
			plog.Warn("Failed to write task report", "path", runConfig.Report.Path, "error", err)
		} else {
			plog.Info("Task report written", "path", runConfig.Report.Path, "format", taskreport.FormatForPath(runConfig.Report.Path))
		}
	}

	logFailures(report)

	duration := time.Since(startTime).Round(time.Millisecond)
	if report.Failed > 0 || report.Canceled > 0 {
		plog.Warn(buildinfo.Name+" finished with failed tasks.", "duration", duration, "failed", report.Failed, "canceled", report.Canceled)
		return nil
	}
	plog.Info(buildinfo.Name+" finished successfully.", "duration", duration)
	return nil
}

// logFailures logs one summary of every failed task.
func logFailures(report *treecopy.Report) {
	allErrors := multierr.Errors(report.Err())
	if len(allErrors) == 0 {
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d tasks failed during the copy:\n", len(allErrors)))
	for _, err := range allErrors {
		sb.WriteString(fmt.Sprintf("  - %v\n", err))
	}
	plog.Warn(sb.String())
}
