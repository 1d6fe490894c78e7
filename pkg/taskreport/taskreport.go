// Package taskreport persists the per-task results of a tree copy as JSON lines.
//
// The first line holds the run totals (treecopy.Report without its results),
// every following line holds one treecopy.Result in task id order. The file
// can be compressed with parallel gzip or zstd, chosen by its suffix.
package taskreport

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"

	"github.com/paulschiretz/pgl-treecopy/pkg/treecopy"
	"github.com/paulschiretz/pgl-treecopy/pkg/util"
)

// Write stores rep at path. The file is written to a temp file next to path
// and renamed into place once complete.
func Write(path string, rep *treecopy.Report) (retErr error) {
	if rep == nil {
		return errors.New("cannot write an empty report")
	}
	format := FormatForPath(path)

	targetF, err := os.CreateTemp(filepath.Dir(path), "pgl-treecopy-report-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp report file: %w", err)
	}
	tempName := targetF.Name()

	// Ensure cleanup on error
	defer func() {
		if retErr != nil {
			targetF.Close()
			os.Remove(tempName)
		}
	}()

	if err := encode(targetF, format, rep); err != nil {
		return err
	}
	if err := targetF.Chmod(util.ReportFilePerms); err != nil {
		return fmt.Errorf("failed to set report permissions: %w", err)
	}
	if err := targetF.Close(); err != nil {
		return fmt.Errorf("failed to close temp report file: %w", err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("failed to rename temp report to %s: %w", path, err)
	}
	return nil
}

func encode(w io.Writer, format Format, rep *treecopy.Report) (retErr error) {
	bufWriter := bufio.NewWriter(w)

	var compressedWriter io.WriteCloser
	switch format {
	case JSONLZst:
		zstdWriter, err := zstd.NewWriter(bufWriter)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		compressedWriter = zstdWriter
	case JSONLGz:
		compressedWriter = pgzip.NewWriter(bufWriter)
	default:
		compressedWriter = nopWriteCloser{bufWriter}
	}

	defer func() {
		if err := compressedWriter.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("compressed writer close failed: %w", err)
		}
		if err := bufWriter.Flush(); err != nil && retErr == nil {
			retErr = fmt.Errorf("buffer flush failed: %w", err)
		}
	}()

	enc := json.NewEncoder(compressedWriter)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode report header: %w", err)
	}
	for _, res := range rep.Results {
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode result of task %d: %w", res.ID, err)
		}
	}
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
