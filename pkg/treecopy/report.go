package treecopy

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Report is the aggregated outcome of one run: every task's result slot in
// task id order, plus totals.
type Report struct {
	RunID       uuid.UUID `json:"runId"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`

	Tasks       int   `json:"tasks"`
	Directories int   `json:"directories"`
	Files       int   `json:"files"`
	Failed      int   `json:"failed"`
	Canceled    int   `json:"canceled"`
	Skipped     int   `json:"skipped"`
	BytesCopied int64 `json:"bytesCopied"`

	Results []Result `json:"-"`
}

func newReport(runID uuid.UUID, root Argument, started, finished time.Time, results []Result) *Report {
	slices.SortFunc(results, func(a, b Result) int { return cmp.Compare(a.ID, b.ID) })

	rep := &Report{
		RunID:       runID,
		Source:      root.Source,
		Destination: root.Destination,
		Started:     started,
		Finished:    finished,
		Tasks:       len(results),
		Results:     results,
	}
	for _, res := range results {
		switch res.Kind {
		case DirectoryTask:
			rep.Directories++
		case FileTask:
			rep.Files++
		}
		switch res.Status {
		case StatusFailed:
			rep.Failed++
		case StatusCanceled:
			rep.Canceled++
		}
		rep.Skipped += res.Skipped
		rep.BytesCopied += res.BytesCopied
	}
	return rep
}

// Err combines the errors of all failed tasks, or returns nil when none failed.
func (r *Report) Err() error {
	var err error
	for _, res := range r.Results {
		if res.Status != StatusFailed {
			continue
		}
		err = multierr.Append(err, fmt.Errorf("task %d (%s %s): %w", res.ID, res.Kind, res.Source, res.Err))
	}
	return err
}
