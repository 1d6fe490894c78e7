package treecopy

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

func sampleResults() []Result {
	return []Result{
		{ID: 3, ParentID: 1, Kind: FileTask, Source: "/s/b.txt", Status: StatusFailed, Err: errors.New("permission denied"), Error: "permission denied"},
		{ID: 1, Kind: DirectoryTask, Source: "/s", Status: StatusOK, Spawned: 3, Skipped: 2},
		{ID: 4, ParentID: 1, Kind: DirectoryTask, Source: "/s/sub", Status: StatusCanceled},
		{ID: 2, ParentID: 1, Kind: FileTask, Source: "/s/a.txt", Status: StatusOK, BytesCopied: 5000},
		{ID: 5, ParentID: 4, Kind: FileTask, Source: "/s/sub/c.txt", Status: StatusFailed, Err: io.ErrShortWrite, Error: io.ErrShortWrite.Error()},
	}
}

func TestNewReport_Totals(t *testing.T) {
	started := time.Now()
	rep := newReport(uuid.New(), Argument{Source: "/s", Destination: "/d/s"}, started, started.Add(time.Second), sampleResults())

	tests := []struct {
		name      string
		got, want int64
	}{
		{"Tasks", int64(rep.Tasks), 5},
		{"Directories", int64(rep.Directories), 2},
		{"Files", int64(rep.Files), 3},
		{"Failed", int64(rep.Failed), 2},
		{"Canceled", int64(rep.Canceled), 1},
		{"Skipped", int64(rep.Skipped), 2},
		{"BytesCopied", rep.BytesCopied, 5000},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("expected %s to be %d, got %d", tc.name, tc.want, tc.got)
		}
	}
	if !rep.Finished.Equal(started.Add(time.Second)) {
		t.Errorf("expected the finish time to be kept, got %v", rep.Finished)
	}
	for i, res := range rep.Results {
		if res.ID != uint64(i+1) {
			t.Fatalf("expected results sorted by id, position %d has id %d", i, res.ID)
		}
	}
}

func TestReport_Err(t *testing.T) {
	t.Run("aggregates every failure", func(t *testing.T) {
		rep := newReport(uuid.New(), Argument{}, time.Now(), time.Now(), sampleResults())

		err := rep.Err()
		if err == nil {
			t.Fatal("expected an aggregated error")
		}
		errs := multierr.Errors(err)
		if len(errs) != 2 {
			t.Fatalf("expected 2 combined errors, got %d: %v", len(errs), err)
		}
		if !strings.Contains(errs[0].Error(), "task 3 (copy_file /s/b.txt): permission denied") {
			t.Errorf("unexpected first error: %v", errs[0])
		}
		if !errors.Is(errs[1], io.ErrShortWrite) {
			t.Errorf("unexpected second error: %v", errs[1])
		}
	})

	t.Run("nil when nothing failed", func(t *testing.T) {
		rep := newReport(uuid.New(), Argument{}, time.Now(), time.Now(), []Result{{ID: 1, Status: StatusOK}})
		if err := rep.Err(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

func TestTaskKind_JSON(t *testing.T) {
	testCases := []struct {
		kind TaskKind
		want string
	}{
		{DirectoryTask, `"copy_directory"`},
		{FileTask, `"copy_file"`},
		{TaskKind(7), `"unknown_task_kind(7)"`},
	}
	for _, tc := range testCases {
		data, err := tc.kind.MarshalJSON()
		if err != nil {
			t.Fatalf("marshal %v: %v", tc.kind, err)
		}
		if string(data) != tc.want {
			t.Errorf("expected %s, got %s", tc.want, data)
		}
	}
}
