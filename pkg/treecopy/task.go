package treecopy

import (
	"encoding/json"
	"fmt"
	"time"
)

// Argument names one source entry and the destination path it is copied to.
// It is passed by value so every task owns its own copy.
type Argument struct {
	Source      string
	Destination string
}

// TaskKind selects what a task does with its Argument.
type TaskKind int

const (
	DirectoryTask TaskKind = iota
	FileTask
)

var taskKindToString = map[TaskKind]string{
	DirectoryTask: "copy_directory",
	FileTask:      "copy_file",
}

func (k TaskKind) String() string {
	if str, ok := taskKindToString[k]; ok {
		return str
	}
	return fmt.Sprintf("unknown_task_kind(%d)", int(k))
}

func (k TaskKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Task is one unit of work in the scheduler queue.
type Task struct {
	ID       uint64
	ParentID uint64 // 0 for the root task
	Kind     TaskKind
	Arg      Argument
}

// Status is the terminal state of a task.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Result is the per-task result slot. It is written once, by the task that owns it.
type Result struct {
	ID          uint64    `json:"id"`
	ParentID    uint64    `json:"parentId,omitempty"`
	Kind        TaskKind  `json:"kind"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Status      Status    `json:"status"`
	Err         error     `json:"-"`
	Error       string    `json:"error,omitempty"`
	BytesCopied int64     `json:"bytesCopied,omitempty"`
	Spawned     int       `json:"spawned,omitempty"`
	Skipped     int       `json:"skipped,omitempty"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
}

func newResult(t Task) Result {
	return Result{
		ID:          t.ID,
		ParentID:    t.ParentID,
		Kind:        t.Kind,
		Source:      t.Arg.Source,
		Destination: t.Arg.Destination,
	}
}

// finish stamps the terminal status derived from err.
func (r *Result) finish(err error) {
	r.Finished = time.Now()
	r.Err = err
	if err == nil {
		r.Status = StatusOK
		return
	}
	r.Status = StatusFailed
	r.Error = err.Error()
}
