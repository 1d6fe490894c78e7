package treecopy

import (
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/paulschiretz/pgl-treecopy/pkg/plog"
)

// Metrics defines the interface for collecting and reporting copy statistics.
type Metrics interface {
	AddTasksSpawned(n int64)
	AddTasksFailed(n int64)
	AddTasksCanceled(n int64)
	AddDirsCreated(n int64)
	AddFilesCopied(n int64)
	AddBytesCopied(n int64)
	AddEntriesSkipped(n int64)
	AddRetries(n int64)
	LogSummary(msg string)

	StartProgress(msg string, interval time.Duration)
	StopProgress()
}

// CopyMetrics holds the atomic counters for a tree copy.
type CopyMetrics struct {
	TasksSpawned   atomic.Int64
	TasksFailed    atomic.Int64
	TasksCanceled  atomic.Int64
	DirsCreated    atomic.Int64
	FilesCopied    atomic.Int64
	BytesCopied    atomic.Int64
	EntriesSkipped atomic.Int64
	Retries        atomic.Int64

	stopChan  chan struct{}
	startTime time.Time
}

func (m *CopyMetrics) AddTasksSpawned(n int64)   { m.TasksSpawned.Add(n) }
func (m *CopyMetrics) AddTasksFailed(n int64)    { m.TasksFailed.Add(n) }
func (m *CopyMetrics) AddTasksCanceled(n int64)  { m.TasksCanceled.Add(n) }
func (m *CopyMetrics) AddDirsCreated(n int64)    { m.DirsCreated.Add(n) }
func (m *CopyMetrics) AddFilesCopied(n int64)    { m.FilesCopied.Add(n) }
func (m *CopyMetrics) AddBytesCopied(n int64)    { m.BytesCopied.Add(n) }
func (m *CopyMetrics) AddEntriesSkipped(n int64) { m.EntriesSkipped.Add(n) }
func (m *CopyMetrics) AddRetries(n int64)        { m.Retries.Add(n) }

// StartProgress logs a summary every interval until StopProgress is called.
// A non-positive interval only records the start time.
func (m *CopyMetrics) StartProgress(msg string, interval time.Duration) {
	m.startTime = time.Now()
	if interval <= 0 {
		return
	}
	m.stopChan = make(chan struct{})
	ticker := time.NewTicker(interval)
	stop := m.stopChan
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.LogSummary(msg)
			case <-stop:
				return
			}
		}
	}()
}

func (m *CopyMetrics) StopProgress() {
	if m.stopChan != nil {
		close(m.stopChan)
		m.stopChan = nil
	}
}

// LogSummary logs the current counters with a custom message.
// This can be called by the progress ticker or at the end of the run.
func (m *CopyMetrics) LogSummary(msg string) {
	duration := time.Duration(0)
	if !m.startTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	plog.Info(msg,
		"tasks_spawned", m.TasksSpawned.Load(),
		"tasks_failed", m.TasksFailed.Load(),
		"tasks_canceled", m.TasksCanceled.Load(),
		"dirs_created", m.DirsCreated.Load(),
		"files_copied", m.FilesCopied.Load(),
		"bytes_copied", humanize.IBytes(uint64(m.BytesCopied.Load())),
		"entries_skipped", m.EntriesSkipped.Load(),
		"fd_retries", m.Retries.Load(),
		"duration", duration.Round(time.Millisecond),
	)
}

// Statically assert that CopyMetrics implements the interface.
var _ Metrics = (*CopyMetrics)(nil)
