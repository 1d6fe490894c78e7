// Package treecopy duplicates a directory tree using one task per entry.
//
// --- ARCHITECTURAL OVERVIEW ---
//
// Every directory and regular file below the source becomes its own task:
//
//  1. Directory tasks (`copyDirectory`) create their destination directory,
//     read the source directory once and submit a new task for every child.
//     They never wait for those children.
//  2. File tasks (`copyFile`) stream one file in fixed 4096-byte chunks.
//
// Tasks run on a fixed pool of workers fed by an unbounded queue, so fan-out
// is never limited by the pool size. `Copier.Run` seeds the root task and
// blocks on the scheduler's completion barrier; when it returns, every task
// that was ever submitted has finished.
//
// Failures stay local to the task that hit them. Each task publishes exactly
// one Result, and the Report collects them once the tree is done;
// Report.Err combines the failures for the caller.
//
// Descriptor acquisition goes through an fdretry.Policy, so running out of
// file descriptors makes tasks wait instead of fail. A file task opens its
// source and destination as one unit and holds neither while it waits.
package treecopy

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/paulschiretz/pgl-treecopy/pkg/fdretry"
	"github.com/paulschiretz/pgl-treecopy/pkg/plog"
	"github.com/paulschiretz/pgl-treecopy/pkg/pool"
	"github.com/paulschiretz/pgl-treecopy/pkg/preflight"
	"github.com/paulschiretz/pgl-treecopy/pkg/sharded"
)

const (
	// DefaultWorkers is the worker pool size used when none is configured.
	DefaultWorkers = 16

	chunkSize      = 4096
	defaultNameMax = 255
	readDirBatch   = 128

	minPathScratch = 256
	maxPathScratch = 8192
)

// Options configures a Copier.
type Options struct {
	Workers          int
	RetryWait        time.Duration
	ProgressInterval time.Duration
	// Metrics receives the counters of every run. Nil means a fresh CopyMetrics per run.
	Metrics Metrics
}

// Copier runs tree copies. A Copier may be reused for several runs.
type Copier struct {
	opts      Options
	chunkPool *pool.FixedBufferPool
	pathPool  *pool.BucketedBufferPool
}

// NewCopier returns a Copier. Non-positive worker counts fall back to DefaultWorkers.
func NewCopier(opts Options) *Copier {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Copier{
		opts:      opts,
		chunkPool: pool.NewFixedBufferPool(chunkSize),
		pathPool:  pool.NewBucketedBufferPool(minPathScratch, maxPathScratch),
	}
}

// run holds the state of one tree copy.
type run struct {
	id        uuid.UUID
	retry     *fdretry.Policy
	metrics   Metrics
	sched     *scheduler
	chunkPool *pool.FixedBufferPool
	pathPool  *pool.BucketedBufferPool

	lastID atomic.Uint64

	// results holds one slot per task, keyed by task id.
	results *sharded.Map[uint64, Result]
}

func (r *run) nextID() uint64 {
	return r.lastID.Add(1)
}

// Run copies source into destination.
//
// The destination directory is created first. A directory source is then
// copied to destination/<base name of source>; any other source is handed to
// the root task with the destination unchanged. The root task is always a
// directory task.
//
// The returned error is non-nil only when the run could not start. Failures
// of individual tasks are recorded in the Report.
func (c *Copier) Run(ctx context.Context, source, destination string) (*Report, error) {
	if err := preflight.CreateDestinationRoot(destination); err != nil {
		return nil, err
	}
	srcInfo, err := preflight.InspectSource(source)
	if err != nil {
		return nil, err
	}
	if err := preflight.CheckDescriptorBudget(c.opts.Workers); err != nil {
		plog.Warn("Descriptor budget check", "warning", err)
	}

	root := Argument{
		Source:      source,
		Destination: preflight.RootDestination(source, destination, srcInfo),
	}
	return c.copyTree(ctx, root)
}

func (c *Copier) copyTree(ctx context.Context, root Argument) (*Report, error) {
	runID, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	metrics := c.opts.Metrics
	if metrics == nil {
		metrics = &CopyMetrics{}
	}

	r := &run{
		id:        runID,
		metrics:   metrics,
		chunkPool: c.chunkPool,
		pathPool:  c.pathPool,
		results:   sharded.NewMap[uint64, Result](sharded.DefaultShards),
	}
	r.retry = fdretry.New(c.opts.RetryWait, fdretry.WithOnRetry(func(uint, error) {
		metrics.AddRetries(1)
	}))
	r.sched = newScheduler(r.execute, r.drop)

	plog.Info("Starting tree copy", "run", runID, "from", root.Source, "to", root.Destination, "workers", c.opts.Workers)
	metrics.StartProgress("Copy progress", c.opts.ProgressInterval)
	started := time.Now()

	r.sched.start(ctx, c.opts.Workers)
	rootTask := Task{ID: r.nextID(), Kind: DirectoryTask, Arg: root}
	if err := r.sched.submit(rootTask); err != nil {
		_ = r.sched.wait()
		metrics.StopProgress()
		return nil, fmt.Errorf("failed to launch root task: %w", err)
	}
	metrics.AddTasksSpawned(1)

	// Completion barrier: returns once the root and every task spawned below it are done.
	err = r.sched.wait()
	metrics.StopProgress()
	if err != nil {
		return nil, err
	}

	report := newReport(runID, root, started, time.Now(), r.results.Values())
	metrics.LogSummary("Copy finished")
	return report, nil
}

// execute runs one task and publishes its result slot.
func (r *run) execute(ctx context.Context, t Task) {
	res := newResult(t)
	res.Started = time.Now()

	var err error
	switch t.Kind {
	case DirectoryTask:
		err = r.copyDirectory(ctx, t, &res)
	case FileTask:
		err = r.copyFile(ctx, t, &res)
	default:
		err = fmt.Errorf("unknown task kind %v", t.Kind)
	}
	res.finish(err)

	if err != nil {
		r.metrics.AddTasksFailed(1)
		plog.Error(t.Kind.String()+" failed", "task", t.ID, "src", t.Arg.Source, "error", err)
	}
	r.results.Store(t.ID, res)
}

// drop records a task that was dequeued after the run was canceled.
func (r *run) drop(t Task) {
	now := time.Now()
	res := newResult(t)
	res.Started = now
	res.Finished = now
	res.Status = StatusCanceled
	r.metrics.AddTasksCanceled(1)
	r.results.Store(t.ID, res)
}
