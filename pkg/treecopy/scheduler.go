package treecopy

import (
	"context"
	"errors"
	"sync"

	"github.com/gammazero/deque"
	"golang.org/x/sync/errgroup"
)

// ErrSchedulerClosed is returned by submit once the run has drained.
var ErrSchedulerClosed = errors.New("scheduler is closed")

// scheduler is a fixed pool of workers fed by an unbounded FIFO queue.
//
// Submitting never blocks: a directory task may fan out any number of children
// from inside a worker without waiting for a free slot. The pending counter
// is the completion barrier. It is incremented on submit and released after
// the task ran (or was dropped on cancellation), so a parent still counts as
// pending while it submits its children and the counter can only reach zero
// once the whole tree is done.
type scheduler struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  *deque.Deque[Task]
	closed bool

	pending sync.WaitGroup
	group   errgroup.Group

	execute func(ctx context.Context, t Task)
	drop    func(t Task)
}

func newScheduler(execute func(context.Context, Task), drop func(Task)) *scheduler {
	s := &scheduler{
		queue:   deque.New[Task](),
		execute: execute,
		drop:    drop,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// start launches n workers. Tasks dequeued after ctx is canceled are dropped.
func (s *scheduler) start(ctx context.Context, n int) {
	for range n {
		s.group.Go(func() error {
			s.worker(ctx)
			return nil
		})
	}
}

func (s *scheduler) submit(t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}
	s.pending.Add(1)
	s.queue.PushBack(t)
	s.cond.Signal()
	return nil
}

func (s *scheduler) next() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.queue.Len() == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.queue.Len() == 0 {
		return Task{}, false
	}
	return s.queue.PopFront(), true
}

func (s *scheduler) worker(ctx context.Context) {
	for {
		t, ok := s.next()
		if !ok {
			return
		}
		// Anonymous Function (IIFE) for reliable defer
		func() {
			defer s.pending.Done()
			if ctx.Err() != nil {
				s.drop(t)
				return
			}
			s.execute(ctx, t)
		}()
	}
}

// wait blocks until every submitted task, including those submitted by
// other tasks, has finished. It then stops the workers.
func (s *scheduler) wait() error {
	s.pending.Wait()

	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()

	return s.group.Wait()
}
