package treecopy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_FanOutFromTasks(t *testing.T) {
	var ran atomic.Int64
	var s *scheduler
	var nextID atomic.Uint64

	// Each task with depth < 4 spawns three children: 1 + 3 + 9 + 27 + 81 tasks.
	s = newScheduler(func(ctx context.Context, task Task) {
		ran.Add(1)
		depth := int(task.Arg.Source[0] - '0')
		if depth >= 4 {
			return
		}
		for range 3 {
			child := Task{ID: nextID.Add(1), ParentID: task.ID, Arg: Argument{Source: string(rune('0' + depth + 1))}}
			if err := s.submit(child); err != nil {
				t.Errorf("unexpected submit error: %v", err)
			}
		}
	}, func(Task) { t.Error("no task should be dropped") })

	s.start(context.Background(), 2)
	if err := s.submit(Task{ID: nextID.Add(1), Arg: Argument{Source: "0"}}); err != nil {
		t.Fatalf("failed to submit root: %v", err)
	}
	if err := s.wait(); err != nil {
		t.Fatalf("wait returned error: %v", err)
	}

	if got := ran.Load(); got != 121 {
		t.Errorf("expected 121 tasks to run, got %d", got)
	}
}

func TestScheduler_ParentDoesNotWaitForChildren(t *testing.T) {
	var s *scheduler
	parentDone := make(chan struct{})
	childSawParentDone := make(chan bool, 1)

	s = newScheduler(func(ctx context.Context, task Task) {
		if task.ID == 1 {
			_ = s.submit(Task{ID: 2, ParentID: 1})
			close(parentDone)
			return
		}
		select {
		case <-parentDone:
			childSawParentDone <- true
		case <-time.After(5 * time.Second):
			childSawParentDone <- false
		}
	}, func(Task) {})

	// A single worker can only run the child after the parent returned.
	s.start(context.Background(), 1)
	_ = s.submit(Task{ID: 1})
	if err := s.wait(); err != nil {
		t.Fatalf("wait returned error: %v", err)
	}
	if !<-childSawParentDone {
		t.Error("expected the parent to finish without waiting for its child")
	}
}

func TestScheduler_DropsQueuedTasksOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var executed, dropped []uint64
	var s *scheduler
	s = newScheduler(func(ctx context.Context, task Task) {
		mu.Lock()
		executed = append(executed, task.ID)
		mu.Unlock()
		if task.ID == 1 {
			for id := uint64(2); id <= 10; id++ {
				_ = s.submit(Task{ID: id, ParentID: 1})
			}
			cancel()
		}
	}, func(task Task) {
		mu.Lock()
		dropped = append(dropped, task.ID)
		mu.Unlock()
	})

	s.start(ctx, 1)
	_ = s.submit(Task{ID: 1})
	if err := s.wait(); err != nil {
		t.Fatalf("wait returned error: %v", err)
	}

	if len(executed) != 1 || executed[0] != 1 {
		t.Errorf("expected only the root to execute, got %v", executed)
	}
	if len(dropped) != 9 {
		t.Errorf("expected 9 dropped tasks, got %d (%v)", len(dropped), dropped)
	}
}

func TestScheduler_SubmitAfterWait(t *testing.T) {
	s := newScheduler(func(context.Context, Task) {}, func(Task) {})
	s.start(context.Background(), 1)
	_ = s.submit(Task{ID: 1})
	if err := s.wait(); err != nil {
		t.Fatalf("wait returned error: %v", err)
	}
	if err := s.submit(Task{ID: 2}); !errors.Is(err, ErrSchedulerClosed) {
		t.Errorf("expected ErrSchedulerClosed, got: %v", err)
	}
}
