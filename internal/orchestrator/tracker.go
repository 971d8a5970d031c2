package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrDependencyDeadlock indicates a task's dependency can never reach
// completed: it failed, was cancelled, or is not scheduled at all.
// Dependents are reported with this error instead of hanging.
var ErrDependencyDeadlock = errors.New("dependency can never complete")

// completionTracker is the shared completed-id set for a batch. Waiters
// block on a condition variable and are woken by broadcast whenever a
// task lands in a terminal state; there is no polling interval.
type completionTracker struct {
	mu   sync.Mutex
	cond *sync.Cond
	// completed holds ids whose tasks reached completed. Only these
	// satisfy dependents.
	completed map[string]bool
	// dead holds ids that reached a terminal state other than completed.
	dead map[string]bool
	// scheduled holds every id that may still complete: batch members
	// plus ids already known complete.
	scheduled map[string]bool
}

// newCompletionTracker creates a tracker over the given scheduled ids.
func newCompletionTracker(scheduled []string) *completionTracker {
	t := &completionTracker{
		completed: make(map[string]bool),
		dead:      make(map[string]bool),
		scheduled: make(map[string]bool),
	}
	t.cond = sync.NewCond(&t.mu)
	for _, id := range scheduled {
		t.scheduled[id] = true
	}
	return t
}

// markCompleted records a successful terminal state and wakes waiters.
func (t *completionTracker) markCompleted(id string) {
	t.mu.Lock()
	t.completed[id] = true
	t.scheduled[id] = true
	t.mu.Unlock()
	t.cond.Broadcast()
}

// markDead records a failed or cancelled terminal state and wakes waiters.
func (t *completionTracker) markDead(id string) {
	t.mu.Lock()
	t.dead[id] = true
	t.mu.Unlock()
	t.cond.Broadcast()
}

// await blocks until every dependency is completed. It returns
// ErrDependencyDeadlock as soon as any dependency can no longer
// complete, and the context error if ctx is cancelled first.
func (t *completionTracker) await(ctx context.Context, deps []string) error {
	if len(deps) == 0 {
		return nil
	}

	// Wake waiters when the context is cancelled; cond.Wait cannot
	// observe ctx on its own. The broadcast runs under t.mu so it cannot
	// slip between a waiter's ctx check and its cond.Wait registration.
	stop := context.AfterFunc(ctx, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.cond.Broadcast()
	})
	defer stop()

	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		pending := false
		for _, dep := range deps {
			if t.completed[dep] {
				continue
			}
			if t.dead[dep] {
				return fmt.Errorf("dependency %s: %w", dep, ErrDependencyDeadlock)
			}
			if !t.scheduled[dep] {
				return fmt.Errorf("dependency %s is not scheduled: %w", dep, ErrDependencyDeadlock)
			}
			pending = true
		}
		if !pending {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		t.cond.Wait()
	}
}
