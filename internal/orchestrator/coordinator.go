package orchestrator

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/nxtg-ai/forge/pkg/models"
)

// BatchResult is the per-task outcome of a RunBatch call. Every input
// task yields exactly one BatchResult.
type BatchResult struct {
	// TaskID identifies the task.
	TaskID string
	// Agent is the pool the task was assigned to.
	Agent models.AgentType
	// Result is the terminal result. Nil when the task never ran.
	Result *models.TaskResult
	// Err is set when the task could not be executed at all: a
	// dependency deadlock, a cancelled context, or a dispatch failure.
	Err error
}

// Deadlocked reports whether the task was blocked by a dependency that
// can never complete.
func (r BatchResult) Deadlocked() bool {
	return errors.Is(r.Err, ErrDependencyDeadlock)
}

// RunBatch executes a batch of tasks concurrently under the configured
// concurrency ceiling. A task starts only after all of its declared
// dependencies have completed; dependents wait on completion broadcasts,
// never on a poll interval. Individual failures do not abort the batch.
//
// A dependency that fails, is cancelled, or is not scheduled at all
// deadlocks its dependents; those are reported with
// ErrDependencyDeadlock instead of hanging the batch.
//
// When orchestration is disabled, tasks run strictly sequentially in
// input order and the ceiling is ignored.
func (o *Orchestrator) RunBatch(ctx context.Context, tasks []*models.Task) []BatchResult {
	results := make([]BatchResult, len(tasks))

	// Admit everything up front so cancels, stats, and workload queries
	// observe the whole batch.
	for i, task := range tasks {
		results[i] = BatchResult{TaskID: task.ID, Agent: task.AssignedAgent}
		if o.dispatcher.GetTask(task.ID) == nil && o.dispatcher.HistoryTask(task.ID) == nil {
			if err := o.admit(task); err != nil {
				results[i].Err = err
			}
		}
		results[i].Agent = task.AssignedAgent
	}

	if !o.cfg.Orchestration.Enabled {
		o.logger.Warnf("orchestration disabled, executing %d tasks sequentially", len(tasks))
		o.runSequential(ctx, tasks, results)
		return results
	}

	scheduled := o.completedSnapshot()
	for _, task := range tasks {
		scheduled = append(scheduled, task.ID)
	}
	tracker := newCompletionTracker(scheduled)
	for _, id := range o.completedSnapshot() {
		tracker.markCompleted(id)
	}

	sem := semaphore.NewWeighted(int64(o.cfg.Orchestration.MaxParallel))

	var wg sync.WaitGroup
	for i, task := range tasks {
		if results[i].Err != nil {
			tracker.markDead(task.ID)
			continue
		}

		wg.Add(1)
		go func(i int, task *models.Task) {
			defer wg.Done()
			results[i] = o.runGated(ctx, task, tracker, sem)
		}(i, task)
	}
	wg.Wait()

	return results
}

// runGated executes one batch member: dependency gate first, then a
// concurrency slot, then the dispatcher. The gate is waited on without
// holding a slot so blocked tasks never starve runnable ones.
func (o *Orchestrator) runGated(ctx context.Context, task *models.Task, tracker *completionTracker, sem *semaphore.Weighted) BatchResult {
	res := BatchResult{TaskID: task.ID, Agent: task.AssignedAgent}

	if err := tracker.await(ctx, task.Dependencies); err != nil {
		tracker.markDead(task.ID)
		if errors.Is(err, ErrDependencyDeadlock) {
			o.logger.Errorf("task %s deadlocked: %v", task.ID, err)
			o.emitter.Emit(Event{Type: EventTaskDeadlocked, TaskID: task.ID, Agent: task.AssignedAgent, Detail: err.Error()})
			// The task can never run; retire its queued record.
			o.Cancel(task.ID)
		}
		res.Err = err
		return res
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		tracker.markDead(task.ID)
		res.Err = err
		return res
	}
	defer sem.Release(1)

	result, err := o.ExecuteTask(ctx, task)
	if err != nil {
		tracker.markDead(task.ID)
		res.Err = err
		return res
	}

	if result.Succeeded() {
		tracker.markCompleted(task.ID)
	} else {
		tracker.markDead(task.ID)
	}
	res.Result = result
	return res
}

// runSequential executes the batch in input order. Dependency gates
// still apply: a task whose dependency has not completed is reported
// deadlocked, matching the parallel path's no-hang guarantee.
func (o *Orchestrator) runSequential(ctx context.Context, tasks []*models.Task, results []BatchResult) {
	for i, task := range tasks {
		if results[i].Err != nil {
			continue
		}

		o.mu.RLock()
		startable := task.CanStart(o.completed)
		o.mu.RUnlock()
		if !startable {
			results[i].Err = ErrDependencyDeadlock
			o.Cancel(task.ID)
			continue
		}

		result, err := o.ExecuteTask(ctx, task)
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].Result = result
	}
}
