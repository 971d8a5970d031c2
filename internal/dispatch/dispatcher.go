// Package dispatch owns the active task set, handler execution, and the
// append-only history of terminal tasks.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nxtg-ai/forge/pkg/models"
)

// DispatchedTask is the dispatcher's execution record for one unit of work.
type DispatchedTask struct {
	// ID is the unique identifier within the active set.
	ID string `json:"id"`
	// Description is the human-readable statement of the work.
	Description string `json:"description"`
	// Agent is the capability pool the task is assigned to.
	Agent models.AgentType `json:"agent"`
	// Handler is the unit of work to run. Nil means a no-op success.
	Handler Handler `json:"-"`
	// Status is the current state of the task.
	Status models.TaskStatus `json:"status"`
	// Metadata carries caller-supplied key/value context.
	Metadata map[string]any `json:"metadata,omitempty"`
	// CreatedAt is when the task was dispatched.
	CreatedAt time.Time `json:"created_at"`
	// StartedAt is when execution began, if it has.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the task reached a terminal state, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Result holds the terminal outcome for completed and failed tasks.
	Result *models.TaskResult `json:"result,omitempty"`
}

// HandlerResolver supplies a handler for tasks dispatched without one.
// Resolution happens at execute time, so handlers registered after
// dispatch still take effect.
type HandlerResolver func(agent models.AgentType) Handler

// Stats is an aggregate snapshot over the active set and history.
type Stats struct {
	Total              int     `json:"total"`
	Queued             int     `json:"queued"`
	Running            int     `json:"running"`
	Completed          int     `json:"completed"`
	Failed             int     `json:"failed"`
	Cancelled          int     `json:"cancelled"`
	SuccessRate        float64 `json:"success_rate"`
	AvgDurationSeconds float64 `json:"avg_duration_seconds"`
}

// Dispatcher owns the active task set and the history log. All mutation
// goes through its methods under a single lock; handlers run outside the
// lock so executions may overlap.
type Dispatcher struct {
	mu sync.RWMutex
	// active maps task ID to its execution record.
	active map[string]*DispatchedTask
	// history holds terminal tasks, append-only, in completion order.
	history []*DispatchedTask
	// resolver supplies handlers for tasks dispatched without one.
	resolver HandlerResolver
}

// New creates an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{
		active: make(map[string]*DispatchedTask),
	}
}

// SetHandlerResolver sets the fallback handler lookup used when a task
// was dispatched without an explicit handler.
func (d *Dispatcher) SetHandlerResolver(r HandlerResolver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resolver = r
}

// Dispatch admits a task into the active set with status queued.
// Returns ErrTaskConflict if the id is already active.
func (d *Dispatcher) Dispatch(id, description string, agent models.AgentType, handler Handler, metadata map[string]any) (*DispatchedTask, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.active[id]; exists {
		return nil, fmt.Errorf("dispatch %s: %w", id, ErrTaskConflict)
	}

	task := &DispatchedTask{
		ID:          id,
		Description: description,
		Agent:       agent,
		Handler:     handler,
		Status:      models.TaskStatusQueued,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	d.active[id] = task

	return task, nil
}

// Execute runs the task's handler and retires the task into history.
// A handler error or panic is converted into a failed result carrying
// the message; Execute itself only fails for unknown or non-queued ids.
func (d *Dispatcher) Execute(ctx context.Context, id string) (*models.TaskResult, error) {
	d.mu.Lock()
	task, ok := d.active[id]
	if !ok {
		d.mu.Unlock()
		return nil, fmt.Errorf("execute %s: %w", id, ErrTaskNotFound)
	}
	if !task.Status.CanTransition(models.TaskStatusRunning) {
		d.mu.Unlock()
		return nil, fmt.Errorf("execute %s: status %s: %w", id, task.Status, ErrTaskConflict)
	}

	task.Status = models.TaskStatusRunning
	started := time.Now().UTC()
	task.StartedAt = &started

	handler := task.Handler
	if handler == nil && d.resolver != nil {
		handler = d.resolver(task.Agent)
	}
	d.mu.Unlock()

	output, err := invoke(ctx, handler, task)

	completed := time.Now().UTC()
	result := &models.TaskResult{
		Duration: completed.Sub(started),
	}
	if err != nil {
		result.Status = models.TaskStatusFailed
		result.Error = err.Error()
	} else {
		result.Status = models.TaskStatusCompleted
		result.Output = output
	}

	d.mu.Lock()
	task.Status = result.Status
	task.CompletedAt = &completed
	task.Result = result
	delete(d.active, id)
	d.history = append(d.history, task)
	d.mu.Unlock()

	return result, nil
}

// invoke runs a handler, converting a panic into an error. A nil handler
// is a no-op success.
func invoke(ctx context.Context, handler Handler, task *DispatchedTask) (output map[string]any, err error) {
	if handler == nil {
		return map[string]any{"message": "task completed"}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return handler.Invoke(ctx, task)
}

// Cancel cancels a task that has not started running. Returns true only
// when the task was queued; running, terminal, and unknown ids are left
// untouched and return false.
func (d *Dispatcher) Cancel(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, ok := d.active[id]
	if !ok || task.Status != models.TaskStatusQueued {
		return false
	}

	completed := time.Now().UTC()
	task.Status = models.TaskStatusCancelled
	task.CompletedAt = &completed
	delete(d.active, id)
	d.history = append(d.history, task)

	return true
}

// Reassign moves an active task to another capability pool. Returns
// false if the id is not active.
func (d *Dispatcher) Reassign(id string, agent models.AgentType) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, ok := d.active[id]
	if !ok {
		return false
	}
	task.Agent = agent
	return true
}

// GetTask returns the active task for an id, or nil if it is not active.
func (d *Dispatcher) GetTask(id string) *DispatchedTask {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.active[id]
}

// ListTasks returns active tasks, optionally filtered by status and/or
// agent. Empty filter values match everything.
func (d *Dispatcher) ListTasks(status models.TaskStatus, agent models.AgentType) []*DispatchedTask {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var tasks []*DispatchedTask
	for _, task := range d.active {
		if status != "" && task.Status != status {
			continue
		}
		if agent != "" && task.Agent != agent {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks
}

// AgentWorkload returns the number of active tasks assigned to a pool.
func (d *Dispatcher) AgentWorkload(agent models.AgentType) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	count := 0
	for _, task := range d.active {
		if task.Agent == agent {
			count++
		}
	}
	return count
}

// HistoryTask returns the history record for an id, or nil if the task
// has not reached a terminal state.
func (d *Dispatcher) HistoryTask(id string) *DispatchedTask {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, task := range d.history {
		if task.ID == id {
			return task
		}
	}
	return nil
}

// History returns a copy of the history log in completion order.
func (d *Dispatcher) History() []*DispatchedTask {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*DispatchedTask, len(d.history))
	copy(out, d.history)
	return out
}

// ClearHistory empties the history log. The active set is untouched.
func (d *Dispatcher) ClearHistory() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = nil
}

// Stats aggregates counts over the active set and history. SuccessRate
// is completed/(completed+failed)*100, zero when nothing has finished.
func (d *Dispatcher) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var s Stats
	var totalDuration time.Duration
	var durationCount int

	tally := func(task *DispatchedTask) {
		s.Total++
		switch task.Status {
		case models.TaskStatusQueued:
			s.Queued++
		case models.TaskStatusRunning:
			s.Running++
		case models.TaskStatusCompleted:
			s.Completed++
		case models.TaskStatusFailed:
			s.Failed++
		case models.TaskStatusCancelled:
			s.Cancelled++
		}
		if task.StartedAt != nil && task.CompletedAt != nil {
			totalDuration += task.CompletedAt.Sub(*task.StartedAt)
			durationCount++
		}
	}

	for _, task := range d.active {
		tally(task)
	}
	for _, task := range d.history {
		tally(task)
	}

	if finished := s.Completed + s.Failed; finished > 0 {
		s.SuccessRate = float64(s.Completed) / float64(finished) * 100
	}
	if durationCount > 0 {
		s.AvgDurationSeconds = totalDuration.Seconds() / float64(durationCount)
	}

	return s
}
