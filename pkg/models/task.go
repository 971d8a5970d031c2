package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has been created but not routed.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusQueued indicates the task is admitted and awaiting execution.
	TaskStatusQueued TaskStatus = "queued"
	// TaskStatusRunning indicates the task's handler is executing.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusCompleted indicates the task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task's handler failed.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusCancelled indicates the task was cancelled before it started.
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusQueued, TaskStatusRunning,
		TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal returns true if no transition exists out of this status.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the state machine allows moving from s to next.
// The only legal moves are pending→queued, queued→running, queued→cancelled,
// running→completed, and running→failed.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	switch s {
	case TaskStatusPending:
		return next == TaskStatusQueued
	case TaskStatusQueued:
		return next == TaskStatusRunning || next == TaskStatusCancelled
	case TaskStatusRunning:
		return next == TaskStatusCompleted || next == TaskStatusFailed
	default:
		return false
	}
}

// Task represents a unit of work routed to a capability pool.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Description is the human-readable statement of the work.
	Description string `json:"description"`
	// Type classifies the task (feature, bugfix, refactor, ...).
	Type string `json:"type"`
	// Priority is the ordinal tier (high, medium, low).
	Priority string `json:"priority"`
	// AssignedAgent is the capability pool this task was routed to.
	// Empty until routing has happened.
	AssignedAgent AgentType `json:"assigned_agent,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Dependencies lists task IDs that must complete before this task.
	Dependencies []string `json:"dependencies,omitempty"`
	// Subtasks lists child task IDs created by decomposition.
	Subtasks []string `json:"subtasks,omitempty"`
	// Messages holds the control messages exchanged about this task.
	Messages []Message `json:"messages,omitempty"`
	// Metadata carries caller-supplied key/value context.
	Metadata map[string]any `json:"metadata,omitempty"`
	// StartedAt is when execution began, if it has.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the task reached a terminal state, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Result holds the terminal outcome. Set exactly once, and only on
	// completed or failed tasks; cancelled tasks carry no result.
	Result *TaskResult `json:"result,omitempty"`
}

// CanStart returns true if every dependency is present in the completed set.
func (t *Task) CanStart(completed map[string]bool) bool {
	for _, dep := range t.Dependencies {
		if !completed[dep] {
			return false
		}
	}
	return true
}

// TaskResult is the terminal outcome of a task execution.
type TaskResult struct {
	// Status is the terminal status the task reached.
	Status TaskStatus `json:"status"`
	// Output is the handler's success payload, if any.
	Output map[string]any `json:"output,omitempty"`
	// Error contains the failure message if the task failed.
	Error string `json:"error,omitempty"`
	// Duration is the wall-clock execution time.
	Duration time.Duration `json:"duration"`
}

// Succeeded returns true if the result represents a completed task.
func (r *TaskResult) Succeeded() bool {
	return r != nil && r.Status == TaskStatusCompleted
}
