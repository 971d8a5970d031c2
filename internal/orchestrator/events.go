package orchestrator

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nxtg-ai/forge/pkg/models"
)

// EventType classifies orchestrator lifecycle events.
type EventType string

const (
	// EventTaskCreated fires when a task is created and routed.
	EventTaskCreated EventType = "task_created"
	// EventTaskStarted fires when a task's handler begins executing.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted fires when a task completes successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed fires when a task's handler fails.
	EventTaskFailed EventType = "task_failed"
	// EventTaskDeadlocked fires when a task's dependency can never complete.
	EventTaskDeadlocked EventType = "task_deadlocked"
	// EventHandoff fires when a handoff message reassigns a task.
	EventHandoff EventType = "handoff"
)

// Event is one orchestrator lifecycle notification.
type Event struct {
	// Type is the event classification.
	Type EventType
	// TaskID identifies the task the event concerns.
	TaskID string
	// Agent is the pool involved, if any.
	Agent models.AgentType
	// Detail carries a short human-readable note.
	Detail string
	// Timestamp is when the event was emitted.
	Timestamp time.Time
}

// EventEmitter provides a thread-safe way to emit events to subscribers.
// When the channel is full the emitter retries briefly, then drops the
// event and counts the drop rather than blocking the orchestrator.
type EventEmitter struct {
	events       chan Event
	droppedCount atomic.Uint64
	logger       Logger

	mu     sync.RWMutex
	closed bool
}

// NewEventEmitter creates an EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int, logger Logger) *EventEmitter {
	if logger == nil {
		logger = NopLogger{}
	}
	return &EventEmitter{
		events: make(chan Event, bufferSize),
		logger: logger,
	}
}

// Emit sends an event to the events channel. Events emitted after Close
// are dropped.
func (e *EventEmitter) Emit(event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}

	event.Timestamp = time.Now().UTC()

	select {
	case e.events <- event:
		return
	default:
		// Channel full, try with timeout
	}

	select {
	case e.events <- event:
		return
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // Log every 10th drop to avoid spam
			e.logger.Warnf("event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events for subscribers.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel. Safe to call more than once, and
// safe against in-flight Emit calls.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.events)
}
