package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nxtg-ai/forge/internal/config"
	"github.com/nxtg-ai/forge/internal/dispatch"
	"github.com/nxtg-ai/forge/internal/learning"
	"github.com/nxtg-ai/forge/internal/router"
	"github.com/nxtg-ai/forge/pkg/models"
)

// Orchestrator routes tasks to capability pools, dispatches them, runs
// batches under the configured concurrency ceiling, and applies
// agent-to-agent message effects.
type Orchestrator struct {
	cfg        *config.Config
	router     *router.Router
	dispatcher *dispatch.Dispatcher
	bus        *MessageBus
	emitter    *EventEmitter
	logger     Logger
	store      learning.Store

	mu sync.RWMutex
	// tasks holds the routed task records by id.
	tasks map[string]*models.Task
	// completed holds ids of tasks that reached completed.
	completed map[string]bool
	// handlers maps capability pools to their registered handlers.
	handlers map[models.AgentType]dispatch.Handler
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the observability sink.
func WithLogger(l Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLearningStore sets the interaction log sink.
func WithLearningStore(s learning.Store) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.store = s
		}
	}
}

// WithEventBuffer sets the event channel capacity.
func WithEventBuffer(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.emitter = NewEventEmitter(n, o.logger)
		}
	}
}

// New creates an Orchestrator from the given configuration.
// A nil configuration uses the built-in defaults.
func New(cfg *config.Config, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = config.Default()
	}

	o := &Orchestrator{
		cfg:        cfg,
		dispatcher: dispatch.New(),
		logger:     NopLogger{},
		store:      learning.NopStore{},
		tasks:      make(map[string]*models.Task),
		completed:  make(map[string]bool),
		handlers:   make(map[models.AgentType]dispatch.Handler),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.router = router.New(cfg.AgentTable(o.logger.Warnf))
	o.router.SetWarnLog(o.logger.Warnf)
	o.bus = NewMessageBus(256, o.logger)
	if o.emitter == nil {
		o.emitter = NewEventEmitter(100, o.logger)
	}
	o.dispatcher.SetHandlerResolver(o.handlerFor)

	return o
}

// Router returns the capability router.
func (o *Orchestrator) Router() *router.Router {
	return o.router
}

// Dispatcher returns the underlying dispatcher.
func (o *Orchestrator) Dispatcher() *dispatch.Dispatcher {
	return o.dispatcher
}

// Events returns the lifecycle event channel.
func (o *Orchestrator) Events() <-chan Event {
	return o.emitter.Events()
}

// Close releases the event channel and the learning store.
func (o *Orchestrator) Close() error {
	o.emitter.Close()
	return o.store.Close()
}

// RegisterHandler registers the unit of work executed for tasks assigned
// to a pool. Registration after dispatch still takes effect: handlers
// are resolved at execute time.
func (o *Orchestrator) RegisterHandler(agent models.AgentType, handler dispatch.Handler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handlers[agent] = handler
	o.logger.Logf("registered handler for %s", agent)
}

// handlerFor resolves the handler registered for a pool.
func (o *Orchestrator) handlerFor(agent models.AgentType) dispatch.Handler {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.handlers[agent]
}

// CreateTask creates a task, routes it to a pool, and admits it into the
// dispatcher's active set with status queued.
func (o *Orchestrator) CreateTask(description, taskType, priority string, metadata map[string]any) *models.Task {
	if taskType == "" {
		taskType = "feature"
	}
	if priority == "" {
		priority = "medium"
	}

	task := &models.Task{
		ID:          models.NewID(),
		Description: description,
		Type:        taskType,
		Priority:    priority,
		Status:      models.TaskStatusPending,
		Metadata:    metadata,
	}
	task.AssignedAgent = o.router.Assign(task)

	if err := o.admit(task); err != nil {
		// A fresh uuid colliding with an active id should not happen;
		// retry once with a new id.
		task.ID = models.NewID()
		if err := o.admit(task); err != nil {
			o.logger.Errorf("create task: %v", err)
			return task
		}
	}

	o.logger.Logf("created task %s: %q assigned to %s", task.ID, description, task.AssignedAgent)
	o.emitter.Emit(Event{Type: EventTaskCreated, TaskID: task.ID, Agent: task.AssignedAgent})

	return task
}

// admit dispatches a task record and tracks it. Pending tasks move to
// queued; tasks routed elsewhere keep their agent.
func (o *Orchestrator) admit(task *models.Task) error {
	if task.AssignedAgent == "" {
		task.AssignedAgent = o.router.Assign(task)
	}

	_, err := o.dispatcher.Dispatch(task.ID, task.Description, task.AssignedAgent, nil, task.Metadata)
	if err != nil {
		return fmt.Errorf("admit task %s: %w", task.ID, err)
	}
	task.Status = models.TaskStatusQueued

	o.mu.Lock()
	o.tasks[task.ID] = task
	o.mu.Unlock()

	return nil
}

// Task returns the routed task record for an id, or nil.
func (o *Orchestrator) Task(id string) *models.Task {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.tasks[id]
}

// Decompose splits a feature task into the typical workflow: design,
// implementation depending on design, testing depending on
// implementation. Each subtask is admitted into the active set. Other
// task types are left whole.
func (o *Orchestrator) Decompose(task *models.Task) []*models.Task {
	if task.Type != "feature" {
		return nil
	}

	subtasks := []*models.Task{
		{
			ID:            task.ID + "-arch",
			Description:   "Design architecture for: " + task.Description,
			Type:          "design",
			Priority:      task.Priority,
			AssignedAgent: models.AgentLeadArchitect,
			Status:        models.TaskStatusPending,
			Metadata:      map[string]any{"parent_task": task.ID},
		},
		{
			ID:            task.ID + "-impl",
			Description:   "Implement: " + task.Description,
			Type:          "implementation",
			Priority:      task.Priority,
			AssignedAgent: models.AgentBackendMaster,
			Status:        models.TaskStatusPending,
			Dependencies:  []string{task.ID + "-arch"},
			Metadata:      map[string]any{"parent_task": task.ID},
		},
		{
			ID:            task.ID + "-test",
			Description:   "Test: " + task.Description,
			Type:          "testing",
			Priority:      task.Priority,
			AssignedAgent: models.AgentQASentinel,
			Status:        models.TaskStatusPending,
			Dependencies:  []string{task.ID + "-impl"},
			Metadata:      map[string]any{"parent_task": task.ID},
		},
	}

	task.Subtasks = task.Subtasks[:0]
	for _, st := range subtasks {
		if err := o.admit(st); err != nil {
			o.logger.Errorf("decompose %s: %v", task.ID, err)
			continue
		}
		task.Subtasks = append(task.Subtasks, st.ID)
	}

	return subtasks
}

// ExecuteTask runs a single task to a terminal state through the
// dispatcher. Tasks not yet admitted are admitted first; ids already in
// history stay there and are never re-admitted. Handler failures come
// back as failed results, not errors.
func (o *Orchestrator) ExecuteTask(ctx context.Context, task *models.Task) (*models.TaskResult, error) {
	if o.dispatcher.GetTask(task.ID) == nil {
		if o.dispatcher.HistoryTask(task.ID) != nil {
			return nil, fmt.Errorf("task %s already terminal: %w", task.ID, dispatch.ErrTaskNotFound)
		}
		if err := o.admit(task); err != nil {
			return nil, err
		}
	}

	o.logger.Logf("executing task %s with %s", task.ID, task.AssignedAgent)
	o.emitter.Emit(Event{Type: EventTaskStarted, TaskID: task.ID, Agent: task.AssignedAgent})

	result, err := o.dispatcher.Execute(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	o.finishTask(task, result)
	return result, nil
}

// finishTask mirrors the terminal dispatcher state onto the task record,
// updates the completed set, logs the interaction, and emits events.
func (o *Orchestrator) finishTask(task *models.Task, result *models.TaskResult) {
	if record := o.dispatcher.HistoryTask(task.ID); record != nil {
		task.StartedAt = record.StartedAt
		task.CompletedAt = record.CompletedAt
		task.AssignedAgent = record.Agent
	}
	task.Status = result.Status
	task.Result = result

	if result.Succeeded() {
		o.mu.Lock()
		o.completed[task.ID] = true
		o.mu.Unlock()
		o.emitter.Emit(Event{Type: EventTaskCompleted, TaskID: task.ID, Agent: task.AssignedAgent})
	} else {
		o.logger.Errorf("task %s failed: %s", task.ID, result.Error)
		o.emitter.Emit(Event{Type: EventTaskFailed, TaskID: task.ID, Agent: task.AssignedAgent, Detail: result.Error})
	}

	if o.cfg.Orchestration.LearningEnabled {
		o.logInteraction(task, result)
	}
}

// logInteraction appends one record to the interaction log.
func (o *Orchestrator) logInteraction(task *models.Task, result *models.TaskResult) {
	err := o.store.Append(learning.Record{
		Timestamp:       time.Now().UTC(),
		TaskID:          task.ID,
		TaskType:        task.Type,
		Description:     task.Description,
		Agent:           task.AssignedAgent,
		Status:          result.Status,
		DurationSeconds: result.Duration.Seconds(),
		Success:         result.Succeeded(),
	})
	if err != nil {
		o.logger.Errorf("interaction log append failed for %s: %v", task.ID, err)
	}
}

// Cancel cancels a queued task. Running, terminal, and unknown ids
// return false with no state change.
func (o *Orchestrator) Cancel(id string) bool {
	if !o.dispatcher.Cancel(id) {
		return false
	}

	o.mu.Lock()
	if task, ok := o.tasks[id]; ok {
		task.Status = models.TaskStatusCancelled
		if record := o.dispatcher.HistoryTask(id); record != nil {
			task.CompletedAt = record.CompletedAt
		}
	}
	o.mu.Unlock()

	return true
}

// MarkCompleted records an externally completed task id so batch
// dependents can observe it.
func (o *Orchestrator) MarkCompleted(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed[id] = true
}

// Stats returns the dispatcher's aggregate snapshot.
func (o *Orchestrator) Stats() dispatch.Stats {
	return o.dispatcher.Stats()
}

// completedSnapshot copies the completed-id set.
func (o *Orchestrator) completedSnapshot() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	ids := make([]string, 0, len(o.completed))
	for id := range o.completed {
		ids = append(ids, id)
	}
	return ids
}
