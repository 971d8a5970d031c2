package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nxtg-ai/forge/internal/config"
	"github.com/nxtg-ai/forge/internal/dispatch"
	"github.com/nxtg-ai/forge/pkg/models"
)

// gaugeHandler records the peak number of concurrently running handlers.
type gaugeHandler struct {
	running int64
	peak    int64
	delay   time.Duration
}

func (g *gaugeHandler) Invoke(ctx context.Context, task *dispatch.DispatchedTask) (map[string]any, error) {
	now := atomic.AddInt64(&g.running, 1)
	for {
		peak := atomic.LoadInt64(&g.peak)
		if now <= peak || atomic.CompareAndSwapInt64(&g.peak, peak, now) {
			break
		}
	}
	time.Sleep(g.delay)
	atomic.AddInt64(&g.running, -1)
	return nil, nil
}

func batchTask(id, description string, deps ...string) *models.Task {
	return &models.Task{
		ID:            id,
		Description:   description,
		Type:          "feature",
		Priority:      "medium",
		AssignedAgent: models.AgentBackendMaster,
		Status:        models.TaskStatusPending,
		Dependencies:  deps,
	}
}

func TestRunBatch_RespectsConcurrencyCeiling(t *testing.T) {
	o := newTestOrchestrator(t, func(cfg *config.Config) {
		cfg.Orchestration.MaxParallel = 2
	})

	gauge := &gaugeHandler{delay: 30 * time.Millisecond}
	o.RegisterHandler(models.AgentBackendMaster, gauge)

	tasks := []*models.Task{
		batchTask("t1", "a"), batchTask("t2", "b"), batchTask("t3", "c"),
		batchTask("t4", "d"), batchTask("t5", "e"),
	}

	results := o.RunBatch(context.Background(), tasks)

	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}
	for _, r := range results {
		if r.Err != nil || !r.Result.Succeeded() {
			t.Errorf("task %s: err=%v result=%+v", r.TaskID, r.Err, r.Result)
		}
	}
	if peak := atomic.LoadInt64(&gauge.peak); peak > 2 {
		t.Errorf("observed %d concurrent handlers, ceiling is 2", peak)
	}
	if stats := o.Stats(); stats.Total != 5 || stats.Completed != 5 {
		t.Errorf("stats = %+v, want 5 total / 5 completed", stats)
	}
}

func TestRunBatch_DependencyOrdering(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	o.RegisterHandler(models.AgentBackendMaster, dispatch.HandlerFunc(
		func(ctx context.Context, task *dispatch.DispatchedTask) (map[string]any, error) {
			time.Sleep(10 * time.Millisecond)
			return nil, nil
		}))

	a := batchTask("a", "base work")
	b := batchTask("b", "follow-up work", "a")

	// Dependent listed first: the gate must still hold it back.
	results := o.RunBatch(context.Background(), []*models.Task{b, a})

	for _, r := range results {
		if r.Err != nil || !r.Result.Succeeded() {
			t.Fatalf("task %s: err=%v", r.TaskID, r.Err)
		}
	}

	if a.CompletedAt == nil || b.StartedAt == nil {
		t.Fatal("both tasks should carry timestamps")
	}
	if b.StartedAt.Before(*a.CompletedAt) {
		t.Errorf("b started at %v before a completed at %v", b.StartedAt, a.CompletedAt)
	}
}

func TestRunBatch_FailedDependencyDeadlocksDependent(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	o.RegisterHandler(models.AgentBackendMaster, dispatch.HandlerFunc(
		func(ctx context.Context, task *dispatch.DispatchedTask) (map[string]any, error) {
			if task.ID == "a" {
				return nil, errors.New("primary failure")
			}
			return nil, nil
		}))

	a := batchTask("a", "doomed work")
	b := batchTask("b", "dependent work", "a")
	c := batchTask("c", "independent work")

	done := make(chan []BatchResult, 1)
	go func() {
		done <- o.RunBatch(context.Background(), []*models.Task{a, b, c})
	}()

	var results []BatchResult
	select {
	case results = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("batch hung on a failed dependency")
	}

	byID := make(map[string]BatchResult)
	for _, r := range results {
		byID[r.TaskID] = r
	}

	if byID["a"].Result == nil || byID["a"].Result.Status != models.TaskStatusFailed {
		t.Errorf("a should fail, got %+v", byID["a"])
	}
	if !byID["b"].Deadlocked() {
		t.Errorf("b should be reported deadlocked, got err=%v", byID["b"].Err)
	}
	if byID["c"].Result == nil || !byID["c"].Result.Succeeded() {
		t.Errorf("c should complete independently, got %+v", byID["c"])
	}
}

func TestRunBatch_UnscheduledDependencyDeadlocks(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	b := batchTask("b", "dependent work", "never-scheduled")
	results := o.RunBatch(context.Background(), []*models.Task{b})

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !results[0].Deadlocked() {
		t.Errorf("err = %v, want dependency deadlock", results[0].Err)
	}
}

func TestRunBatch_ExternallyCompletedDependency(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	o.MarkCompleted("earlier-task")
	b := batchTask("b", "dependent work", "earlier-task")

	results := o.RunBatch(context.Background(), []*models.Task{b})
	if results[0].Err != nil || !results[0].Result.Succeeded() {
		t.Errorf("externally completed dependency should satisfy the gate: %+v", results[0])
	}
}

func TestRunBatch_DisabledRunsSequentially(t *testing.T) {
	o := newTestOrchestrator(t, func(cfg *config.Config) {
		cfg.Orchestration.Enabled = false
		cfg.Orchestration.MaxParallel = 8
	})

	var mu sync.Mutex
	var order []string
	o.RegisterHandler(models.AgentBackendMaster, dispatch.HandlerFunc(
		func(ctx context.Context, task *dispatch.DispatchedTask) (map[string]any, error) {
			mu.Lock()
			order = append(order, task.ID)
			mu.Unlock()
			return nil, nil
		}))

	tasks := []*models.Task{
		batchTask("t1", "a"), batchTask("t2", "b"), batchTask("t3", "c"),
	}
	results := o.RunBatch(context.Background(), tasks)

	for _, r := range results {
		if r.Err != nil || !r.Result.Succeeded() {
			t.Fatalf("task %s: %v", r.TaskID, r.Err)
		}
	}

	want := []string{"t1", "t2", "t3"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("sequential order = %v, want %v", order, want)
		}
	}
}

func TestRunBatch_OneResultPerInputTask(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	o.RegisterHandler(models.AgentBackendMaster, dispatch.HandlerFunc(
		func(ctx context.Context, task *dispatch.DispatchedTask) (map[string]any, error) {
			if task.ID == "bad" {
				return nil, errors.New("nope")
			}
			return nil, nil
		}))

	tasks := []*models.Task{
		batchTask("ok", "fine"),
		batchTask("bad", "broken"),
		batchTask("stuck", "waiting", "bad"),
	}
	results := o.RunBatch(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Fatalf("got %d results for %d tasks", len(results), len(tasks))
	}
	for i, r := range results {
		if r.TaskID != tasks[i].ID {
			t.Errorf("result %d is for %s, want %s", i, r.TaskID, tasks[i].ID)
		}
	}
}

func TestRunBatch_ContextCancellation(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := batchTask("b", "dependent work", "a")
	a := batchTask("a", "base work")

	done := make(chan []BatchResult, 1)
	go func() {
		done <- o.RunBatch(ctx, []*models.Task{a, b})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled batch must not hang")
	}
}
