package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/nxtg-ai/forge/pkg/models"
)

func TestBus_SendAndDrain(t *testing.T) {
	bus := NewMessageBus(10, nil)

	bus.Send(models.AgentBackendMaster, models.AgentQASentinel, models.MessageQuery, map[string]any{"query": "coverage?"})
	bus.Send(models.AgentQASentinel, models.AgentBackendMaster, models.MessageResult, nil)

	msgs := bus.Drain(context.Background(), 0)
	if len(msgs) != 2 {
		t.Fatalf("drained %d messages, want 2", len(msgs))
	}

	// FIFO per bus instance.
	if msgs[0].Kind != models.MessageQuery || msgs[1].Kind != models.MessageResult {
		t.Errorf("messages out of order: %s, %s", msgs[0].Kind, msgs[1].Kind)
	}
	if bus.Len() != 0 {
		t.Errorf("bus should be empty after drain, has %d", bus.Len())
	}
}

func TestBus_DrainEmptyNoTimeout(t *testing.T) {
	bus := NewMessageBus(10, nil)

	msgs := bus.Drain(context.Background(), 0)
	if len(msgs) != 0 {
		t.Errorf("drained %d messages from empty bus, want 0", len(msgs))
	}
}

func TestBus_DrainBlocksForFirstMessage(t *testing.T) {
	bus := NewMessageBus(10, nil)

	go func() {
		time.Sleep(30 * time.Millisecond)
		bus.Send(models.AgentBackendMaster, models.AgentQASentinel, models.MessageStatus, nil)
	}()

	start := time.Now()
	msgs := bus.Drain(context.Background(), 2*time.Second)
	if len(msgs) != 1 {
		t.Fatalf("drained %d messages, want 1", len(msgs))
	}
	if time.Since(start) >= 2*time.Second {
		t.Error("drain should return as soon as a message arrives")
	}
}

func TestBus_DrainTimesOut(t *testing.T) {
	bus := NewMessageBus(10, nil)

	start := time.Now()
	msgs := bus.Drain(context.Background(), 50*time.Millisecond)
	if len(msgs) != 0 {
		t.Errorf("drained %d messages, want 0", len(msgs))
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("drain returned after %v, should wait out the timeout", elapsed)
	}
}

func TestBus_DrainHonorsContext(t *testing.T) {
	bus := NewMessageBus(10, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	msgs := bus.Drain(ctx, 5*time.Second)
	if len(msgs) != 0 {
		t.Errorf("drained %d messages, want 0", len(msgs))
	}
}
