package orchestrator

import (
	"context"
	"time"

	"github.com/nxtg-ai/forge/pkg/models"
)

// MessageBus is the ordered mailbox agents use to exchange control
// messages about tasks. Delivery is FIFO per bus instance.
type MessageBus struct {
	queue  chan models.Message
	logger Logger
}

// NewMessageBus creates a bus with the given queue capacity.
func NewMessageBus(capacity int, logger Logger) *MessageBus {
	if capacity <= 0 {
		capacity = 256
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &MessageBus{
		queue:  make(chan models.Message, capacity),
		logger: logger,
	}
}

// Send enqueues a message and returns it with its generated id and
// timestamp. Blocks if the queue is at capacity.
func (b *MessageBus) Send(from, to models.AgentType, kind models.MessageKind, content map[string]any) models.Message {
	msg := models.NewMessage(from, to, kind, content)
	b.queue <- msg
	b.logger.Logf("message %s: %s -> %s (%s)", msg.ID, from, to, kind)
	return msg
}

// Drain pulls all currently queued messages. If none are queued and
// timeout is positive, Drain blocks up to timeout for at least one
// message, then collects whatever else is immediately available.
func (b *MessageBus) Drain(ctx context.Context, timeout time.Duration) []models.Message {
	msgs := b.drainReady(nil)

	if len(msgs) == 0 && timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case msg := <-b.queue:
			msgs = b.drainReady(append(msgs, msg))
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	return msgs
}

// drainReady appends every immediately available message to msgs.
func (b *MessageBus) drainReady(msgs []models.Message) []models.Message {
	for {
		select {
		case msg := <-b.queue:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

// Len returns the number of queued messages.
func (b *MessageBus) Len() int {
	return len(b.queue)
}
