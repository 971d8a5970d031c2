package orchestrator

import (
	"context"
	"time"

	"github.com/nxtg-ai/forge/pkg/models"
)

// SendMessage enqueues a control message on the bus.
func (o *Orchestrator) SendMessage(from, to models.AgentType, kind models.MessageKind, content map[string]any) models.Message {
	return o.bus.Send(from, to, kind, content)
}

// Bus returns the message bus.
func (o *Orchestrator) Bus() *MessageBus {
	return o.bus
}

// ProcessMessages drains the bus and applies message effects. Handoff
// messages reassign active tasks; query messages are logged and left to
// the caller. Message handling never fails: malformed messages produce
// diagnostics, not errors.
func (o *Orchestrator) ProcessMessages(ctx context.Context, timeout time.Duration) []models.Message {
	msgs := o.bus.Drain(ctx, timeout)

	for _, msg := range msgs {
		switch msg.Kind {
		case models.MessageHandoff:
			o.applyHandoff(msg)
		case models.MessageQuery:
			o.logger.Logf("query from %s to %s: %v", msg.From, msg.To, msg.Content["query"])
		default:
			o.logger.Logf("message %s (%s) from %s", msg.ID, msg.Kind, msg.From)
		}
	}

	return msgs
}

// applyHandoff reassigns an active task to the message's target agent
// and appends the message to the task's log. Unknown or missing task
// ids are ignored with a diagnostic.
func (o *Orchestrator) applyHandoff(msg models.Message) {
	taskID, ok := msg.Content["task_id"].(string)
	if !ok || taskID == "" {
		o.logger.Warnf("invalid task_id in handoff message %s", msg.ID)
		return
	}

	if !o.dispatcher.Reassign(taskID, msg.To) {
		o.logger.Warnf("handoff %s targets inactive task %s, ignored", msg.ID, taskID)
		return
	}

	o.mu.Lock()
	if task, ok := o.tasks[taskID]; ok {
		task.AssignedAgent = msg.To
		task.Messages = append(task.Messages, msg)
	}
	o.mu.Unlock()

	o.logger.Logf("task %s handed off to %s", taskID, msg.To)
	o.emitter.Emit(Event{Type: EventHandoff, TaskID: taskID, Agent: msg.To})

	// Reassignment landed after its budget: surface a status diagnostic,
	// not a task failure.
	if age := time.Since(msg.Timestamp); age > o.cfg.Orchestration.HandoffTimeout {
		o.bus.Send(msg.To, msg.From, models.MessageStatus, map[string]any{
			"task_id": taskID,
			"warning": "handoff applied after timeout",
			"age":     age.String(),
		})
	}
}
