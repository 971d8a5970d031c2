package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageKind classifies agent-to-agent control messages.
type MessageKind string

const (
	// MessageHandoff hands a task off to another agent.
	MessageHandoff MessageKind = "handoff"
	// MessageQuery asks another agent for information.
	MessageQuery MessageKind = "query"
	// MessageResult sends a result back to the requesting agent.
	MessageResult MessageKind = "result"
	// MessageStatus reports a status update or diagnostic.
	MessageStatus MessageKind = "status"
	// MessageError reports an error condition.
	MessageError MessageKind = "error"
)

// Valid returns true if the kind is a known value.
func (k MessageKind) Valid() bool {
	switch k {
	case MessageHandoff, MessageQuery, MessageResult, MessageStatus, MessageError:
		return true
	default:
		return false
	}
}

// Message is a control message exchanged between agents about a task.
// ID and Timestamp are generated at creation and never change.
type Message struct {
	// ID is the unique identifier for this message.
	ID string `json:"id"`
	// From is the sending agent.
	From AgentType `json:"from_agent"`
	// To is the receiving agent.
	To AgentType `json:"to_agent"`
	// Kind is the message classification.
	Kind MessageKind `json:"kind"`
	// Content is the opaque key/value payload.
	Content map[string]any `json:"content,omitempty"`
	// Timestamp is when the message was created.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh ID and timestamp.
func NewMessage(from, to AgentType, kind MessageKind, content map[string]any) Message {
	return Message{
		ID:        NewID(),
		From:      from,
		To:        to,
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewID returns a short unique identifier for tasks and messages.
func NewID() string {
	return uuid.New().String()[:8]
}
