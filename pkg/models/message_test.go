package models

import "testing"

func TestMessageKind_Valid(t *testing.T) {
	valid := []MessageKind{
		MessageHandoff, MessageQuery, MessageResult, MessageStatus, MessageError,
	}
	for _, k := range valid {
		if !k.Valid() {
			t.Errorf("kind %q should be valid", k)
		}
	}

	if MessageKind("broadcast").Valid() {
		t.Error("unknown kind should not be valid")
	}
}

func TestNewMessage(t *testing.T) {
	content := map[string]any{"task_id": "abc123"}
	msg := NewMessage(AgentBackendMaster, AgentQASentinel, MessageHandoff, content)

	if msg.ID == "" {
		t.Error("message should have a generated ID")
	}
	if len(msg.ID) != 8 {
		t.Errorf("message ID should be 8 chars, got %d", len(msg.ID))
	}
	if msg.Timestamp.IsZero() {
		t.Error("message should have a timestamp")
	}
	if msg.From != AgentBackendMaster || msg.To != AgentQASentinel {
		t.Errorf("message endpoints = %s -> %s, want backend-master -> qa-sentinel", msg.From, msg.To)
	}
	if msg.Content["task_id"] != "abc123" {
		t.Error("message content should carry the payload")
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 8 {
			t.Fatalf("id length = %d, want 8", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}
