package service

import (
	"encoding/json"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
)

type captureSink struct {
	messages [][]byte
}

func (c *captureSink) Broadcast(message []byte) {
	c.messages = append(c.messages, message)
}

func TestBroadcastEvent(t *testing.T) {
	sink := &captureSink{}
	events := NewEventBroadcaster(sink)

	request := &model.Request{
		ID:            uuid.New(),
		RequestNumber: "ACME-ENG-202603-0001",
		Status:        model.StatusSubmitted,
	}
	events.BroadcastEvent("request_submitted", request)

	if len(sink.messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(sink.messages))
	}

	var event workflowEvent
	if err := json.Unmarshal(sink.messages[0], &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Event != "request_submitted" {
		t.Errorf("event = %q", event.Event)
	}
	if event.RequestNumber != request.RequestNumber {
		t.Errorf("request_number = %q", event.RequestNumber)
	}
	if event.Status != string(model.StatusSubmitted) {
		t.Errorf("status = %q", event.Status)
	}
}

func TestBroadcastEventNilSafe(t *testing.T) {
	// Neither a nil sink nor a nil request may panic or emit
	events := NewEventBroadcaster(nil)
	events.BroadcastEvent("request_submitted", &model.Request{ID: uuid.New()})

	sink := &captureSink{}
	events = NewEventBroadcaster(sink)
	events.BroadcastEvent("request_submitted", nil)
	if len(sink.messages) != 0 {
		t.Error("nil request must not emit an event")
	}
}
