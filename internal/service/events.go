package service

import (
	"encoding/json"
	"time"

	"backend/internal/model"
)

// Broadcaster is the event sink for workflow notifications. The websocket
// hub satisfies it; tests pass a nil sink.
type Broadcaster interface {
	Broadcast(message []byte)
}

// EventBroadcaster wraps a Broadcaster with the workflow event envelope
type EventBroadcaster struct {
	sink Broadcaster
}

func NewEventBroadcaster(sink Broadcaster) EventBroadcaster {
	return EventBroadcaster{sink: sink}
}

type workflowEvent struct {
	Event         string `json:"event"`
	RequestID     string `json:"request_id"`
	RequestNumber string `json:"request_number"`
	Status        string `json:"status"`
	At            string `json:"at"`
}

// BroadcastEvent publishes a status-change notification. Best effort: a
// marshal failure or nil sink drops the event, never the transaction.
func (b EventBroadcaster) BroadcastEvent(event string, request *model.Request) {
	if b.sink == nil || request == nil {
		return
	}
	payload, err := json.Marshal(workflowEvent{
		Event:         event,
		RequestID:     request.ID.String(),
		RequestNumber: request.RequestNumber,
		Status:        string(request.Status),
		At:            time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	b.sink.Broadcast(payload)
}
