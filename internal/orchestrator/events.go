// Package orchestrator runs the swarm pipeline: decompose a client
// brief into micro-tasks, post them as tenders, generate and evaluate
// deliverables, pay providers, and assemble the final document.
package orchestrator

import (
	"time"

	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

// EventType represents the type of swarm event.
type EventType string

const (
	// EventStatus carries a phase and progress update.
	EventStatus EventType = "status"
	// EventMessage carries an agent commentary message.
	EventMessage EventType = "message"
	// EventTaskUpdate carries the state of one micro-task.
	EventTaskUpdate EventType = "task-update"
	// EventPayment carries a settled provider payment or refund.
	EventPayment EventType = "payment"
	// EventError is the terminal frame for a failed run.
	EventError EventType = "error"
	// EventComplete is the terminal frame for a successful run.
	EventComplete EventType = "complete"
)

// Terminal reports whether this event type ends the stream.
func (t EventType) Terminal() bool {
	return t == EventError || t == EventComplete
}

// SwarmEvent is one frame of the run's event stream. Exactly one of
// the payload fields is set, selected by Type.
type SwarmEvent struct {
	// Type is the kind of event.
	Type EventType `json:"type"`
	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// Status is set for status events.
	Status *models.SwarmStatus `json:"status,omitempty"`
	// Message is set for message events.
	Message *models.AgentMessage `json:"message,omitempty"`
	// Task is set for task-update events.
	Task *models.MicroTask `json:"task,omitempty"`
	// Payment is set for payment events.
	Payment *models.Payment `json:"payment,omitempty"`
	// Error is set for error events.
	Error string `json:"error,omitempty"`
	// Summary is set for complete events.
	Summary *models.SwarmSummary `json:"summary,omitempty"`
}

// StatusEvent builds a status frame.
func StatusEvent(status models.SwarmStatus) SwarmEvent {
	return SwarmEvent{Type: EventStatus, Timestamp: time.Now(), Status: &status}
}

// MessageEvent builds a message frame.
func MessageEvent(msg models.AgentMessage) SwarmEvent {
	return SwarmEvent{Type: EventMessage, Timestamp: time.Now(), Message: &msg}
}

// TaskUpdateEvent builds a task-update frame.
func TaskUpdateEvent(task models.MicroTask) SwarmEvent {
	return SwarmEvent{Type: EventTaskUpdate, Timestamp: time.Now(), Task: &task}
}

// PaymentEvent builds a payment frame.
func PaymentEvent(p models.Payment) SwarmEvent {
	return SwarmEvent{Type: EventPayment, Timestamp: time.Now(), Payment: &p}
}

// ErrorEvent builds the terminal frame for a failed run.
func ErrorEvent(err error) SwarmEvent {
	return SwarmEvent{Type: EventError, Timestamp: time.Now(), Error: err.Error()}
}

// CompleteEvent builds the terminal frame for a successful run.
func CompleteEvent(summary models.SwarmSummary) SwarmEvent {
	return SwarmEvent{Type: EventComplete, Timestamp: time.Now(), Summary: &summary}
}
