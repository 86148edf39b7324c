package orchestrator

import (
	"log"
	"sync/atomic"
	"time"
)

// EventEmitter handles event emission for the swarm pipeline.
// It provides a simple, thread-safe way to emit events to subscribers.
type EventEmitter struct {
	events       chan SwarmEvent
	droppedCount atomic.Uint64
}

// NewEventEmitter creates a new EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{
		events: make(chan SwarmEvent, bufferSize),
	}
}

// Emit sends an event to the events channel.
// If the channel is full, it tries with a timeout before dropping the
// event. Terminal events are never dropped; the send blocks instead,
// so every subscriber sees exactly one terminal frame.
func (e *EventEmitter) Emit(event SwarmEvent) {
	// Try immediate send first
	select {
	case e.events <- event:
		return
	default:
		// Channel full
	}

	if event.Type.Terminal() {
		e.events <- event
		return
	}

	// Try with 100ms timeout to give the receiver a chance to drain
	select {
	case e.events <- event:
		return
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // Log every 10th drop to avoid spam
			log.Printf("[orchestrator] WARNING: Event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events.
// Subscribers (HTTP stream, CLI) receive updates from it.
func (e *EventEmitter) Events() <-chan SwarmEvent {
	return e.events
}

// Close closes the events channel.
// This should be called after the terminal event has been emitted.
func (e *EventEmitter) Close() {
	close(e.events)
}
