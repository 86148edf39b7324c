package orchestrator

import (
	"testing"
	"time"

	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

func TestEmitterDropsWhenFull(t *testing.T) {
	e := NewEventEmitter(1)

	e.Emit(StatusEvent(models.SwarmStatus{Progress: 1}))
	e.Emit(StatusEvent(models.SwarmStatus{Progress: 2}))

	if got := e.DroppedCount(); got != 1 {
		t.Errorf("DroppedCount = %d, want 1", got)
	}
}

func TestEmitterNeverDropsTerminal(t *testing.T) {
	e := NewEventEmitter(1)
	e.Emit(StatusEvent(models.SwarmStatus{Progress: 1}))

	done := make(chan struct{})
	go func() {
		e.Emit(CompleteEvent(models.SwarmSummary{}))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("terminal emit returned before the channel drained")
	case <-time.After(150 * time.Millisecond):
	}

	// Drain the buffered status frame; the blocked terminal send must
	// now go through.
	<-e.Events()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("terminal emit still blocked after drain")
	}

	ev := <-e.Events()
	if ev.Type != EventComplete {
		t.Errorf("event type = %s, want complete", ev.Type)
	}
	if e.DroppedCount() != 0 {
		t.Errorf("DroppedCount = %d, want 0", e.DroppedCount())
	}
}

func TestEmitterCloseEndsRange(t *testing.T) {
	e := NewEventEmitter(4)
	e.Emit(StatusEvent(models.SwarmStatus{Progress: 1}))
	e.Emit(CompleteEvent(models.SwarmSummary{}))
	e.Close()

	var count int
	for range e.Events() {
		count++
	}
	if count != 2 {
		t.Errorf("events received = %d, want 2", count)
	}
}

func TestEventTypeTerminal(t *testing.T) {
	tests := []struct {
		typ  EventType
		want bool
	}{
		{EventStatus, false},
		{EventMessage, false},
		{EventTaskUpdate, false},
		{EventPayment, false},
		{EventError, true},
		{EventComplete, true},
	}
	for _, tt := range tests {
		if got := tt.typ.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.typ, got, tt.want)
		}
	}
}
