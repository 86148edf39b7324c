package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

func TestTenderQueueMonotonicIDs(t *testing.T) {
	q := NewTenderQueue(10)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		id, err := q.Post(ctx, models.MicroTask{ID: "task"})
		if err != nil {
			t.Fatalf("Post: %v", err)
		}
		if id <= last {
			t.Fatalf("tender ID %d not greater than previous %d", id, last)
		}
		last = id
	}
}

func TestTenderQueueAtMostOnce(t *testing.T) {
	q := NewTenderQueue(4)
	ctx := context.Background()

	posted := map[int64]bool{}
	for i := 0; i < 4; i++ {
		id, err := q.Post(ctx, models.MicroTask{ID: "task"})
		if err != nil {
			t.Fatalf("Post: %v", err)
		}
		posted[id] = true
	}
	q.Close()

	received := map[int64]bool{}
	for {
		tender, err := q.Receive(ctx)
		if err == ErrQueueClosed {
			break
		}
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if received[tender.ID] {
			t.Fatalf("tender %d delivered twice", tender.ID)
		}
		received[tender.ID] = true
	}

	if len(received) != len(posted) {
		t.Errorf("received %d tenders, posted %d", len(received), len(posted))
	}
}

func TestTenderQueueAssignsTenderID(t *testing.T) {
	q := NewTenderQueue(1)
	ctx := context.Background()

	id, err := q.Post(ctx, models.MicroTask{ID: "task-1"})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	tender, err := q.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if tender.Task.TenderID != id {
		t.Errorf("task TenderID = %d, want %d", tender.Task.TenderID, id)
	}
}

func TestTenderQueueClosedPost(t *testing.T) {
	q := NewTenderQueue(1)
	q.Close()

	if _, err := q.Post(context.Background(), models.MicroTask{}); err != ErrQueueClosed {
		t.Errorf("Post after Close = %v, want ErrQueueClosed", err)
	}
}

func TestTenderQueueReceiveHonorsContext(t *testing.T) {
	q := NewTenderQueue(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Receive(ctx); err != context.DeadlineExceeded {
		t.Errorf("Receive on empty queue = %v, want deadline exceeded", err)
	}
}
