package simulator

import (
	"context"
	"errors"
	"sync"

	"github.com/ShayCichocki/tenderswarm/pkg/models"
)

// ErrQueueClosed is returned when posting to or receiving from a
// closed tender queue.
var ErrQueueClosed = errors.New("tender queue closed")

// Tender is one posted unit of work awaiting a provider.
type Tender struct {
	// ID is the monotonic tender identifier.
	ID int64
	// Task is the micro-task being tendered.
	Task models.MicroTask
}

// TenderQueue is a bounded queue of posted tenders. Each tender is
// delivered to at most one consumer. The queue is owned by the run
// that created it, not shared across runs.
type TenderQueue struct {
	ch chan Tender

	mu     sync.Mutex
	nextID int64
	closed bool
}

// NewTenderQueue creates a queue holding up to capacity tenders.
func NewTenderQueue(capacity int) *TenderQueue {
	if capacity <= 0 {
		capacity = 16
	}
	return &TenderQueue{ch: make(chan Tender, capacity), nextID: 1}
}

// Post assigns the task a tender ID and enqueues it. Blocks when the
// queue is full until a consumer drains or ctx is done.
func (q *TenderQueue) Post(ctx context.Context, task models.MicroTask) (int64, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0, ErrQueueClosed
	}
	id := q.nextID
	q.nextID++
	q.mu.Unlock()

	task.TenderID = id
	select {
	case q.ch <- Tender{ID: id, Task: task}:
		return id, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Receive takes the next tender off the queue. Returns ErrQueueClosed
// once the queue is closed and drained.
func (q *TenderQueue) Receive(ctx context.Context) (Tender, error) {
	select {
	case t, ok := <-q.ch:
		if !ok {
			return Tender{}, ErrQueueClosed
		}
		return t, nil
	case <-ctx.Done():
		return Tender{}, ctx.Err()
	}
}

// Len returns the number of tenders currently queued.
func (q *TenderQueue) Len() int {
	return len(q.ch)
}

// Close stops accepting new tenders. Queued tenders remain receivable.
func (q *TenderQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
