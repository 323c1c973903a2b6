// Package macqueue implements the MAC/Data Queue substrate: a bounded,
// depth-accounted FIFO of packets with drop-reason logging, a Poisson-
// arrival data generator, and the ack-driven store the TT&C downlink uses.
// There is no notion of packet priority.
package macqueue

import (
	"sync"

	"github.com/orbsim/orbsim/internal/domain"
)

// Queue is a bounded FIFO of packets. Capacity <= 0 means unbounded.
type Queue struct {
	mu       sync.Mutex
	capacity int
	items    []domain.Packet
	onDrop   func(reason string, pkt domain.Packet)
}

// New builds a Queue with the given capacity. onDrop, if non-nil, is
// invoked whenever AddData rejects a packet for being over capacity.
func New(capacity int, onDrop func(reason string, pkt domain.Packet)) *Queue {
	return &Queue{capacity: capacity, onDrop: onDrop}
}

// AddData enqueues a packet, returning false (and invoking onDrop) if the
// queue is at capacity.
func (q *Queue) AddData(pkt domain.Packet) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.capacity > 0 && len(q.items) >= q.capacity {
		if q.onDrop != nil {
			q.onDrop("queue-full", pkt)
		}
		return false
	}
	q.items = append(q.items, pkt)
	return true
}

// GetData dequeues and returns the oldest packet, or false if the queue is
// empty.
func (q *Queue) GetData() (domain.Packet, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return domain.Packet{}, false
	}
	pkt := q.items[0]
	q.items = q.items[1:]
	return pkt, true
}

// GetQueue returns a snapshot copy of the queue contents, oldest first.
func (q *Queue) GetQueue() []domain.Packet {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.Packet, len(q.items))
	copy(out, q.items)
	return out
}

// GetQueueSize returns the current queue depth.
func (q *Queue) GetQueueSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
