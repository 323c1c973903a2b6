package macqueue

import (
	"sync"

	"github.com/orbsim/orbsim/internal/domain"
)

// AckableStore is a datastore that supports non-destructive peeking and
// explicit acknowledgement-driven removal, matching the TT&C satellite
// MAC's downlink behavior: packets are pulled without deletion, dropped on
// ACK, and unacknowledged ones survive to the next request cycle.
type AckableStore struct {
	mu    sync.Mutex
	order []string
	byID  map[string]domain.Packet
}

// NewAckableStore builds an empty store.
func NewAckableStore() *AckableStore {
	return &AckableStore{byID: map[string]domain.Packet{}}
}

// Add inserts a packet, overwriting any existing entry with the same id.
func (s *AckableStore) Add(pkt domain.Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[pkt.ID]; !exists {
		s.order = append(s.order, pkt.ID)
	}
	s.byID[pkt.ID] = pkt
}

// Peek returns up to n packets in insertion order without removing them.
// n <= 0 returns every packet.
func (s *AckableStore) Peek(n int) []domain.Packet {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit := len(s.order)
	if n > 0 && n < limit {
		limit = n
	}
	out := make([]domain.Packet, 0, limit)
	for _, id := range s.order[:limit] {
		out = append(out, s.byID[id])
	}
	return out
}

// Ack removes the given ids and returns how many were actually present.
func (s *AckableStore) Ack(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	toRemove := make(map[string]bool, len(ids))
	for _, id := range ids {
		toRemove[id] = true
	}
	removed := 0
	kept := s.order[:0]
	for _, id := range s.order {
		if toRemove[id] {
			if _, ok := s.byID[id]; ok {
				delete(s.byID, id)
				removed++
			}
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

// Size returns the current store depth.
func (s *AckableStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
