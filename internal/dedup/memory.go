package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Guard for tests and storage-less deployments.
// Claims do not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	claimed map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

var _ Guard = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory guard.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		claimed: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Claim(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, expiry := range s.claimed {
		if !expiry.After(now) {
			delete(s.claimed, id)
		}
	}

	if expiry, ok := s.claimed[eventID]; ok && expiry.After(now) {
		return false, nil
	}

	s.claimed[eventID] = now.Add(s.ttl)
	return true, nil
}
