package store

import (
	"context"
	"sync"
	"time"

	"mapproperties/pkg/platform/sentinel"
)

type entry struct {
	code      string
	expiresAt time.Time
}

// InMemory holds challenges in process with explicit expiry. Expired entries
// are dropped lazily on access and by Sweep.
type InMemory struct {
	mu      sync.Mutex
	entries map[string]entry
	clock   func() time.Time
}

// InMemoryOption configures an InMemory store.
type InMemoryOption func(*InMemory)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) InMemoryOption {
	return func(s *InMemory) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{
		entries: make(map[string]entry),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Put stores code under key, replacing any earlier challenge.
func (s *InMemory) Put(_ context.Context, key, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{code: code, expiresAt: s.clock().Add(ttl)}
	return nil
}

// Get returns the live code for key or sentinel.ErrNotFound.
func (s *InMemory) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked(key)
}

// Take returns the live code for key and removes it.
func (s *InMemory) Take(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, err := s.liveLocked(key)
	if err != nil {
		return "", err
	}
	delete(s.entries, key)
	return code, nil
}

// Sweep drops all expired challenges and reports how many were removed.
func (s *InMemory) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *InMemory) liveLocked(key string) (string, error) {
	e, ok := s.entries[key]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	if !s.clock().Before(e.expiresAt) {
		delete(s.entries, key)
		return "", sentinel.ErrNotFound
	}
	return e.code, nil
}
