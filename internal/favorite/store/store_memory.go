package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"mapproperties/internal/favorite"
	"mapproperties/pkg/platform/sentinel"
)

type pairKey struct {
	userID     uuid.UUID
	propertyID uuid.UUID
}

type entry struct {
	favorite favorite.Favorite
	seq      uint64
}

// InMemory keeps favorites in process, unique per (user, property).
type InMemory struct {
	mu    sync.RWMutex
	pairs map[pairKey]*entry
	seq   uint64
}

func NewInMemory() *InMemory {
	return &InMemory{pairs: make(map[pairKey]*entry)}
}

func (s *InMemory) Add(_ context.Context, f *favorite.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{f.UserID, f.PropertyID}
	if _, ok := s.pairs[key]; ok {
		return sentinel.ErrConflict
	}
	s.seq++
	s.pairs[key] = &entry{favorite: *f, seq: s.seq}
	return nil
}

func (s *InMemory) Find(_ context.Context, userID, propertyID uuid.UUID) (*favorite.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.pairs[pairKey{userID, propertyID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := e.favorite
	return &found, nil
}

func (s *InMemory) Remove(_ context.Context, userID, propertyID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{userID, propertyID}
	if _, ok := s.pairs[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.pairs, key)
	return nil
}

// ListByUser returns the user's favorites, oldest first. Ties keep insertion order.
func (s *InMemory) ListByUser(_ context.Context, userID uuid.UUID) ([]*favorite.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []*entry
	for key, e := range s.pairs {
		if key.userID == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.favorite.CreatedAt.Equal(b.favorite.CreatedAt) {
			return a.favorite.CreatedAt.Before(b.favorite.CreatedAt)
		}
		return a.seq < b.seq
	})
	out := make([]*favorite.Favorite, 0, len(entries))
	for _, e := range entries {
		found := e.favorite
		out = append(out, &found)
	}
	return out, nil
}
