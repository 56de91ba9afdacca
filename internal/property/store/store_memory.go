package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"mapproperties/internal/property"
	"mapproperties/internal/verification"
	"mapproperties/pkg/platform/sentinel"
)

// InMemory keeps listings in process. Reads return copies so callers cannot
// mutate stored state.
type InMemory struct {
	mu         sync.RWMutex
	properties map[uuid.UUID]*property.Property
}

func NewInMemory() *InMemory {
	return &InMemory{properties: make(map[uuid.UUID]*property.Property)}
}

func (s *InMemory) Save(_ context.Context, p *property.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.properties[p.ID] = p.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*property.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

// FindByIDs returns the listings that exist, in the order of ids.
func (s *InMemory) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*property.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*property.Property, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.properties[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// ListInBounds returns listings inside b ordered by creation time.
func (s *InMemory) ListInBounds(_ context.Context, b property.Bounds) ([]*property.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*property.Property
	for _, p := range s.properties {
		if b.Contains(p.Latitude, p.Longitude) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) UpdateStatus(_ context.Context, id uuid.UUID, status verification.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.Status = status
	return nil
}
