package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"mapproperties/internal/user"
	"mapproperties/pkg/platform/sentinel"
)

// InMemory keeps users in process, indexed by id and email.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*user.User
	byEmail map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[uuid.UUID]*user.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *InMemory) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byID[u.ID]; ok {
		return sentinel.ErrConflict
	}
	stored := *u
	s.byID[u.ID] = &stored
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *u
	return &found, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *s.byID[id]
	return &found, nil
}

func (s *InMemory) MarkVerified(_ context.Context, id uuid.UUID, aadhaarHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.IsVerified = true
	u.AadhaarHash = aadhaarHash
	return nil
}
