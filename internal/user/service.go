package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	dErrors "mapproperties/pkg/domain-errors"
	"mapproperties/pkg/platform/sentinel"
	"mapproperties/pkg/requestcontext"
)

// Store persists users.
type Store interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	MarkVerified(ctx context.Context, id uuid.UUID, aadhaarHash string) error
}

// Service resolves and updates user accounts.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("user store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}, nil
}

// GetOrCreateByEmail returns the account for email, creating it on first sight.
func (s *Service) GetOrCreateByEmail(ctx context.Context, email, fullName string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}

	u, err := s.store.FindByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	u = &User{
		ID:        uuid.New(),
		Email:     email,
		FullName:  fullName,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent first login.
			return s.FindByEmail(ctx, email)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logger.InfoContext(ctx, "user created",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", u.ID,
	)
	return u, nil
}

// FindByEmail looks up an existing account.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, translate(err, "user not found")
	}
	return u, nil
}

// Get looks up an account by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "user not found")
	}
	return u, nil
}

// MarkVerified records a successful Aadhaar check. Only the bcrypt hash is stored.
func (s *Service) MarkVerified(ctx context.Context, id uuid.UUID, aadhaarNumber string) error {
	hash, err := HashAadhaar(aadhaarNumber)
	if err != nil {
		return err
	}
	if err := s.store.MarkVerified(ctx, id, hash); err != nil {
		return translate(err, "user not found")
	}
	s.logger.InfoContext(ctx, "user marked verified",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", id,
	)
	return nil
}

func translate(err error, notFoundMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
}
