package favorite

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"mapproperties/internal/property"
	"mapproperties/internal/user"
	dErrors "mapproperties/pkg/domain-errors"
	"mapproperties/pkg/platform/sentinel"
	"mapproperties/pkg/requestcontext"
)

// defaultFullName is given to accounts first seen through a favorite.
const defaultFullName = "User"

// Store persists favorites.
type Store interface {
	Add(ctx context.Context, f *Favorite) error
	Find(ctx context.Context, userID, propertyID uuid.UUID) (*Favorite, error)
	Remove(ctx context.Context, userID, propertyID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Favorite, error)
}

// Users resolves accounts by email.
type Users interface {
	GetOrCreateByEmail(ctx context.Context, email, fullName string) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

// Properties loads the listings favorites point at.
type Properties interface {
	Get(ctx context.Context, id uuid.UUID) (*property.Property, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]*property.Property, error)
}

type Service struct {
	store      Store
	users      Users
	properties Properties
	logger     *slog.Logger
}

func NewService(store Store, users Users, properties Properties, logger *slog.Logger) (*Service, error) {
	switch {
	case store == nil:
		return nil, errors.New("favorite store is required")
	case users == nil:
		return nil, errors.New("user service is required")
	case properties == nil:
		return nil, errors.New("property service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, users: users, properties: properties, logger: logger}, nil
}

// Add saves a listing for the user, creating the account on first sight.
// Adding an existing favorite returns it unchanged.
func (s *Service) Add(ctx context.Context, userEmail string, propertyID uuid.UUID) (*Favorite, error) {
	u, err := s.users.GetOrCreateByEmail(ctx, userEmail, defaultFullName)
	if err != nil {
		return nil, err
	}
	if _, err := s.properties.Get(ctx, propertyID); err != nil {
		return nil, err
	}

	existing, err := s.store.Find(ctx, u.ID, propertyID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load favorite")
	}

	f := &Favorite{
		ID:         uuid.New(),
		UserID:     u.ID,
		PropertyID: propertyID,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.store.Add(ctx, f); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent add of the same pair.
			if existing, findErr := s.store.Find(ctx, u.ID, propertyID); findErr == nil {
				return existing, nil
			}
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save favorite")
	}

	s.logger.InfoContext(ctx, "favorite added",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", u.ID,
		"property_id", propertyID,
	)
	return f, nil
}

// Remove deletes a favorite. Unknown users and missing favorites are not found.
func (s *Service) Remove(ctx context.Context, userEmail string, propertyID uuid.UUID) error {
	u, err := s.users.FindByEmail(ctx, userEmail)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return err
	}

	if err := s.store.Remove(ctx, u.ID, propertyID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "Favorite not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove favorite")
	}

	s.logger.InfoContext(ctx, "favorite removed",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", u.ID,
		"property_id", propertyID,
	)
	return nil
}

// List returns the user's saved listings, oldest favorite first. Unknown
// users have none. Favorites of deleted listings are skipped.
func (s *Service) List(ctx context.Context, userEmail string) ([]*property.Property, error) {
	u, err := s.users.FindByEmail(ctx, userEmail)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return []*property.Property{}, nil
		}
		return nil, err
	}

	favs, err := s.store.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list favorites")
	}
	ids := make([]uuid.UUID, len(favs))
	for i, f := range favs {
		ids[i] = f.PropertyID
	}
	return s.properties.GetMany(ctx, ids)
}
