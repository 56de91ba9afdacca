package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mapproperties/internal/favorite"
	"mapproperties/pkg/platform/sentinel"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore persists favorites in the favorites table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Add inserts a favorite. A duplicate pair is ErrConflict; a pair naming a
// missing listing is ErrNotFound.
func (s *PostgresStore) Add(ctx context.Context, f *favorite.Favorite) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (id, user_id, property_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, f.ID, f.UserID, f.PropertyID, f.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pgUniqueViolation:
				return sentinel.ErrConflict
			case pgForeignKeyViolation:
				return sentinel.ErrNotFound
			}
		}
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, userID, propertyID uuid.UUID) (*favorite.Favorite, error) {
	var f favorite.Favorite
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, property_id, created_at FROM favorites
		WHERE user_id = $1 AND property_id = $2
	`, userID, propertyID).Scan(&f.ID, &f.UserID, &f.PropertyID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find favorite: %w", err)
	}
	return &f, nil
}

func (s *PostgresStore) Remove(ctx context.Context, userID, propertyID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM favorites WHERE user_id = $1 AND property_id = $2
	`, userID, propertyID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ListByUser returns the user's favorites, oldest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*favorite.Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, property_id, created_at FROM favorites
		WHERE user_id = $1 ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := []*favorite.Favorite{}
	for rows.Next() {
		var f favorite.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.PropertyID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("list favorites: %w", err)
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return out, nil
}
