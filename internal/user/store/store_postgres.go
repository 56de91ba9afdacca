package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mapproperties/internal/user"
	"mapproperties/pkg/platform/sentinel"
)

// pgUniqueViolation is the SQLSTATE for unique constraint failures.
const pgUniqueViolation = "23505"

// PostgresStore persists users in the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u *user.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, is_verified, aadhaar_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Email, u.FullName, u.IsVerified, u.AadhaarHash, u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.findOne(ctx, `WHERE id = $1`, id)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.findOne(ctx, `WHERE email = $1`, email)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*user.User, error) {
	query := `SELECT id, email, full_name, is_verified, aadhaar_hash, created_at FROM users ` + where
	var u user.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.FullName, &u.IsVerified, &u.AadhaarHash, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) MarkVerified(ctx context.Context, id uuid.UUID, aadhaarHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_verified = TRUE, aadhaar_hash = $2 WHERE id = $1
	`, id, aadhaarHash)
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
