package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mapproperties/internal/property"
	"mapproperties/internal/verification"
	"mapproperties/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

const selectColumns = `
	SELECT id, owner_id, title, description, price_fiat, property_type,
	       latitude, longitude, area, area_unit, image_urls, verification_status, created_at
	FROM properties`

// PostgresStore persists listings in the properties table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, p *property.Property) error {
	owner := uuid.NullUUID{UUID: p.OwnerID, Valid: p.OwnerID != uuid.Nil}
	images := p.ImageURLs
	if images == nil {
		images = []string{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (id, owner_id, title, description, price_fiat, property_type,
			latitude, longitude, area, area_unit, image_urls, verification_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, p.ID, owner, p.Title, p.Description, p.PriceFiat, p.PropertyType,
		p.Latitude, p.Longitude, p.Area, p.AreaUnit, pq.Array(images), string(p.Status), p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save property: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	p, err := scanProperty(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find property: %w", err)
	}
	return p, nil
}

// FindByIDs returns the listings that exist, in the order of ids.
func (s *PostgresStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*property.Property, error) {
	if len(ids) == 0 {
		return []*property.Property{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE id = ANY($1::uuid[])`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("find properties: %w", err)
	}
	found, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("find properties: %w", err)
	}

	byID := make(map[uuid.UUID]*property.Property, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]*property.Property, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListInBounds returns listings inside b ordered by creation time.
func (s *PostgresStore) ListInBounds(ctx context.Context, b property.Bounds) ([]*property.Property, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4
		ORDER BY created_at
	`, b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	out, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status verification.Status) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE properties SET verification_status = $2 WHERE id = $1
	`, id, string(status))
	if err != nil {
		return fmt.Errorf("update property status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update property status: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProperty(row scanner) (*property.Property, error) {
	var (
		p      property.Property
		owner  uuid.NullUUID
		images pq.StringArray
		status string
	)
	err := row.Scan(&p.ID, &owner, &p.Title, &p.Description, &p.PriceFiat, &p.PropertyType,
		&p.Latitude, &p.Longitude, &p.Area, &p.AreaUnit, &images, &status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if owner.Valid {
		p.OwnerID = owner.UUID
	}
	p.ImageURLs = []string(images)
	p.Status = verification.Status(status)
	return &p, nil
}

func collect(rows *sql.Rows) ([]*property.Property, error) {
	defer rows.Close()
	out := []*property.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
