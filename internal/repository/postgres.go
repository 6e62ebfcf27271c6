package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamly/portal/internal/domain"
)

var _ ProfileStore = (*PostgresProfileStore)(nil)

// PostgresProfileStore persists one row per user keyed by user_id, with
// scalar columns plus a jsonb mirror of the full profile shape.
type PostgresProfileStore struct {
	pool *pgxpool.Pool
}

func NewPostgresProfileStore(pool *pgxpool.Pool) *PostgresProfileStore {
	return &PostgresProfileStore{pool: pool}
}

const getProfileSQL = `
SELECT user_id, firstname, lastname, email, phone, position, company, industry, url, about, avatar, created_at, updated_at
FROM profile
WHERE user_id = $1`

func (s *PostgresProfileStore) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := s.pool.QueryRow(ctx, getProfileSQL, userID).Scan(
		&p.UserID, &p.Firstname, &p.Lastname, &p.Email, &p.Phone,
		&p.Position, &p.Company, &p.Industry, &p.URL, &p.About, &p.Avatar,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

const upsertProfileSQL = `
INSERT INTO profile (user_id, firstname, lastname, email, phone, position, company, industry, url, about, avatar, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (user_id) DO UPDATE SET
	firstname = EXCLUDED.firstname,
	lastname = EXCLUDED.lastname,
	email = EXCLUDED.email,
	phone = EXCLUDED.phone,
	position = EXCLUDED.position,
	company = EXCLUDED.company,
	industry = EXCLUDED.industry,
	url = EXCLUDED.url,
	about = EXCLUDED.about,
	avatar = EXCLUDED.avatar,
	metadata = EXCLUDED.metadata,
	updated_at = EXCLUDED.updated_at`

func (s *PostgresProfileStore) Upsert(ctx context.Context, profile domain.Profile) error {
	metadata, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx, upsertProfileSQL,
		profile.UserID, profile.Firstname, profile.Lastname, profile.Email,
		profile.Phone, profile.Position, profile.Company, profile.Industry,
		profile.URL, profile.About, profile.Avatar, metadata,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
