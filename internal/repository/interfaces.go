package repository

import (
	"context"

	"github.com/streamly/portal/internal/domain"
)

// ProfileStore exposes the relational tier. It is authoritative for long-term
// storage; a nil result with nil error means no row exists yet.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Upsert(ctx context.Context, profile domain.Profile) error
}

// ProfileCache exposes the key-value tier keyed by userId.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Set(ctx context.Context, profile domain.Profile) error
}

// TenantCache resolves portal configuration by stripped hostname. A missing
// entry returns (nil, nil), not an error.
type TenantCache interface {
	GetByDomain(ctx context.Context, host string) (*domain.Tenant, error)
}
