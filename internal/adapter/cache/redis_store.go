package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/streamly/portal/internal/domain"
	"github.com/streamly/portal/internal/repository"
)

const (
	portalHashKey    = "portals"
	profileKeyPrefix = "profile:"
)

// RedisStore implements the cache tier: the portal-by-domain hash and the
// per-user profile keys. Profile keys carry no expiry; the write path simply
// overwrites them.
type RedisStore struct {
	client redis.UniversalClient
}

var (
	_ repository.ProfileCache = (*RedisStore)(nil)
	_ repository.TenantCache  = (*RedisStore)(nil)
)

// NewRedisStore constructs the redis-backed cache adapter.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// GetByDomain loads the portal configuration stored under the exact hostname.
func (s *RedisStore) GetByDomain(ctx context.Context, host string) (*domain.Tenant, error) {
	payload, err := s.client.HGet(ctx, portalHashKey, host).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load portal: %w", err)
	}
	var tenant domain.Tenant
	if err := json.Unmarshal(payload, &tenant); err != nil {
		return nil, fmt.Errorf("decode portal %q: %w", host, err)
	}
	return &tenant, nil
}

// Get loads the cached profile record for userID.
func (s *RedisStore) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	payload, err := s.client.Get(ctx, profileKeyPrefix+userID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	var profile domain.Profile
	if err := json.Unmarshal(payload, &profile); err != nil {
		return nil, fmt.Errorf("decode profile %q: %w", userID, err)
	}
	return &profile, nil
}

// Set overwrites the cached profile record.
func (s *RedisStore) Set(ctx context.Context, profile domain.Profile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := s.client.Set(ctx, profileKeyPrefix+profile.UserID, payload, 0).Err(); err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return nil
}
