package utils

import (
	"context" // Context for Redis operations
	"strconv" // Key formatting
	"time"    // Cache TTL

	"wallet_auth/internal/domain" // Importing domain models

	"github.com/redis/go-redis/v9" // Redis client
)

// ProfileTTL is how long a cached profile is served before re-reading the store
const ProfileTTL = 60 * time.Second

// ProfileCache caches public user profiles by ID
type ProfileCache struct {
	cache *Cache[domain.User]
}

// NewProfileCache creates a ProfileCache backed by Redis
func NewProfileCache(rdb redis.Cmdable) *ProfileCache {
	return &ProfileCache{cache: NewCache[domain.User](rdb, "auth:profile:")}
}

func profileID(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// Get returns the cached profile, if any
func (p *ProfileCache) Get(ctx context.Context, userID uint) (*domain.User, bool, error) {
	return p.cache.Get(ctx, profileID(userID))
}

// Set caches a profile. The password hash is never serialized.
func (p *ProfileCache) Set(ctx context.Context, user *domain.User) error {
	return p.cache.Set(ctx, profileID(user.ID), *user, ProfileTTL)
}

// Invalidate drops a cached profile after a mutation
func (p *ProfileCache) Invalidate(ctx context.Context, userID uint) error {
	return p.cache.Delete(ctx, profileID(userID))
}
