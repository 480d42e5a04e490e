package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tinywideclouds/go-gcm-service/pkg/dispatch"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

// CacheClient defines the subset of Redis commands we need.
type CacheClient interface {
	// Get returns the value or an error if not found.
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CachedTokenStore is a Decorator that adds read-aside caching to any
// dispatch.TokenStore.
type CachedTokenStore struct {
	realStore dispatch.TokenStore
	cache     CacheClient
	ttl       time.Duration
}

func NewCachedTokenStore(realStore dispatch.TokenStore, cache CacheClient, ttl time.Duration) *CachedTokenStore {
	return &CachedTokenStore{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
	}
}

// --- READ PATH (Read-Aside) ---

func (s *CachedTokenStore) Fetch(ctx context.Context, user urn.URN) ([]string, error) {
	key := s.cacheKey(user)

	var cached []string
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	fresh, err := s.realStore.Fetch(ctx, user)
	if err != nil {
		return nil, err
	}

	// A failed Set still serves from the DB.
	_ = s.cache.Set(ctx, key, fresh, s.ttl)

	return fresh, nil
}

// --- WRITE PATHS (Invalidate-on-Write) ---

func (s *CachedTokenStore) Register(ctx context.Context, user urn.URN, registrationID string) error {
	if err := s.realStore.Register(ctx, user, registrationID); err != nil {
		return err
	}
	return s.invalidate(ctx, user)
}

// Unregister must clear the cache even though the DB write succeeded, or a
// dead id keeps being dispatched to until the TTL expires.
func (s *CachedTokenStore) Unregister(ctx context.Context, user urn.URN, registrationID string) error {
	if err := s.realStore.Unregister(ctx, user, registrationID); err != nil {
		return err
	}
	return s.invalidate(ctx, user)
}

func (s *CachedTokenStore) Replace(ctx context.Context, user urn.URN, oldID, newID string) error {
	if err := s.realStore.Replace(ctx, user, oldID, newID); err != nil {
		return err
	}
	return s.invalidate(ctx, user)
}

func (s *CachedTokenStore) invalidate(ctx context.Context, user urn.URN) error {
	return s.cache.Del(ctx, s.cacheKey(user))
}

func (s *CachedTokenStore) cacheKey(user urn.URN) string {
	return fmt.Sprintf("gcm:registrations:%s", user.String())
}
