package cache

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"profile-service/internal/model"
)

// ProfileCache is an in-memory LRU of assembled profiles keyed by user ID,
// with time-based expiration as a backstop for missed invalidation events.
type ProfileCache struct {
	lru *expirable.LRU[uuid.UUID, *model.Profile]
}

// NewProfileCache creates a cache holding at most size profiles, each living
// at most ttl before a read goes back to the stores.
func NewProfileCache(size int, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		lru: expirable.NewLRU[uuid.UUID, *model.Profile](size, nil, ttl),
	}
}

func (c *ProfileCache) Get(userID uuid.UUID) (*model.Profile, bool) {
	return c.lru.Get(userID)
}

func (c *ProfileCache) Set(userID uuid.UUID, profile *model.Profile) {
	c.lru.Add(userID, profile)
}

func (c *ProfileCache) Remove(userID uuid.UUID) {
	c.lru.Remove(userID)
}
