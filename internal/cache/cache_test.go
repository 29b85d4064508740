package cache_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"profile-service/internal/cache"
	"profile-service/internal/model"
)

func TestProfileCache_SetGetRemove(t *testing.T) {
	c := cache.NewProfileCache(4, time.Minute)
	id := uuid.New()
	name := "Alice"

	_, ok := c.Get(id)
	require.False(t, ok)

	c.Set(id, &model.Profile{ID: id, Name: &name})

	got, ok := c.Get(id)
	require.True(t, ok)
	require.Equal(t, "Alice", *got.Name)

	c.Remove(id)

	_, ok = c.Get(id)
	require.False(t, ok)
}

func TestProfileCache_Expires(t *testing.T) {
	c := cache.NewProfileCache(4, 10*time.Millisecond)
	id := uuid.New()

	c.Set(id, &model.Profile{ID: id})
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get(id)
	require.False(t, ok)
}
