package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metadex/metadex/internal/metadata"
)

func TestCache_SetAndGet(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute})

	in := gameProfile("p1")
	cache.Set(in)
	in.Name = "changed after set"

	got, ok := cache.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "Games p1", got.Name)

	got.SlotConfigs[metadata.SlotInfo] = metadata.SlotConfig{}
	again, _ := cache.Get("p1")
	assert.NotEmpty(t, again.SlotConfigs[metadata.SlotInfo].Providers)

	_, ok = cache.Get("missing")
	assert.False(t, ok)
}

func TestCache_Expiration(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: 10 * time.Millisecond})
	cache.Set(gameProfile("p1"))

	time.Sleep(20 * time.Millisecond)

	_, ok := cache.Get("p1")
	assert.False(t, ok)
}

func TestCache_EvictsWhenFull(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: time.Minute, MaxItems: 2})
	cache.Set(gameProfile("a"))
	time.Sleep(time.Millisecond)
	cache.Set(gameProfile("b"))
	time.Sleep(time.Millisecond)
	cache.Set(gameProfile("c"))

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get("a")
	assert.False(t, ok, "entry closest to expiry is evicted")
	_, ok = cache.Get("c")
	assert.True(t, ok)
}

func TestCache_DeleteAndClear(t *testing.T) {
	cache := NewCache(CacheConfig{})
	cache.Set(gameProfile("a"))
	cache.Set(gameProfile("b"))

	cache.Delete("a")
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestCache_RunCleanup(t *testing.T) {
	cache := NewCache(CacheConfig{TTL: 5 * time.Millisecond})
	cache.Set(gameProfile("a"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cache.RunCleanup(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return cache.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

// countingRepo counts loads that reach the underlying store.
type countingRepo struct {
	*Store
	loads int
}

func (r *countingRepo) Load(ctx context.Context, mt metadata.MediaType, id string) (*metadata.Profile, error) {
	r.loads++
	return r.Store.Load(ctx, mt, id)
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{Store: newTestStore(t)}
	store := NewCachedStore(repo, NewCache(CacheConfig{TTL: time.Minute}))

	require.NoError(t, store.Save(ctx, gameProfile("p1")))

	_, err := store.Load(ctx, metadata.MediaTypeGame, "p1")
	require.NoError(t, err)
	_, err = store.Load(ctx, metadata.MediaTypeGame, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.loads)

	t.Run("media type mismatch bypasses cache", func(t *testing.T) {
		_, err := store.Load(ctx, metadata.MediaTypePerson, "p1")
		assert.ErrorIs(t, err, metadata.ErrProfileMediaType)
	})

	t.Run("save invalidates", func(t *testing.T) {
		updated := gameProfile("p1")
		updated.Name = "Renamed"
		require.NoError(t, store.Save(ctx, updated))

		got, err := store.Load(ctx, "", "p1")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
	})

	t.Run("delete invalidates", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "p1"))
		_, err := store.Load(ctx, "", "p1")
		assert.ErrorIs(t, err, metadata.ErrProfileNotFound)
		assert.Equal(t, 0, store.Cache().Len())
	})
}
