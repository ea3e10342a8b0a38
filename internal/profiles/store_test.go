package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metadex/metadex/internal/metadata"
	"github.com/metadex/metadex/internal/testutil"
)

func gameProfile(id string) *metadata.Profile {
	return &metadata.Profile{
		ID:               id,
		Name:             "Games " + id,
		MediaType:        metadata.MediaTypeGame,
		SearchProviderID: "gamedb",
		DefaultLocale:    "en-US",
		SlotConfigs: map[metadata.Slot]metadata.SlotConfig{
			metadata.SlotInfo: {
				Providers:     []metadata.SlotProviderEntry{{ProviderID: "gamedb", Priority: 0, Enabled: true}},
				MergeStrategy: metadata.MergeMerge,
			},
			metadata.SlotCovers: {
				Providers:     []metadata.SlotProviderEntry{{ProviderID: "artbook", Priority: 1, Enabled: false}},
				MergeStrategy: metadata.MergeFirst,
			},
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	return NewStore(tdb.Conn)
}

func TestStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	in := gameProfile("p1")
	require.NoError(t, store.Save(ctx, in))
	assert.False(t, in.CreatedAt.IsZero())

	got, err := store.Load(ctx, metadata.MediaTypeGame, "p1")
	require.NoError(t, err)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.SearchProviderID, got.SearchProviderID)
	assert.Equal(t, in.DefaultLocale, got.DefaultLocale)
	assert.Equal(t, in.SlotConfigs, got.SlotConfigs)
	assert.True(t, in.CreatedAt.Equal(got.CreatedAt))

	_, err = store.Load(ctx, "", "p1")
	assert.NoError(t, err)
}

func TestStore_LoadErrors(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Save(ctx, gameProfile("p1")))

	_, err := store.Load(ctx, metadata.MediaTypeGame, "missing")
	assert.ErrorIs(t, err, metadata.ErrProfileNotFound)

	_, err = store.Load(ctx, metadata.MediaTypePerson, "p1")
	assert.ErrorIs(t, err, metadata.ErrProfileMediaType)
}

func TestStore_SaveKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	updated := created.Add(time.Hour)
	store.now = func() time.Time { return created }
	require.NoError(t, store.Save(ctx, gameProfile("p1")))

	store.now = func() time.Time { return updated }
	again := gameProfile("p1")
	again.Name = "Renamed"
	require.NoError(t, store.Save(ctx, again))

	got, err := store.Load(ctx, "", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, created.Equal(got.CreatedAt), "created at %s", got.CreatedAt)
	assert.True(t, updated.Equal(got.UpdatedAt), "updated at %s", got.UpdatedAt)
}

func TestStore_Insert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ok, err := store.Insert(ctx, gameProfile("p1"))
	require.NoError(t, err)
	assert.True(t, ok)

	dup := gameProfile("p1")
	dup.Name = "Other"
	ok, err = store.Insert(ctx, dup)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.Load(ctx, "", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Games p1", got.Name)
}

func TestStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	person := &metadata.Profile{
		ID:               "people",
		Name:             "People",
		MediaType:        metadata.MediaTypePerson,
		SearchProviderID: "castlist",
	}
	require.NoError(t, store.Save(ctx, gameProfile("b")))
	require.NoError(t, store.Save(ctx, gameProfile("a")))
	require.NoError(t, store.Save(ctx, person))

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	games, err := store.List(ctx, metadata.MediaTypeGame)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "a", games[0].ID)
	assert.Equal(t, "b", games[1].ID)

	loaded, err := store.Load(ctx, "", "people")
	require.NoError(t, err)
	assert.NotNil(t, loaded.SlotConfigs)
	assert.Empty(t, loaded.SlotConfigs)

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Load(ctx, "", "a")
	assert.ErrorIs(t, err, metadata.ErrProfileNotFound)
}
