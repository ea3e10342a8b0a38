package profiles

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metadex/metadex/internal/metadata"
)

type providerSet map[string]bool

func (p providerSet) HasProvider(id string) bool {
	return p[metadata.NormalizeProviderID(id)]
}

type recordedEvent struct {
	msgType string
	payload interface{}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) Broadcast(msgType string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{msgType, payload})
	return nil
}

func newTestService(t *testing.T) (*Service, *recordingBroadcaster) {
	t.Helper()
	logger := zerolog.Nop()
	svc := NewService(newTestStore(t), providerSet{"gamedb": true, "artbook": true, "castlist": true}, &logger)
	b := &recordingBroadcaster{}
	svc.SetBroadcaster(b)
	return svc, b
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, b := newTestService(t)

	input := gameProfile("")
	input.Name = "  Games  "
	input.MediaType = "GAME"
	input.SearchProviderID = " GameDB "
	input.DefaultLocale = "ja_jp"

	created, err := svc.Create(ctx, input)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Games", created.Name)
	assert.Equal(t, metadata.MediaTypeGame, created.MediaType)
	assert.Equal(t, "gamedb", created.SearchProviderID)
	assert.Equal(t, "ja-JP", created.DefaultLocale)
	assert.Len(t, created.SlotConfigs, len(metadata.SlotsFor(metadata.MediaTypeGame)))

	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.SlotConfigs, stored.SlotConfigs)

	require.Len(t, b.events, 1)
	assert.Equal(t, metadata.EventProfileUpdated, b.events[0].msgType)
}

func TestService_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Create(ctx, gameProfile("games"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, gameProfile("games"))
	assert.ErrorIs(t, err, ErrDuplicateProfile)
}

func TestService_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *metadata.Profile)
		wantErr error
	}{
		{"missing name", func(p *metadata.Profile) { p.Name = " " }, ErrInvalidProfile},
		{"unknown media type", func(p *metadata.Profile) { p.MediaType = "movie" }, ErrInvalidProfile},
		{"missing search provider", func(p *metadata.Profile) { p.SearchProviderID = "" }, ErrInvalidProfile},
		{"unregistered search provider", func(p *metadata.Profile) { p.SearchProviderID = "nope" }, ErrUnknownSearchProvider},
		{"slot not valid for media type", func(p *metadata.Profile) {
			p.SlotConfigs[metadata.SlotPhotos] = metadata.SlotConfig{}
		}, metadata.ErrInvalidSlot},
		{"unknown merge strategy", func(p *metadata.Profile) {
			p.SlotConfigs[metadata.SlotTags] = metadata.SlotConfig{MergeStrategy: "zip"}
		}, ErrInvalidProfile},
		{"entry without provider id", func(p *metadata.Profile) {
			p.SlotConfigs[metadata.SlotTags] = metadata.SlotConfig{Providers: []metadata.SlotProviderEntry{{Enabled: true}}}
		}, ErrInvalidProfile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			p := gameProfile("p1")
			tt.mutate(p)

			_, err := svc.Create(context.Background(), p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("nil input", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Create(context.Background(), nil)
		assert.ErrorIs(t, err, ErrInvalidProfile)
	})
}

func TestService_CreateDropsUnregisteredEntries(t *testing.T) {
	svc, _ := newTestService(t)
	p := gameProfile("p1")
	p.SlotConfigs[metadata.SlotTags] = metadata.SlotConfig{
		Providers: []metadata.SlotProviderEntry{
			{ProviderID: "gamedb", Enabled: true},
			{ProviderID: "retired", Enabled: true},
		},
		MergeStrategy: metadata.MergeAppend,
	}

	created, err := svc.Create(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []metadata.SlotProviderEntry{{ProviderID: "gamedb", Enabled: true}},
		created.SlotConfigs[metadata.SlotTags].Providers)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Create(ctx, gameProfile("games"))
	require.NoError(t, err)

	change := gameProfile("ignored")
	change.Name = "Renamed"
	updated, err := svc.Update(ctx, "games", change)
	require.NoError(t, err)
	assert.Equal(t, "games", updated.ID)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	t.Run("media type is fixed", func(t *testing.T) {
		person := &metadata.Profile{Name: "x", MediaType: metadata.MediaTypePerson, SearchProviderID: "castlist"}
		_, err := svc.Update(ctx, "games", person)
		assert.ErrorIs(t, err, metadata.ErrProfileMediaType)
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := svc.Update(ctx, "missing", gameProfile("missing"))
		assert.ErrorIs(t, err, metadata.ErrProfileNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, b := newTestService(t)

	_, err := svc.Create(ctx, gameProfile("games"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "games"))
	assert.ErrorIs(t, svc.Delete(ctx, "games"), metadata.ErrProfileNotFound)

	require.Len(t, b.events, 2)
	assert.Equal(t, metadata.EventProfileDeleted, b.events[1].msgType)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Create(ctx, gameProfile("games"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, &metadata.Profile{ID: "people", Name: "People", MediaType: metadata.MediaTypePerson, SearchProviderID: "castlist"})
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	people, err := svc.List(ctx, metadata.MediaTypePerson)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "people", people[0].ID)

	_, err = svc.List(ctx, "movie")
	assert.ErrorIs(t, err, metadata.ErrInvalidMediaType)
}

func TestService_Seed(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	existing := gameProfile("games")
	existing.Name = "Customized"
	_, err := svc.Create(ctx, existing)
	require.NoError(t, err)

	seeds, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	invalid := gameProfile("broken")
	invalid.SearchProviderID = "nope"
	seeds = append(seeds, invalid)

	n, err := svc.Seed(ctx, seeds)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	kept, err := svc.Get(ctx, "games")
	require.NoError(t, err)
	assert.Equal(t, "Customized", kept.Name, "seeding never overwrites")

	_, err = svc.Get(ctx, "people")
	assert.NoError(t, err)
	_, err = svc.Get(ctx, "broken")
	assert.ErrorIs(t, err, metadata.ErrProfileNotFound)
}
