package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider implements search and info only.
type stubProvider struct {
	id   string
	caps []Capability
}

func (p *stubProvider) ID() string                 { return p.id }
func (p *stubProvider) Name() string               { return "Stub " + p.id }
func (p *stubProvider) Capabilities() []Capability { return p.caps }

func (p *stubProvider) Search(ctx context.Context, mt MediaType, query, locale string) ([]SearchResult, error) {
	return nil, nil
}

func (p *stubProvider) GetInfo(ctx context.Context, mt MediaType, id, locale string) (*Info, error) {
	return nil, nil
}

func stub(id string, caps ...Capability) *stubProvider {
	return &stubProvider{id: id, caps: caps}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(stub("Alpha",
		Capability{MediaTypeGame, SlotSearch},
		Capability{MediaTypeGame, SlotInfo},
		Capability{MediaTypePerson, SlotInfo},
	)))

	assert.True(t, r.Has("alpha"))
	assert.True(t, r.Has(" ALPHA "))
	assert.True(t, r.Supports("alpha", MediaTypeGame, SlotSearch))
	assert.True(t, r.Supports("alpha", MediaTypePerson, SlotInfo))
	assert.False(t, r.Supports("alpha", MediaTypePerson, SlotSearch))
	assert.False(t, r.Supports("missing", MediaTypeGame, SlotInfo))

	providers := r.List()
	require.Len(t, providers, 1)
	assert.Equal(t, "alpha", providers[0].ID)
	assert.Equal(t, []Capability{
		{MediaTypeGame, SlotInfo},
		{MediaTypeGame, SlotSearch},
		{MediaTypePerson, SlotInfo},
	}, providers[0].Capabilities)
}

func TestRegistry_RegisterErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		wantErr  error
	}{
		{"nil provider", nil, ErrInvalidProvider},
		{"empty id", stub("  "), ErrInvalidProvider},
		{"unknown media type", stub("x", Capability{"movie", SlotInfo}), ErrInvalidCapability},
		{"slot not valid for media type", stub("x", Capability{MediaTypePerson, SlotTags}), ErrInvalidCapability},
		{"declared but not implemented", stub("x", Capability{MediaTypeGame, SlotCovers}), ErrCapabilityNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Register(tt.provider)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, r.List())
		})
	}
}

func TestRegistry_DuplicateID(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stub("alpha")))

	err := r.Register(stub("ALPHA"))
	assert.ErrorIs(t, err, ErrProviderAlreadyRegistered)
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stub("alpha")))

	assert.True(t, r.Unregister("Alpha"))
	assert.False(t, r.Unregister("alpha"))
	assert.False(t, r.Has("alpha"))

	_, ok := r.Get("alpha")
	assert.False(t, ok)
}
