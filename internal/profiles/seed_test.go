package profiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metadex/metadex/internal/metadata"
)

const seedYAML = `
profiles:
  - id: games
    name: Games
    mediaType: game
    searchProviderId: gamedb
    defaultLocale: ja-JP
    slotConfigs:
      info:
        mergeStrategy: merge
        providers:
          - providerId: gamedb
            priority: 0
            enabled: true
          - providerId: artbook
            priority: 1
            enabled: true
  - id: people
    name: People
    mediaType: person
    searchProviderId: castlist
`

func TestParseSeed(t *testing.T) {
	profiles, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	games := profiles[0]
	assert.Equal(t, "games", games.ID)
	assert.Equal(t, metadata.MediaTypeGame, games.MediaType)
	assert.Equal(t, "ja-JP", games.DefaultLocale)
	assert.Equal(t, metadata.SlotConfig{
		Providers: []metadata.SlotProviderEntry{
			{ProviderID: "gamedb", Priority: 0, Enabled: true},
			{ProviderID: "artbook", Priority: 1, Enabled: true},
		},
		MergeStrategy: metadata.MergeMerge,
	}, games.SlotConfigs[metadata.SlotInfo])

	assert.Equal(t, "people", profiles[1].ID)
	assert.Empty(t, profiles[1].SlotConfigs)
}

func TestParseSeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "profiles: [unclosed"},
		{"missing id", "profiles:\n  - name: No ID\n    mediaType: game\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	profiles, err := LoadSeedFile(path)
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	_, err = LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
