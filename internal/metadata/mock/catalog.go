package mock

import "github.com/metadex/metadex/internal/metadata"

// Sample provider ids registered in developer mode.
const (
	GameDBID   = "gamedb"
	ArtbookID  = "artbook"
	CastlistID = "castlist"
)

// SampleProviders returns a small catalog of providers so the service can run
// without external integrations.
func SampleProviders() []*Provider {
	gamedb := New(GameDBID, "GameDB (mock)").
		WithCapabilities(metadata.MediaTypeGame,
			metadata.SlotSearch, metadata.SlotInfo, metadata.SlotTags, metadata.SlotCompanies, metadata.SlotCovers).
		WithEntity("gdb-101", Entity{
			MediaType: metadata.MediaTypeGame,
			Info: &metadata.Info{
				Name:         "Chrono Trigger",
				OriginalName: "クロノ・トリガー",
				Description:  "A time-travel role-playing game.",
				ReleaseDate:  "1995-03-11",
				Platforms:    []string{"SNES"},
				ExternalIDs:  []metadata.ExternalID{{Source: GameDBID, ID: "gdb-101"}},
			},
			Tags: []metadata.Tag{{Name: "RPG", Group: "genre"}, {Name: "Time Travel", Group: "theme"}},
			Companies: []metadata.Company{
				{Name: "Square", Type: "developer", ExternalIDs: []metadata.ExternalID{{Source: GameDBID, ID: "c-1"}}},
				{Name: "Square", Type: "publisher", ExternalIDs: []metadata.ExternalID{{Source: GameDBID, ID: "c-1"}}},
			},
			Images: map[metadata.Slot][]string{
				metadata.SlotCovers: {"https://img.example.com/gamedb/ct-cover.jpg"},
			},
		})

	artbook := New(ArtbookID, "Artbook (mock)").
		WithCapabilities(metadata.MediaTypeGame,
			metadata.SlotSearch, metadata.SlotInfo, metadata.SlotCovers, metadata.SlotBackgrounds, metadata.SlotScreenshots).
		WithEntity("ab-7", Entity{
			MediaType: metadata.MediaTypeGame,
			Info: &metadata.Info{
				Name:         "Chrono Trigger",
				OriginalName: "クロノ・トリガー",
				Rating:       9.6,
				Platforms:    []string{"SNES", "Nintendo DS"},
				Aliases:      []string{"CT"},
			},
			Images: map[metadata.Slot][]string{
				metadata.SlotCovers:      {"https://img.example.com/artbook/ct-cover.png"},
				metadata.SlotBackgrounds: {"https://img.example.com/artbook/ct-bg.png"},
				metadata.SlotScreenshots: {"https://img.example.com/artbook/ct-1.png", "https://img.example.com/artbook/ct-2.png"},
			},
		})

	castlist := New(CastlistID, "Castlist (mock)").
		WithCapabilities(metadata.MediaTypeGame, metadata.SlotSearch, metadata.SlotPersons, metadata.SlotCharacters).
		WithEntity("cl-55", Entity{
			MediaType: metadata.MediaTypeGame,
			Info:      &metadata.Info{Name: "Chrono Trigger", OriginalName: "クロノ・トリガー"},
			Persons: []metadata.Person{
				{Name: "Yasunori Mitsuda", Type: "composer"},
				{Name: "Akira Toriyama", Type: "artist"},
			},
			Characters: []metadata.Character{
				{Name: "Crono", Persons: []metadata.Person{{Name: "Yuri Lowenthal", Type: "voice"}}},
				{Name: "Lucca"},
			},
		})

	return []*Provider{gamedb, artbook, castlist}
}

// SampleProfiles returns profiles matching SampleProviders.
func SampleProfiles() []*metadata.Profile {
	entry := func(id string, priority int) metadata.SlotProviderEntry {
		return metadata.SlotProviderEntry{ProviderID: id, Priority: priority, Enabled: true}
	}
	return []*metadata.Profile{{
		ID:               "sample-games",
		Name:             "Sample games",
		MediaType:        metadata.MediaTypeGame,
		SearchProviderID: GameDBID,
		DefaultLocale:    "en",
		SlotConfigs: map[metadata.Slot]metadata.SlotConfig{
			metadata.SlotInfo: {
				Providers:     []metadata.SlotProviderEntry{entry(GameDBID, 0), entry(ArtbookID, 1)},
				MergeStrategy: metadata.MergeMerge,
			},
			metadata.SlotTags: {
				Providers:     []metadata.SlotProviderEntry{entry(GameDBID, 0)},
				MergeStrategy: metadata.MergeMerge,
			},
			metadata.SlotCompanies: {
				Providers:     []metadata.SlotProviderEntry{entry(GameDBID, 0)},
				MergeStrategy: metadata.MergeMerge,
			},
			metadata.SlotPersons: {
				Providers:     []metadata.SlotProviderEntry{entry(CastlistID, 0)},
				MergeStrategy: metadata.MergeMerge,
			},
			metadata.SlotCharacters: {
				Providers:     []metadata.SlotProviderEntry{entry(CastlistID, 0)},
				MergeStrategy: metadata.MergeMerge,
			},
			metadata.SlotCovers: {
				Providers:     []metadata.SlotProviderEntry{entry(ArtbookID, 0), entry(GameDBID, 1)},
				MergeStrategy: metadata.MergeFirst,
			},
			metadata.SlotScreenshots: {
				Providers:     []metadata.SlotProviderEntry{entry(ArtbookID, 0)},
				MergeStrategy: metadata.MergeAppend,
			},
		},
	}}
}
