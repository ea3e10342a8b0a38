package metadata

import (
	"strings"
	"time"
)

// MediaType identifies the kind of entity a profile or lookup is about.
type MediaType string

const (
	MediaTypeGame      MediaType = "game"
	MediaTypePerson    MediaType = "person"
	MediaTypeCompany   MediaType = "company"
	MediaTypeCharacter MediaType = "character"
)

// AllMediaTypes returns every supported media type in display order.
func AllMediaTypes() []MediaType {
	return []MediaType{MediaTypeGame, MediaTypePerson, MediaTypeCompany, MediaTypeCharacter}
}

// Valid reports whether mt is a supported media type.
func (mt MediaType) Valid() bool {
	_, ok := slotsByMediaType[mt]
	return ok
}

// MergeStrategy controls how the results of several providers for one slot are combined.
type MergeStrategy string

const (
	MergeFirst  MergeStrategy = "first"
	MergeAppend MergeStrategy = "append"
	MergeMerge  MergeStrategy = "merge"
)

// Valid reports whether s is a known strategy.
func (s MergeStrategy) Valid() bool {
	switch s {
	case MergeFirst, MergeAppend, MergeMerge:
		return true
	}
	return false
}

// ExternalID identifies an entity inside one provider's namespace.
type ExternalID struct {
	Source string `json:"source" yaml:"source"`
	ID     string `json:"id" yaml:"id"`
}

// Key returns the identity key of the id. Sources compare case-insensitively, ids exactly.
func (e ExternalID) Key() string {
	return "ext:" + strings.ToLower(strings.TrimSpace(e.Source)) + ":" + strings.TrimSpace(e.ID)
}

// Equal reports whether two ids refer to the same entity.
func (e ExternalID) Equal(other ExternalID) bool {
	return e.Key() == other.Key()
}

func (e ExternalID) empty() bool {
	return strings.TrimSpace(e.Source) == "" || strings.TrimSpace(e.ID) == ""
}

// Link is a related web page of an entity.
type Link struct {
	Label string `json:"label,omitempty"`
	URL   string `json:"url"`
}

// SlotProviderEntry enables one provider for a slot.
type SlotProviderEntry struct {
	ProviderID string `json:"providerId" yaml:"providerId" validate:"required"`
	Priority   int    `json:"priority" yaml:"priority"`
	Enabled    bool   `json:"enabled" yaml:"enabled"`
}

// SlotConfig is the per-slot part of a profile.
type SlotConfig struct {
	Providers     []SlotProviderEntry `json:"providers" yaml:"providers" validate:"dive"`
	MergeStrategy MergeStrategy       `json:"mergeStrategy" yaml:"mergeStrategy"`
}

// Profile is the user-defined aggregation policy for one media type.
type Profile struct {
	ID               string              `json:"id" yaml:"id"`
	Name             string              `json:"name" yaml:"name" validate:"required,max=200"`
	MediaType        MediaType           `json:"mediaType" yaml:"mediaType" validate:"required,oneof=game person company character"`
	SearchProviderID string              `json:"searchProviderId" yaml:"searchProviderId" validate:"required"`
	DefaultLocale    string              `json:"defaultLocale,omitempty" yaml:"defaultLocale"`
	SlotConfigs      map[Slot]SlotConfig `json:"slotConfigs" yaml:"slotConfigs" validate:"dive"`
	CreatedAt        time.Time           `json:"createdAt" yaml:"-"`
	UpdatedAt        time.Time           `json:"updatedAt" yaml:"-"`
}

// Clone returns a deep copy of the profile so callers can normalize it without aliasing.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.SlotConfigs = make(map[Slot]SlotConfig, len(p.SlotConfigs))
	for slot, cfg := range p.SlotConfigs {
		entries := make([]SlotProviderEntry, len(cfg.Providers))
		copy(entries, cfg.Providers)
		out.SlotConfigs[slot] = SlotConfig{Providers: entries, MergeStrategy: cfg.MergeStrategy}
	}
	return &out
}

// Lookup is the caller's description of the entity to aggregate.
type Lookup struct {
	Name     string       `json:"name"`
	KnownIDs []ExternalID `json:"knownIds,omitempty"`
	Locale   string       `json:"locale,omitempty"`
}

// SearchResult is one candidate returned by a provider search.
type SearchResult struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	OriginalName string       `json:"originalName,omitempty"`
	Year         int          `json:"year,omitempty"`
	Description  string       `json:"description,omitempty"`
	ImageURL     string       `json:"imageUrl,omitempty"`
	ExternalIDs  []ExternalID `json:"externalIds,omitempty"`
}

// Info is the scalar record of an entity. Fields that do not apply to a media type stay empty.
type Info struct {
	Name         string       `json:"name"`
	OriginalName string       `json:"originalName,omitempty"`
	Description  string       `json:"description,omitempty"`
	ReleaseDate  string       `json:"releaseDate,omitempty"`
	BirthDate    string       `json:"birthDate,omitempty"`
	DeathDate    string       `json:"deathDate,omitempty"`
	FoundingDate string       `json:"foundingDate,omitempty"`
	Gender       string       `json:"gender,omitempty"`
	Country      string       `json:"country,omitempty"`
	Rating       float64      `json:"rating,omitempty"`
	Platforms    []string     `json:"platforms,omitempty"`
	Aliases      []string     `json:"aliases,omitempty"`
	ExternalIDs  []ExternalID `json:"externalIds,omitempty"`
	RelatedLinks []Link       `json:"relatedLinks,omitempty"`
}

// Tag is a flat label such as a genre or theme.
type Tag struct {
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`
}

// Person is a person related to the entity, e.g. a director of a game or a voice actor of a character.
type Person struct {
	Name         string       `json:"name"`
	OriginalName string       `json:"originalName,omitempty"`
	Type         string       `json:"type,omitempty"`
	Description  string       `json:"description,omitempty"`
	PhotoURL     string       `json:"photoUrl,omitempty"`
	ExternalIDs  []ExternalID `json:"externalIds,omitempty"`
}

// Company is an organization related to the entity, e.g. a developer or publisher.
type Company struct {
	Name         string       `json:"name"`
	OriginalName string       `json:"originalName,omitempty"`
	Type         string       `json:"type,omitempty"`
	Description  string       `json:"description,omitempty"`
	LogoURL      string       `json:"logoUrl,omitempty"`
	ExternalIDs  []ExternalID `json:"externalIds,omitempty"`
}

// Character is a character appearing in the entity. Persons holds its voice actors.
type Character struct {
	Name         string       `json:"name"`
	OriginalName string       `json:"originalName,omitempty"`
	Type         string       `json:"type,omitempty"`
	Description  string       `json:"description,omitempty"`
	PhotoURL     string       `json:"photoUrl,omitempty"`
	ExternalIDs  []ExternalID `json:"externalIds,omitempty"`
	Persons      []Person     `json:"persons,omitempty"`
}

// SlotResult is the output of one provider for one slot. Only the field matching Slot is set.
type SlotResult struct {
	Slot       Slot
	ProviderID string
	Priority   int

	Info       *Info
	Tags       []Tag
	Persons    []Person
	Companies  []Company
	Characters []Character
	Images     []string
}

// Empty reports whether the result carries no usable data.
func (r SlotResult) Empty() bool {
	switch {
	case r.Slot == SlotInfo:
		return r.Info == nil || isZeroInfo(r.Info)
	case r.Slot == SlotTags:
		return len(r.Tags) == 0
	case r.Slot == SlotPersons:
		return len(r.Persons) == 0
	case r.Slot == SlotCompanies:
		return len(r.Companies) == 0
	case r.Slot == SlotCharacters:
		return len(r.Characters) == 0
	case r.Slot.IsImage():
		return len(compactURLs(r.Images)) == 0
	}
	return true
}

// Record is the merged, canonical output of one GetMetadata call.
type Record struct {
	MediaType  MediaType         `json:"mediaType"`
	Info       Info              `json:"info"`
	Tags       []Tag             `json:"tags,omitempty"`
	Persons    []Person          `json:"persons,omitempty"`
	Companies  []Company         `json:"companies,omitempty"`
	Characters []Character       `json:"characters,omitempty"`
	Images     map[Slot][]string `json:"images,omitempty"`
	Sources    map[Slot][]string `json:"sources,omitempty"`
}

func isZeroInfo(info *Info) bool {
	return info.Name == "" && info.OriginalName == "" && info.Description == "" &&
		info.ReleaseDate == "" && info.BirthDate == "" && info.DeathDate == "" &&
		info.FoundingDate == "" && info.Gender == "" && info.Country == "" && info.Rating == 0 &&
		len(info.Platforms) == 0 && len(info.Aliases) == 0 && len(info.ExternalIDs) == 0 &&
		len(info.RelatedLinks) == 0
}
