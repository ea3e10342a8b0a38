package metadata

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Provider is the capability surface every external metadata source implements.
// Fetch support is expressed by implementing the per-slot interfaces below and
// declaring the matching capabilities.
type Provider interface {
	// ID returns the registry-wide unique provider id. It doubles as the
	// ExternalID source of identifiers in this provider's namespace.
	ID() string

	// Name returns the human readable provider name.
	Name() string

	// Capabilities returns the declared (media type, slot) pairs, including SlotSearch.
	Capabilities() []Capability
}

// Capability declares support for one slot (or search) of one media type.
type Capability struct {
	MediaType MediaType `json:"mediaType"`
	Slot      Slot      `json:"slot"`
}

func (c Capability) String() string {
	return string(c.MediaType) + ":" + string(c.Slot)
}

// Searcher finds provider-specific ids by name.
type Searcher interface {
	Search(ctx context.Context, mt MediaType, query, locale string) ([]SearchResult, error)
}

// InfoFetcher returns the scalar record of an entity.
type InfoFetcher interface {
	GetInfo(ctx context.Context, mt MediaType, id, locale string) (*Info, error)
}

// TagsFetcher returns the tags of an entity.
type TagsFetcher interface {
	GetTags(ctx context.Context, mt MediaType, id, locale string) ([]Tag, error)
}

// PersonsFetcher returns persons related to an entity.
type PersonsFetcher interface {
	GetPersons(ctx context.Context, mt MediaType, id, locale string) ([]Person, error)
}

// CompaniesFetcher returns companies related to an entity.
type CompaniesFetcher interface {
	GetCompanies(ctx context.Context, mt MediaType, id, locale string) ([]Company, error)
}

// CharactersFetcher returns characters appearing in an entity.
type CharactersFetcher interface {
	GetCharacters(ctx context.Context, mt MediaType, id, locale string) ([]Character, error)
}

// CoversFetcher returns cover image URLs.
type CoversFetcher interface {
	GetCovers(ctx context.Context, mt MediaType, id, locale string) ([]string, error)
}

// BackgroundsFetcher returns background image URLs.
type BackgroundsFetcher interface {
	GetBackgrounds(ctx context.Context, mt MediaType, id, locale string) ([]string, error)
}

// IconsFetcher returns icon image URLs.
type IconsFetcher interface {
	GetIcons(ctx context.Context, mt MediaType, id, locale string) ([]string, error)
}

// LogosFetcher returns logo image URLs.
type LogosFetcher interface {
	GetLogos(ctx context.Context, mt MediaType, id, locale string) ([]string, error)
}

// ScreenshotsFetcher returns screenshot URLs.
type ScreenshotsFetcher interface {
	GetScreenshots(ctx context.Context, mt MediaType, id, locale string) ([]string, error)
}

// PhotosFetcher returns photo URLs.
type PhotosFetcher interface {
	GetPhotos(ctx context.Context, mt MediaType, id, locale string) ([]string, error)
}

// implementsSlot reports whether p implements the interface backing slot.
func implementsSlot(p Provider, slot Slot) bool {
	var ok bool
	switch slot {
	case SlotSearch:
		_, ok = p.(Searcher)
	case SlotInfo:
		_, ok = p.(InfoFetcher)
	case SlotTags:
		_, ok = p.(TagsFetcher)
	case SlotPersons:
		_, ok = p.(PersonsFetcher)
	case SlotCompanies:
		_, ok = p.(CompaniesFetcher)
	case SlotCharacters:
		_, ok = p.(CharactersFetcher)
	case SlotCovers:
		_, ok = p.(CoversFetcher)
	case SlotBackgrounds:
		_, ok = p.(BackgroundsFetcher)
	case SlotIcons:
		_, ok = p.(IconsFetcher)
	case SlotLogos:
		_, ok = p.(LogosFetcher)
	case SlotScreenshots:
		_, ok = p.(ScreenshotsFetcher)
	case SlotPhotos:
		_, ok = p.(PhotosFetcher)
	}
	return ok
}

// capabilitySet is the validated capability table of a registered provider.
type capabilitySet map[MediaType]map[Slot]bool

// newCapabilitySet validates the declared capabilities of p against the
// interfaces it implements. Declaring a slot without its method is an error.
func newCapabilitySet(p Provider) (capabilitySet, error) {
	set := make(capabilitySet)
	for _, c := range p.Capabilities() {
		if !c.MediaType.Valid() {
			return nil, fmt.Errorf("%w: unknown media type %q", ErrInvalidCapability, c.MediaType)
		}
		if c.Slot != SlotSearch && !IsValidSlot(c.MediaType, c.Slot) {
			return nil, fmt.Errorf("%w: slot %q is not valid for %s", ErrInvalidCapability, c.Slot, c.MediaType)
		}
		if !implementsSlot(p, c.Slot) {
			return nil, fmt.Errorf("%w: %s", ErrCapabilityNotImplemented, c)
		}
		if set[c.MediaType] == nil {
			set[c.MediaType] = make(map[Slot]bool)
		}
		set[c.MediaType][c.Slot] = true
	}
	return set, nil
}

func (s capabilitySet) has(mt MediaType, slot Slot) bool {
	return s[mt][slot]
}

func (s capabilitySet) list() []Capability {
	out := make([]Capability, 0)
	for mt, slots := range s {
		for slot := range slots {
			out = append(out, Capability{MediaType: mt, Slot: slot})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// NormalizeProviderID returns the canonical form of a provider id.
func NormalizeProviderID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
