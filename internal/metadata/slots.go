package metadata

// Slot is a named category of metadata.
type Slot string

const (
	SlotInfo       Slot = "info"
	SlotTags       Slot = "tags"
	SlotCompanies  Slot = "companies"
	SlotPersons    Slot = "persons"
	SlotCharacters Slot = "characters"

	SlotCovers      Slot = "covers"
	SlotBackgrounds Slot = "backgrounds"
	SlotIcons       Slot = "icons"
	SlotLogos       Slot = "logos"
	SlotScreenshots Slot = "screenshots"
	SlotPhotos      Slot = "photos"

	// SlotSearch is the pseudo-slot used in capability declarations for search support.
	SlotSearch Slot = "search"
)

// slotsByMediaType lists the valid slots of each media type in processing order.
var slotsByMediaType = map[MediaType][]Slot{
	MediaTypeGame: {
		SlotInfo, SlotTags, SlotCompanies, SlotPersons, SlotCharacters,
		SlotCovers, SlotBackgrounds, SlotIcons, SlotLogos, SlotScreenshots,
	},
	MediaTypePerson:    {SlotInfo, SlotPhotos},
	MediaTypeCompany:   {SlotInfo, SlotLogos},
	MediaTypeCharacter: {SlotInfo, SlotPersons, SlotPhotos},
}

var imageSlots = map[Slot]bool{
	SlotCovers:      true,
	SlotBackgrounds: true,
	SlotIcons:       true,
	SlotLogos:       true,
	SlotScreenshots: true,
	SlotPhotos:      true,
}

// typedSlots hold relations whose Type participates in identity:
// an actor and a director are never folded together.
var typedSlots = map[Slot]bool{
	SlotPersons:   true,
	SlotCompanies: true,
}

// SlotsFor returns the valid slots for mt in processing order.
func SlotsFor(mt MediaType) []Slot {
	slots := slotsByMediaType[mt]
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out
}

// IsValidSlot reports whether slot belongs to mt.
func IsValidSlot(mt MediaType, slot Slot) bool {
	for _, s := range slotsByMediaType[mt] {
		if s == slot {
			return true
		}
	}
	return false
}

// IsImage reports whether the slot holds a plain list of image URLs.
func (s Slot) IsImage() bool {
	return imageSlots[s]
}

// IsTyped reports whether the relation type of the slot's entities is part of their identity.
func (s Slot) IsTyped() bool {
	return typedSlots[s]
}

// DefaultSlotConfig returns the configuration used for slots missing from a profile.
func DefaultSlotConfig(slot Slot) SlotConfig {
	if slot.IsImage() {
		return SlotConfig{Providers: []SlotProviderEntry{}, MergeStrategy: MergeFirst}
	}
	return SlotConfig{Providers: []SlotProviderEntry{}, MergeStrategy: MergeMerge}
}
