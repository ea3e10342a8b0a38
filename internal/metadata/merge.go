package metadata

import (
	"sort"
	"strings"
)

// slotStrategy returns the effective strategy of slot in profile.
func slotStrategy(profile *Profile, slot Slot) MergeStrategy {
	if profile != nil {
		if cfg, ok := profile.SlotConfigs[slot]; ok && cfg.MergeStrategy.Valid() {
			return cfg.MergeStrategy
		}
	}
	return DefaultSlotConfig(slot).MergeStrategy
}

// nestedPersonsStrategy is the strategy for the voice actors of characters.
func nestedPersonsStrategy(mt MediaType, profile *Profile) MergeStrategy {
	if IsValidSlot(mt, SlotPersons) {
		return slotStrategy(profile, SlotPersons)
	}
	return MergeMerge
}

// resultsFor returns the non-empty results of slot ordered by priority. Ties
// are broken by provider id so the order never depends on completion order.
func resultsFor(results []SlotResult, slot Slot) []SlotResult {
	out := make([]SlotResult, 0)
	for _, r := range results {
		if r.Slot == slot && !r.Empty() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ProviderID < out[j].ProviderID
	})
	return out
}

// Merge combines slot results into one record according to the profile's
// strategies. Results of equal priority are ordered by provider id. It returns
// nil when the merged record has no name.
func Merge(mt MediaType, profile *Profile, results []SlotResult) *Record {
	rec := &Record{
		MediaType: mt,
		Images:    make(map[Slot][]string),
		Sources:   make(map[Slot][]string),
	}

	for _, slot := range SlotsFor(mt) {
		selected := resultsFor(results, slot)
		if len(selected) == 0 {
			continue
		}
		strategy := slotStrategy(profile, slot)
		if strategy == MergeFirst {
			selected = selected[:1]
		}

		switch {
		case slot == SlotInfo:
			rec.Info = mergeInfo(strategy, selected)
		case slot == SlotTags:
			rec.Tags = mergeTags(strategy, selected)
		case slot == SlotPersons:
			rec.Persons = mergePersons(strategy, selected)
		case slot == SlotCompanies:
			rec.Companies = mergeCompanies(strategy, selected)
		case slot == SlotCharacters:
			rec.Characters = mergeCharacters(strategy, nestedPersonsStrategy(mt, profile), selected)
		case slot.IsImage():
			rec.Images[slot] = mergeImages(strategy, selected)
		}

		sources := make([]string, 0, len(selected))
		for _, r := range selected {
			sources = append(sources, r.ProviderID)
		}
		rec.Sources[slot] = sources
	}

	if strings.TrimSpace(rec.Info.Name) == "" {
		return nil
	}
	return rec
}

func mergeInfo(strategy MergeStrategy, selected []SlotResult) Info {
	out := *selected[0].Info
	if strategy == MergeFirst {
		return out
	}
	for _, r := range selected[1:] {
		out = fuseInfo(out, *r.Info)
	}
	return out
}

func mergeTags(strategy MergeStrategy, selected []SlotResult) []Tag {
	if strategy == MergeFirst {
		return selected[0].Tags
	}
	var out []Tag
	for _, r := range selected {
		out = unionBy(out, r.Tags, tagKey)
	}
	return out
}

func mergePersons(strategy MergeStrategy, selected []SlotResult) []Person {
	lists := make([][]Person, 0, len(selected))
	for _, r := range selected {
		lists = append(lists, r.Persons)
	}
	return combinePersons(strategy, lists)
}

func mergeCompanies(strategy MergeStrategy, selected []SlotResult) []Company {
	if strategy == MergeFirst {
		return selected[0].Companies
	}
	var stream []Company
	for _, r := range selected {
		stream = append(stream, r.Companies...)
	}
	if strategy == MergeAppend {
		return appendDedupe(stream, companyKeys)
	}
	return groupMerge(stream, companyKeys, fuseCompany)
}

func mergeCharacters(strategy, nested MergeStrategy, selected []SlotResult) []Character {
	if strategy == MergeFirst {
		return selected[0].Characters
	}
	var stream []Character
	for _, r := range selected {
		stream = append(stream, r.Characters...)
	}
	if strategy == MergeAppend {
		return appendDedupe(stream, characterKeys)
	}
	return groupMerge(stream, characterKeys, characterFuser(nested))
}

// mergeImages handles image slots, which have no identity beyond the URL:
// append and merge both produce the deduplicated union.
func mergeImages(strategy MergeStrategy, selected []SlotResult) []string {
	if strategy == MergeFirst {
		return selected[0].Images
	}
	var all []string
	for _, r := range selected {
		all = append(all, r.Images...)
	}
	return compactURLs(all)
}
