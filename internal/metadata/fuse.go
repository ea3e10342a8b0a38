package metadata

import "strings"

// Fusing is fill-in-the-blanks: dst keeps every value it already has and
// takes a value from src only where its own is empty. List fields are
// unioned by key with dst's items first.

func fillString(dst *string, src string) {
	if strings.TrimSpace(*dst) == "" && strings.TrimSpace(src) != "" {
		*dst = src
	}
}

func tagKey(t Tag) string { return CompactName(t.Name) }

func linkKey(l Link) string { return strings.TrimSpace(l.URL) }

func urlKey(u string) string { return strings.TrimSpace(u) }

func externalIDKey(e ExternalID) string {
	if e.empty() {
		return ""
	}
	return e.Key()
}

func unionExternalIDs(dst, src []ExternalID) []ExternalID {
	return unionBy(dst, src, externalIDKey)
}

// compactURLs trims URLs, drops empty ones and removes duplicates, keeping the first.
func compactURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// fuseInfo returns dst completed with the fields of src.
func fuseInfo(dst, src Info) Info {
	out := dst
	fillString(&out.Name, src.Name)
	fillString(&out.OriginalName, src.OriginalName)
	fillString(&out.Description, src.Description)
	fillString(&out.ReleaseDate, src.ReleaseDate)
	fillString(&out.BirthDate, src.BirthDate)
	fillString(&out.DeathDate, src.DeathDate)
	fillString(&out.FoundingDate, src.FoundingDate)
	fillString(&out.Gender, src.Gender)
	fillString(&out.Country, src.Country)
	if out.Rating == 0 {
		out.Rating = src.Rating
	}
	out.Platforms = unionBy(dst.Platforms, src.Platforms, NormalizeName)
	out.Aliases = unionBy(dst.Aliases, src.Aliases, CompactName)
	out.ExternalIDs = unionExternalIDs(dst.ExternalIDs, src.ExternalIDs)
	out.RelatedLinks = unionBy(dst.RelatedLinks, src.RelatedLinks, linkKey)
	return out
}

func fusePerson(dst, src Person) Person {
	out := dst
	fillString(&out.Name, src.Name)
	fillString(&out.OriginalName, src.OriginalName)
	fillString(&out.Type, src.Type)
	fillString(&out.Description, src.Description)
	fillString(&out.PhotoURL, src.PhotoURL)
	out.ExternalIDs = unionExternalIDs(dst.ExternalIDs, src.ExternalIDs)
	return out
}

func fuseCompany(dst, src Company) Company {
	out := dst
	fillString(&out.Name, src.Name)
	fillString(&out.OriginalName, src.OriginalName)
	fillString(&out.Type, src.Type)
	fillString(&out.Description, src.Description)
	fillString(&out.LogoURL, src.LogoURL)
	out.ExternalIDs = unionExternalIDs(dst.ExternalIDs, src.ExternalIDs)
	return out
}

// characterFuser returns the fuse function for characters. Nested persons
// are combined with the given strategy.
func characterFuser(persons MergeStrategy) func(dst, src Character) Character {
	return func(dst, src Character) Character {
		out := dst
		fillString(&out.Name, src.Name)
		fillString(&out.OriginalName, src.OriginalName)
		fillString(&out.Type, src.Type)
		fillString(&out.Description, src.Description)
		fillString(&out.PhotoURL, src.PhotoURL)
		out.ExternalIDs = unionExternalIDs(dst.ExternalIDs, src.ExternalIDs)
		out.Persons = combinePersons(persons, [][]Person{dst.Persons, src.Persons})
		return out
	}
}

func personKeys(p Person) []string {
	return identityKeys(identity{Name: p.Name, OriginalName: p.OriginalName, Type: p.Type, ExternalIDs: p.ExternalIDs}, true)
}

func companyKeys(c Company) []string {
	return identityKeys(identity{Name: c.Name, OriginalName: c.OriginalName, Type: c.Type, ExternalIDs: c.ExternalIDs}, true)
}

func characterKeys(c Character) []string {
	return identityKeys(identity{Name: c.Name, OriginalName: c.OriginalName, ExternalIDs: c.ExternalIDs}, false)
}

// combinePersons applies a strategy to person lists given in priority order.
func combinePersons(strategy MergeStrategy, lists [][]Person) []Person {
	switch strategy {
	case MergeFirst:
		for _, list := range lists {
			if len(list) > 0 {
				return list
			}
		}
		return nil
	case MergeAppend:
		return nilIfEmpty(appendDedupe(flatten(lists), personKeys))
	default:
		return nilIfEmpty(groupMerge(flatten(lists), personKeys, fusePerson))
	}
}

func flatten[T any](lists [][]T) []T {
	n := 0
	for _, list := range lists {
		n += len(list)
	}
	out := make([]T, 0, n)
	for _, list := range lists {
		out = append(out, list...)
	}
	return out
}

func nilIfEmpty[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	return items
}
