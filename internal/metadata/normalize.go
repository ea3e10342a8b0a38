package metadata

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips diacritics and applies compatibility folding
// (full-width forms, ligatures). Transformers keep state, so build one per call.
func foldTransformer() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// NormalizeName lowercases, folds diacritics and collapses whitespace.
// "Pokémon  Ｒｅｄ" and "pokemon red" normalize to the same string.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	folded, _, err := transform.String(foldTransformer(), name)
	if err != nil {
		folded = name
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// CompactName is NormalizeName with every non letter/digit rune removed, so
// punctuation and spacing differences ("Half-Life 2" vs "HalfLife2") do not matter.
func CompactName(name string) string {
	normalized := NormalizeName(name)
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeType(t string) string {
	return strings.Join(strings.Fields(strings.ToLower(t)), "_")
}

// NormalizeLocale canonicalizes a BCP 47 tag ("en_us" -> "en-US").
// Unparseable input yields "".
func NormalizeLocale(locale string) string {
	locale = strings.TrimSpace(strings.ReplaceAll(locale, "_", "-"))
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	return tag.String()
}
