package worldmodel

import (
	"strings"
	"unicode"
)

// =============================================================================
// Name Normalization and Fuzzy-Match Keys
// =============================================================================

// NormalizeName is the canonical dedup key for entity names: lower case,
// apostrophes removed, other punctuation turned into spaces, whitespace
// collapsed. "Men's Shirts" and "mens shirt" normalize toward each other via
// CandidateKeys.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r == '\'' || r == '’':
			// drop
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var genderedPrefixes = []string{
	"mens ", "men ", "womens ", "women ", "kids ", "boys ", "girls ",
}

var promoSuffixes = []string{
	" sale", " clearance", " new arrivals", " new in",
}

// CandidateKeys expands a name into the set of normalized keys an earlier
// sighting of the same entity might be stored under: the name itself, the
// name with gendered prefixes and promo suffixes stripped, and singular and
// plural toggles of each. The original key is always first.
func CandidateKeys(name string) []string {
	base := NormalizeName(name)
	if base == "" {
		return nil
	}

	seen := map[string]bool{}
	var keys []string
	add := func(k string) {
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	stems := []string{base}
	stripped := base
	for _, prefix := range genderedPrefixes {
		if strings.HasPrefix(stripped, prefix) {
			stripped = strings.TrimPrefix(stripped, prefix)
			break
		}
	}
	for _, suffix := range promoSuffixes {
		if strings.HasSuffix(stripped, suffix) {
			stripped = strings.TrimSuffix(stripped, suffix)
			break
		}
	}
	if stripped != base {
		stems = append(stems, stripped)
	}

	for _, stem := range stems {
		add(stem)
		add(togglePlural(stem))
	}
	return keys
}

// togglePlural flips the last word between singular and plural. A naive s/es
// toggle is enough for catalog nouns; irregulars just fail to match and fall
// through to a fresh entity.
func togglePlural(key string) string {
	words := strings.Fields(key)
	if len(words) == 0 {
		return ""
	}
	last := words[len(words)-1]
	switch {
	case strings.HasSuffix(last, "ses") || strings.HasSuffix(last, "xes") ||
		strings.HasSuffix(last, "ches") || strings.HasSuffix(last, "shes"):
		last = strings.TrimSuffix(last, "es")
	case strings.HasSuffix(last, "s") && len(last) > 2:
		last = strings.TrimSuffix(last, "s")
	default:
		last = last + "s"
	}
	words[len(words)-1] = last
	return strings.Join(words, " ")
}
