package tree

import (
	"strings"
)

// fuzzyMinLen guards substring containment: very short strings like "a"
// or "el" would otherwise match almost anything.
const fuzzyMinLen = 3

// NormalizeText lowercases a string and collapses runs of whitespace
// into single spaces. It is the shared normalization for all fuzzy
// comparisons in the tree.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// SameName reports whether two group or subgroup names are equal under
// case-insensitive comparison.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FuzzyEqual reports whether two idea strings identify the same idea.
// After normalization they are the same idea when equal, or when one
// contains the other and the shorter side is longer than fuzzyMinLen
// characters. The containment direction does not matter; the first
// match wins wherever FuzzyEqual drives a search.
func FuzzyEqual(a, b string) bool {
	na, nb := NormalizeText(a), NormalizeText(b)
	if na == nb {
		return na != ""
	}
	shorter := na
	if len(nb) < len(na) {
		shorter = nb
	}
	if len(shorter) <= fuzzyMinLen {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// containsFuzzy reports whether any entry of ideas fuzzy-matches idea.
func containsFuzzy(ideas []string, idea string) bool {
	for _, have := range ideas {
		if FuzzyEqual(have, idea) {
			return true
		}
	}
	return false
}

// removeFuzzy deletes every entry fuzzy-matching idea, preserving the
// order of the rest. The removed entries are returned for reporting.
func removeFuzzy(ideas []string, idea string) (kept, removed []string) {
	for _, have := range ideas {
		if FuzzyEqual(have, idea) {
			removed = append(removed, have)
			continue
		}
		kept = append(kept, have)
	}
	return kept, removed
}
