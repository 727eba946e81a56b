package classify

import (
	"strings"

	"github.com/rubenlestaa/ideabank/internal/tree"
)

const (
	// Case A accepts a split only when every part is this short.
	maxListItemWords = 4
	// Case B items are even shorter and at least three are required.
	maxTailItemWords = 3
	minTailItems     = 3
)

// Split detects a hidden enumeration in a single add mutation and
// expands it into one mutation per item. It only fires on a
// one-element batch whose mutation is a sensible add; anything else
// comes back untouched.
//
// Case A: the idea field itself is a comma/"y"/"and" separated list of
// short items. Case B: the idea is not a list, but the note text ends
// in an enumeration of at least three short items.
func Split(batch []tree.Mutation, note string) []tree.Mutation {
	if len(batch) != 1 {
		return batch
	}
	m := batch[0]
	if m.Action != tree.ActionAdd || !m.MakesSense {
		return batch
	}

	items := splitIdeaList(m.Idea)
	if items == nil {
		items = splitNoteTail(note)
	}
	if items == nil {
		return batch
	}

	out := make([]tree.Mutation, 0, len(items))
	for i, item := range items {
		mut := m
		mut.Idea = item
		if i > 0 {
			mut.IsNewGroup = false
			mut.IsNewSubgroup = false
			mut.InheritParentIdeas = false
			mut.Rename = nil
		}
		out = append(out, mut)
	}
	return out
}

// splitIdeaList splits an idea that is itself a delimited list. The
// split is accepted only when it yields at least two parts and every
// part is 1 to 4 words; otherwise the idea is kept whole.
func splitIdeaList(idea string) []string {
	if idea == "" {
		return nil
	}
	normalized := normalizeSeparators(idea)
	if !strings.Contains(normalized, ",") {
		return nil
	}

	var items []string
	for _, part := range strings.Split(normalized, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n := len(strings.Fields(part)); n < 1 || n > maxListItemWords {
			return nil
		}
		items = append(items, part)
	}
	if len(items) < 2 {
		return nil
	}
	return items
}

// splitNoteTail reconstructs a trailing enumeration from the note
// itself. Only the leading fragment may run long; it contributes its
// last word as the representative item. A long fragment anywhere else
// means the commas are prose, not a list, and the split is rejected,
// as is a tail of fewer than three items.
func splitNoteTail(note string) []string {
	normalized := normalizeSeparators(note)
	if !strings.Contains(normalized, ",") {
		return nil
	}

	var items []string
	for _, part := range strings.Split(normalized, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		words := strings.Fields(part)
		if len(words) > maxTailItemWords {
			if len(items) > 0 {
				return nil
			}
			part = words[len(words)-1]
		}
		items = append(items, part)
	}
	if len(items) < minTailItems {
		return nil
	}
	return items
}

// normalizeSeparators turns " y "/" and " conjunctions into commas so
// one split pass handles every list shape.
func normalizeSeparators(s string) string {
	out := strings.ReplaceAll(s, " y ", ", ")
	out = strings.ReplaceAll(out, " Y ", ", ")
	out = strings.ReplaceAll(out, " and ", ", ")
	out = strings.ReplaceAll(out, " e ", ", ")
	return out
}
