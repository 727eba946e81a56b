package classify

import (
	"strings"
)

// Maximum size of a distilled idea, in words.
const (
	meaningfulTokenCap = 4
	ideaWordCap        = 5
	overlapThreshold   = 0.65
)

// DistillIdea reduces an oracle idea to its essential core. The idea
// must never be the verbatim note: leading intent fillers are
// stripped, an idea whose tokens overlap the note's beyond the
// threshold keeps only its first four meaningful tokens, and the
// result is capped at five words. An idea that turns out to be a
// group/subgroup management command distills to "".
func DistillIdea(idea, note string) string {
	if idea == "" {
		return ""
	}

	trimmed := strings.TrimSpace(fillerRe.ReplaceAllString(idea, ""))

	words := strings.Fields(trimmed)
	if len(words) > meaningfulTokenCap && note != "" {
		trimmed = condenseLiteral(trimmed, note)
	}

	if w := strings.Fields(trimmed); len(w) > ideaWordCap {
		trimmed = strings.Join(w[:ideaWordCap], " ")
	}

	if isCreationCommand(trimmed) {
		return ""
	}
	// Guard against the idea still being the whole note.
	if normalizeTokens(trimmed) == normalizeTokens(note) {
		return ""
	}
	return trimmed
}

// condenseLiteral shrinks an idea that is too literal a copy of the
// note down to its first four meaningful tokens, keeping each token's
// original capitalization.
func condenseLiteral(idea, note string) string {
	noteTokens := make(map[string]bool)
	for _, t := range wordRe.FindAllString(strings.ToLower(note), -1) {
		if !stopwordsES[t] {
			noteTokens[t] = true
		}
	}
	if len(noteTokens) == 0 {
		return idea
	}

	var ideaTokens []string
	for _, t := range wordRe.FindAllString(strings.ToLower(idea), -1) {
		if !stopwordsES[t] {
			ideaTokens = append(ideaTokens, t)
		}
	}
	if len(ideaTokens) == 0 {
		return idea
	}

	overlap := 0
	seen := make(map[string]bool)
	for _, t := range ideaTokens {
		if noteTokens[t] && !seen[t] {
			overlap++
			seen[t] = true
		}
	}
	if float64(overlap)/float64(len(ideaTokens)) < overlapThreshold {
		return idea
	}

	meaningful := ideaTokens
	if len(meaningful) > meaningfulTokenCap {
		meaningful = meaningful[:meaningfulTokenCap]
	}

	originals := strings.Fields(idea)
	var out []string
	for _, token := range meaningful {
		out = append(out, originalCasing(originals, token))
	}
	if len(out) == 0 {
		return idea
	}
	return strings.Join(out, " ")
}

// originalCasing returns the first word of the idea whose lowercase
// token form matches, so "alien" comes back as "Alien".
func originalCasing(words []string, token string) string {
	for _, w := range words {
		if t := wordRe.FindString(strings.ToLower(w)); t == token {
			return strings.Trim(w, ",.;:!?")
		}
	}
	return token
}

// isCreationCommand reports whether the idea is really a group or
// subgroup management command rather than content.
func isCreationCommand(idea string) bool {
	if idea == "" {
		return false
	}
	lower := strings.ToLower(idea)
	for _, kw := range creationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if commandVerbRe.MatchString(strings.TrimSpace(idea)) {
		return true
	}
	tokens := strings.Fields(lower)
	if len(tokens) > meaningfulTokenCap {
		tokens = tokens[:meaningfulTokenCap]
	}
	for _, t := range tokens {
		if structureWords[strings.Trim(t, ",.;:!?")] {
			return true
		}
	}
	return false
}

// normalizeTokens joins the lowercase word tokens of s, making the
// verbatim-note comparison robust to punctuation and spacing.
func normalizeTokens(s string) string {
	return strings.Join(wordRe.FindAllString(strings.ToLower(s), -1), " ")
}
