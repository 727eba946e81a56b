// Package decode recovers structured JSON values from raw language
// model output that may be truncated, wrapped in prose or markdown
// fences, or missing closing delimiters.
package decode

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// DecodeError reports that no repair strategy produced parseable JSON.
// It carries the original text for diagnostics and is semantically
// distinct from the model declining to classify: one is unreadable
// output, the other is a readable "no".
type DecodeError struct {
	Raw string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("no valid JSON found in model response (%d bytes)", len(e.Raw))
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\}|\\[.*?\\])\\s*```")

// Extract recovers a JSON value (object or array) from arbitrary model
// output. Repair strategies run cheapest first so that aggressive
// substring extraction never masks a well-formed response:
//
//  1. the trimmed text as-is
//  2. newlines inside string literals replaced with spaces
//  3. unclosed quotes/brackets/braces appended
//  4. both repairs together
//  5. the contents of a fenced code block, through 1-4 again
//  6. first "{" to last "}" substring, through 1-4
//  7. first "[" to last "]" substring, through 1-4
//
// On failure it returns a *DecodeError carrying the original text.
func Extract(text string) (any, error) {
	trimmed := strings.TrimSpace(text)

	if v, ok := tryParse(trimmed); ok {
		return v, nil
	}

	if m := fencedBlockRe.FindStringSubmatch(trimmed); m != nil {
		if v, ok := tryParse(m[1]); ok {
			return v, nil
		}
	}

	if v, ok := tryParse(delimitedChunk(trimmed, '{', '}')); ok {
		return v, nil
	}
	if v, ok := tryParse(delimitedChunk(trimmed, '[', ']')); ok {
		return v, nil
	}

	return nil, &DecodeError{Raw: text}
}

// tryParse attempts the text as-is, sanitized, closed, and
// sanitized+closed, in that order.
func tryParse(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	for _, candidate := range []string{s, sanitizeStrings(s), closeIncomplete(s), closeIncomplete(sanitizeStrings(s))} {
		var v any
		if err := json.Unmarshal([]byte(candidate), &v); err == nil {
			switch v.(type) {
			case map[string]any, []any:
				return v, true
			}
		}
	}
	return nil, false
}

// sanitizeStrings replaces literal newlines occurring inside quoted
// strings with single spaces. The scan tracks escape state so escaped
// quotes do not flip the in-string flag.
func sanitizeStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for _, c := range s {
		switch {
		case escaped:
			b.WriteRune(c)
			escaped = false
		case c == '\\':
			b.WriteRune(c)
			escaped = true
		case c == '"':
			b.WriteRune(c)
			inString = !inString
		case (c == '\n' || c == '\r') && inString:
			b.WriteRune(' ')
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// closeIncomplete appends the closing delimiters a truncated response
// is missing: a closing quote when the unescaped-quote count is odd,
// then one "]" or "}" per unmatched opener.
func closeIncomplete(s string) string {
	openBraces := strings.Count(s, "{") - strings.Count(s, "}")
	openBrackets := strings.Count(s, "[") - strings.Count(s, "]")

	if countUnescapedQuotes(s)%2 != 0 {
		s += `"`
	}
	if openBrackets > 0 {
		s += strings.Repeat("]", openBrackets)
	}
	if openBraces > 0 {
		s += strings.Repeat("}", openBraces)
	}
	return s
}

func countUnescapedQuotes(s string) int {
	n := 0
	escaped := false
	for _, c := range s {
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			n++
		}
	}
	return n
}

// delimitedChunk returns the substring from the first open delimiter to
// the last close delimiter, or to the end of the text when the closer
// is missing (a truncated response).
func delimitedChunk(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(s, close)
	if end > start {
		return s[start : end+1]
	}
	return s[start:]
}
