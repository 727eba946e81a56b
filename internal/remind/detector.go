package remind

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Reminder-intent trigger phrases. Checked as lowercase substrings;
// longer phrases first so "set a reminder" wins over "reminder".
var triggerPhrases = []string{
	"ponme un recordatorio",
	"ponme una alarma",
	"set a reminder",
	"set an alert",
	"recuérdame",
	"recuerdame",
	"recordarme",
	"avísame",
	"avisame",
	"remind me",
	"notify me",
	"alert me",
}

// Day-offset phrases. "pasado mañana" must be checked before "mañana".
var dayOffsetPhrases = []struct {
	phrase string
	days   int
}{
	{"pasado mañana", 2},
	{"pasado manana", 2},
	{"day after tomorrow", 2},
	{"mañana", 1},
	{"manana", 1},
	{"tomorrow", 1},
}

// Weekday names. When a note names several, the one appearing earliest
// in the text wins, so resolution never depends on table order.
var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"lunes", time.Monday},
	{"martes", time.Tuesday},
	{"miércoles", time.Wednesday},
	{"miercoles", time.Wednesday},
	{"jueves", time.Thursday},
	{"viernes", time.Friday},
	{"sábado", time.Saturday},
	{"sabado", time.Saturday},
	{"domingo", time.Sunday},
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

// Time-of-day idioms that contain "mañana" without meaning tomorrow.
// Excluded before the day-offset phrases are matched.
var morningIdioms = []string{
	"de la mañana",
	"de la manana",
	"por la mañana",
	"por la manana",
	"in the morning",
}

// First HH[:MM] in the text, optionally preceded by "at"/"a las".
var timeRe = regexp.MustCompile(`(?i)\b(?:at\s+|a\s+las?\s+)?(\d{1,2})(?::(\d{2}))?\b`)

// Connector words stripped from the front of the distilled message.
var leadingFillers = map[string]bool{
	"to": true, "que": true, "de": true, "a": true, "para": true, "por": true, "el": true, "la": true,
}

// fallbackDelay fires a reminder with no recognizable time shortly
// after "now" instead of silently dropping it.
const fallbackDelay = 5 * time.Minute

// defaultHour is the delivery hour when a day phrase is present but no
// time is given.
const defaultHour = 9

// Detector extracts reminder intent from note text before any oracle
// call. A positive detection is a hard short-circuit, not a hint.
type Detector struct {
	logger *zap.Logger
}

// NewDetector creates a detector.
func NewDetector(logger *zap.Logger) (*Detector, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Detector{logger: logger}, nil
}

// Detect returns the reminder a note asks for, resolved to an absolute
// fire time relative to now, or false when the note carries no
// reminder intent.
func (d *Detector) Detect(text string, now time.Time) (*Reminder, bool) {
	lower := strings.ToLower(text)

	trigger := ""
	for _, p := range triggerPhrases {
		if strings.Contains(lower, p) {
			trigger = p
			break
		}
	}
	if trigger == "" {
		return nil, false
	}

	dayPhrase, dayDelta := resolveDayOffset(lower, now)
	hour, minute, timePhrase := resolveTime(lower)

	var fireAt time.Time
	switch {
	case timePhrase == "" && dayPhrase == "":
		fireAt = now.Add(fallbackDelay)
	case timePhrase == "":
		fireAt = atTime(now.AddDate(0, 0, dayDelta), defaultHour, 0)
	case dayPhrase == "":
		fireAt = atTime(now, hour, minute)
		if !fireAt.After(now) {
			fireAt = fireAt.AddDate(0, 0, 1)
		}
	default:
		fireAt = atTime(now.AddDate(0, 0, dayDelta), hour, minute)
	}

	message := distillMessage(text, trigger, dayPhrase, timePhrase)
	if message == "" {
		message = strings.TrimSpace(text)
	}

	d.logger.Debug("reminder detected",
		zap.String("trigger", trigger),
		zap.Time("fire_at", fireAt),
		zap.String("message", message),
	)

	r := NewReminder(message, fireAt)
	return &r, true
}

// resolveDayOffset returns the matched day phrase and its offset in
// days from now. "mañana" inside a time-of-day idiom ("a las 9 de la
// mañana") is not a day offset. Weekday names resolve to the next
// strictly-future occurrence: naming today's weekday means next week.
func resolveDayOffset(lower string, now time.Time) (string, int) {
	stripped := lower
	for _, idiom := range morningIdioms {
		stripped = strings.ReplaceAll(stripped, idiom, " ")
	}
	for _, p := range dayOffsetPhrases {
		if strings.Contains(stripped, p.phrase) {
			return p.phrase, p.days
		}
	}

	best, bestPos := "", -1
	var bestDay time.Weekday
	for _, w := range weekdays {
		pos := indexWord(lower, w.name)
		if pos < 0 {
			continue
		}
		if bestPos < 0 || pos < bestPos {
			best, bestPos, bestDay = w.name, pos, w.day
		}
	}
	if best == "" {
		return "", 0
	}
	delta := int(bestDay-now.Weekday()+7) % 7
	if delta == 0 {
		delta = 7
	}
	return best, delta
}

// resolveTime returns the first plausible clock time in the text and
// the full phrase that carried it. Minute defaults to zero.
func resolveTime(lower string) (hour, minute int, phrase string) {
	for _, m := range timeRe.FindAllStringSubmatch(lower, -1) {
		h, err := strconv.Atoi(m[1])
		if err != nil || h > 23 {
			continue
		}
		min := 0
		if m[2] != "" {
			min, err = strconv.Atoi(m[2])
			if err != nil || min > 59 {
				continue
			}
		}
		return h, min, strings.TrimSpace(m[0])
	}
	return 0, 0, ""
}

func atTime(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// distillMessage strips the trigger, day and time phrases plus leading
// connector words, and collapses whitespace.
func distillMessage(text, trigger, dayPhrase, timePhrase string) string {
	msg := removeFold(text, trigger)
	if dayPhrase != "" {
		msg = removeFold(msg, dayPhrase)
	}
	if timePhrase != "" {
		msg = removeFold(msg, timePhrase)
	}
	for _, idiom := range morningIdioms {
		msg = removeFold(msg, idiom)
	}

	words := strings.Fields(msg)
	for len(words) > 0 && leadingFillers[strings.ToLower(words[0])] {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// removeFold removes the first case-insensitive occurrence of phrase.
func removeFold(s, phrase string) string {
	idx := strings.Index(strings.ToLower(s), phrase)
	if idx < 0 {
		return s
	}
	return s[:idx] + s[idx+len(phrase):]
}

// indexWord returns the position of the first occurrence of word in
// lower bounded by non-letter characters, or -1.
func indexWord(lower, word string) int {
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return -1
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(lower[start-1])
		afterOK := end == len(lower) || !isLetter(lower[end])
		if beforeOK && afterOK {
			return start
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
