// Package analysis turns free-form model output into a structured daily
// reflection record, and builds the rubric prompt that produces it.
package analysis

import (
	"regexp"
	"strconv"
	"strings"
)

// Placeholder is substituted for any section the model output never names.
const Placeholder = "No specific points mentioned."

// DefaultRating is used when the rating is missing, unparseable or out of range.
const DefaultRating = 7

// Record is the structured result of parsing one model reply. Every field is
// always populated: text fields fall back to Placeholder and DayRating to
// DefaultRating, so a Record is never partially valid.
type Record struct {
	Gratitude        string
	TimeWasted       string
	GoodUse          string
	MemorableMoments string
	Suggestions      string
	HabitPatterns    string
	DaySummary       string
	DayRating        int
}

// Section keys, in emission order. The rating is not a spoken section and is
// deliberately absent from SectionKeys.
const (
	KeyGratitude        = "gratitude"
	KeyTimeWasted       = "time_wasted"
	KeyGoodUse          = "good_use"
	KeyMemorableMoments = "memorable_moments"
	KeySuggestions      = "suggestions"
	KeyHabitPatterns    = "habit_patterns"
	KeyDaySummary       = "day_summary"
	keyDayRating        = "day_rating"
)

// SectionKeys lists the seven text sections in the order they are emitted.
var SectionKeys = []string{
	KeyGratitude,
	KeyTimeWasted,
	KeyGoodUse,
	KeyMemorableMoments,
	KeySuggestions,
	KeyHabitPatterns,
	KeyDaySummary,
}

// fieldSpec binds a section key to the literal header variants that introduce
// it in model output. Declaration order is part of the parsing contract: when
// two headers start at the same position, the earlier field claims it.
type fieldSpec struct {
	key     string
	headers []string
}

var fields = []fieldSpec{
	{KeyGratitude, []string{"GRATITUDE:", "THINGS TO BE GRATEFUL FOR:"}},
	{KeyTimeWasted, []string{"TIME INEFFICIENCY:", "TIME WASTED:"}},
	{KeyGoodUse, []string{"GOOD USE OF TIME:", "GOOD USE:"}},
	{KeyMemorableMoments, []string{"MEMORABLE MOMENTS:"}},
	{KeySuggestions, []string{"SUGGESTIONS FOR IMPROVEMENT:", "SUGGESTIONS:"}},
	{KeyHabitPatterns, []string{"HABIT PATTERN ANALYSIS:"}},
	{KeyDaySummary, []string{"DAY SUMMARY", "DAY SUMMARY (AS A STORY):"}},
	{keyDayRating, []string{"DAY RATING:", "RATING:"}},
}

var ratingPattern = regexp.MustCompile(`(\d+)(?:/10)?`)

// Parse extracts the eight sections from raw model output. It is a total
// function: structure the model failed to produce degrades to placeholders,
// never to an error.
//
// Headers are matched by case-sensitive substring containment. A field's
// content runs from just after its first matching header variant to the
// earliest occurrence of any header variant of any field, or to the end of
// the text.
func Parse(text string) Record {
	extracted := make(map[string]string, len(fields))

	for _, f := range fields {
		for _, header := range f.headers {
			start := strings.Index(text, header)
			if start < 0 {
				continue
			}
			content := text[start+len(header):]

			// Truncate at the next header of any field, resolved or not.
			end := len(content)
			for _, other := range fields {
				for _, h := range other.headers {
					if pos := strings.Index(content, h); pos >= 0 && pos < end {
						end = pos
					}
				}
			}

			extracted[f.key] = strings.TrimSpace(content[:end])
			break
		}
	}

	rec := Record{
		Gratitude:        textOrPlaceholder(extracted[KeyGratitude]),
		TimeWasted:       textOrPlaceholder(extracted[KeyTimeWasted]),
		GoodUse:          textOrPlaceholder(extracted[KeyGoodUse]),
		MemorableMoments: textOrPlaceholder(extracted[KeyMemorableMoments]),
		Suggestions:      textOrPlaceholder(extracted[KeySuggestions]),
		HabitPatterns:    textOrPlaceholder(extracted[KeyHabitPatterns]),
		DaySummary:       textOrPlaceholder(extracted[KeyDaySummary]),
		DayRating:        parseRating(extracted[keyDayRating]),
	}
	return rec
}

// Section returns the text of the named section. Unknown keys return the
// placeholder so callers iterating SectionKeys never see an empty string.
func (r Record) Section(key string) string {
	switch key {
	case KeyGratitude:
		return r.Gratitude
	case KeyTimeWasted:
		return r.TimeWasted
	case KeyGoodUse:
		return r.GoodUse
	case KeyMemorableMoments:
		return r.MemorableMoments
	case KeySuggestions:
		return r.Suggestions
	case KeyHabitPatterns:
		return r.HabitPatterns
	case KeyDaySummary:
		return r.DaySummary
	}
	return Placeholder
}

func textOrPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// parseRating normalizes the extracted rating text ("8", "8/10", "a solid
// 9/10!") to an integer in [1,10], falling back to DefaultRating.
func parseRating(s string) int {
	m := ratingPattern.FindStringSubmatch(s)
	if m == nil {
		return DefaultRating
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 10 {
		return DefaultRating
	}
	return n
}
