package interpret

import (
	"regexp"
	"strings"
	"time"
)

// span is a half-open [start, end) byte range in the original input.
type span struct {
	start, end int
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// draft accumulates filter values while rules run. Rules only ever set a
// field that is still zero, so earlier rules win on conflict.
type draft struct {
	speaker      string
	sentimentMin *float64
	sentimentMax *float64
	dateFrom     *time.Time
	dateTo       *time.Time
}

// rule inspects the original, immutable input and returns the spans it
// claims. Claimed spans are excluded from the retained query text; a span
// overlapping an earlier rule's claim is discarded before apply is called.
type rule struct {
	name string
	// extract returns candidate spans paired with an effect on the draft.
	// The effect of a candidate whose span was discarded is not applied.
	extract func(text string, now time.Time) []candidate
}

type candidate struct {
	span  span
	apply func(*draft)
}

var (
	// "by <Name>", "from <Name>", "said by <Name>" — the name must look
	// like a proper noun (capitalized words, at most three).
	speakerByRe = regexp.MustCompile(
		`\b(?:[Ss]aid\s+[Bb]y|[Bb]y|[Ff]rom)\s+([A-Z][\w'-]*(?:\s+[A-Z][\w'-]*){0,2})`)
	// "<Name> said", "<Name> spoke about"
	speakerSaidRe = regexp.MustCompile(
		`\b([A-Z][\w'-]*(?:\s+[A-Z][\w'-]*){0,2})\s+(?:said|spoke(?:\s+about)?)\b`)

	positiveSentimentRe = regexp.MustCompile(`(?i)\bpositive\s+(?:sentiment|tone)\b`)
	negativeSentimentRe = regexp.MustCompile(`(?i)\bnegative\s+(?:sentiment|tone)\b`)

	recentRe   = regexp.MustCompile(`(?i)\b(?:recent|latest)\b`)
	lastYearRe = regexp.MustCompile(`(?i)\blast\s+year\b`)

	semanticCueRe = regexp.MustCompile(`(?i)\b(?:similar|like|related)\b`)
	lexicalCueRe  = regexp.MustCompile(`(?i)\b(?:exact|exactly|precisely)\b`)

	wordRe = regexp.MustCompile(`\S+`)
)

// Sentiment bounds applied by the sentiment rule.
const (
	positiveSentimentFloor = 0.1
	negativeSentimentCeil  = -0.1
)

// extractionRules is the fixed priority order. Overlapping spans resolve in
// favor of the earlier rule.
var extractionRules = []rule{
	{name: "speaker", extract: extractSpeaker},
	{name: "sentiment", extract: extractSentiment},
	{name: "temporal", extract: extractTemporal},
}

// extractSpeaker finds the speaker name. The "by <name>" form takes
// precedence over "<name> said"; the first match wins and later matches
// are ignored entirely.
func extractSpeaker(text string, _ time.Time) []candidate {
	if loc := speakerByRe.FindStringSubmatchIndex(text); loc != nil {
		name := text[loc[2]:loc[3]]
		return []candidate{{
			span:  span{loc[0], loc[1]},
			apply: func(d *draft) { d.speaker = name },
		}}
	}
	if loc := speakerSaidRe.FindStringSubmatchIndex(text); loc != nil {
		name := text[loc[2]:loc[3]]
		return []candidate{{
			span:  span{loc[0], loc[1]},
			apply: func(d *draft) { d.speaker = name },
		}}
	}
	return nil
}

// extractSentiment claims every sentiment phrase so none leak into the
// retained text, but only the first polarity in the fixed check order
// (positive, then negative) sets a bound. A query naming both polarities is
// ambiguous; positive wins and the choice is locked by test.
func extractSentiment(text string, _ time.Time) []candidate {
	var out []candidate
	effectTaken := false

	for _, loc := range positiveSentimentRe.FindAllStringIndex(text, -1) {
		c := candidate{span: span{loc[0], loc[1]}, apply: func(*draft) {}}
		if !effectTaken {
			effectTaken = true
			c.apply = func(d *draft) {
				v := positiveSentimentFloor
				d.sentimentMin = &v
			}
		}
		out = append(out, c)
	}
	for _, loc := range negativeSentimentRe.FindAllStringIndex(text, -1) {
		c := candidate{span: span{loc[0], loc[1]}, apply: func(*draft) {}}
		if !effectTaken {
			effectTaken = true
			c.apply = func(d *draft) {
				v := negativeSentimentCeil
				d.sentimentMax = &v
			}
		}
		out = append(out, c)
	}
	return out
}

// extractTemporal claims every temporal phrase; the first phrase in the
// fixed check order (recent/latest, then "last year") sets the bounds.
func extractTemporal(text string, now time.Time) []candidate {
	var out []candidate
	effectTaken := false

	for _, loc := range recentRe.FindAllStringIndex(text, -1) {
		c := candidate{span: span{loc[0], loc[1]}, apply: func(*draft) {}}
		if !effectTaken {
			effectTaken = true
			c.apply = func(d *draft) {
				from := now.AddDate(-1, 0, 0)
				d.dateFrom = &from
			}
		}
		out = append(out, c)
	}
	for _, loc := range lastYearRe.FindAllStringIndex(text, -1) {
		c := candidate{span: span{loc[0], loc[1]}, apply: func(*draft) {}}
		if !effectTaken {
			effectTaken = true
			c.apply = func(d *draft) {
				from := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, now.Location())
				to := time.Date(now.Year()-1, time.December, 31, 0, 0, 0, 0, now.Location())
				d.dateFrom = &from
				d.dateTo = &to
			}
		}
		out = append(out, c)
	}
	return out
}

// removeSpans returns text with the claimed spans blanked out.
func removeSpans(text string, claimed []span) string {
	if len(claimed) == 0 {
		return text
	}
	b := []byte(text)
	for _, s := range claimed {
		for i := s.start; i < s.end && i < len(b); i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

// firstTopic returns the first vocabulary term present in text as a whole
// word, or "".
func firstTopic(text string) string {
	lower := strings.ToLower(text)
	for _, term := range topicVocabulary {
		idx := strings.Index(lower, term)
		for idx >= 0 {
			before := idx == 0 || !isWordByte(lower[idx-1])
			after := idx+len(term) == len(lower) || !isWordByte(lower[idx+len(term)])
			if before && after {
				return term
			}
			next := strings.Index(lower[idx+1:], term)
			if next < 0 {
				break
			}
			idx += 1 + next
		}
	}
	return ""
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// normalizeWhitespace collapses runs of whitespace into single spaces and
// trims the ends.
func normalizeWhitespace(text string) string {
	return strings.Join(wordRe.FindAllString(text, -1), " ")
}
