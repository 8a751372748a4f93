// Package interpret turns free-form query text into structured search
// parameters: extracted filters, a cleaned query, and a suggested mode.
// It is pure: no network access, deterministic for identical input and
// clock.
package interpret

import (
	"fmt"
	"strings"
	"time"

	"github.com/civicscope/transearch/internal/domain"
	"github.com/civicscope/transearch/internal/domain/search/filter"
	"github.com/civicscope/transearch/internal/domain/search/mode"
)

// Interpretation is the structured reading of a free-form query.
type Interpretation struct {
	// Query is the whitespace-normalized text left after extraction.
	// Never empty.
	Query   string
	Filters filter.Filters
	Mode    mode.Mode
}

// Service interprets queries. The zero clock uses time.Now.
type Service struct {
	now func() time.Time
}

// New creates an interpreter.
func New() *Service {
	return &Service{now: time.Now}
}

// NewWithClock creates an interpreter with a fixed clock, for tests and
// reproducible temporal extraction.
func NewWithClock(now func() time.Time) *Service {
	return &Service{now: now}
}

/// Interpret applies the fixed extraction order to text: speaker, sentiment,
// temporal phrases (each claiming spans of the original input, earlier
// rules winning on overlap), then topic promotion, mode inference, and
// whitespace normalization. Returns domain.ErrQueryTooVague when nothing
// searchable remains.
func (s *Service) Interpret(text string) (Interpretation, error) {
	now := s.now()

	var (
		d       draft
		claimed []span
	)
	for _, r := range extractionRules {
		for _, c := range r.extract(text, now) {
			conflict := false
			for _, cl := range claimed {
				if c.span.overlaps(cl) {
					conflict = true
					break
				}
			}
			if conflict {
				continue
			}
			claimed = append(claimed, c.span)
			c.apply(&d)
		}
	}

	retained := normalizeWhitespace(removeSpans(text, claimed))

	// Topic terms stay in the query text for ranking; the first match is
	// promoted to the front unless it already leads.
	if topic := firstTopic(retained); topic != "" {
		if !strings.EqualFold(firstWord(retained), topic) {
			retained = normalizeWhitespace(topic + " " + retained)
		}
	}

	if retained == "" {
		return Interpretation{}, fmt.Errorf("%w: no searchable terms after extraction", domain.ErrQueryTooVague)
	}

	f, err := filter.New(
		d.speaker, "", "",
		d.dateFrom, d.dateTo,
		d.sentimentMin, d.sentimentMax,
		nil,
	)
	if err != nil {
		return Interpretation{}, fmt.Errorf("build filters: %w", err)
	}

	return Interpretation{
		Query:   retained,
		Filters: f,
		Mode:    inferMode(retained),
	}, nil
}

// inferMode suggests a search mode from the retained text. Semantic cues
// are checked before lexical ones, so a query carrying both resolves to
// semantic; plain text defaults to hybrid.
func inferMode(text string) mode.Mode {
	if semanticCueRe.MatchString(text) {
		return mode.Semantic
	}
	if lexicalCueRe.MatchString(text) {
		return mode.Lexical
	}
	return mode.Hybrid
}

func firstWord(text string) string {
	if i := strings.IndexByte(text, ' '); i >= 0 {
		return text[:i]
	}
	return text
}
