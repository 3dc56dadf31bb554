// Package nldate lifts natural-language date phrases ("tomorrow", "next friday",
// "in 2 days") out of free text.
package nldate

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Match is a date phrase found in a text.
type Match struct {
	Time  time.Time // resolved instant, in the location of the reference time
	Text  string    // the exact recognized substring
	Index int       // byte offset of Text in the input
}

// Date returns the calendar day of the match.
func (m Match) Date() civil.Date {
	return civil.DateOf(m.Time)
}

// Extractor finds the first date phrase in a text.
type Extractor struct {
	parser *when.Parser
}

// NewExtractor returns an extractor loaded with the English and common rule sets.
func NewExtractor() *Extractor {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Extractor{parser: w}
}

var (
	defaultExtractor *Extractor
	defaultOnce      sync.Once
)

// Default returns the shared extractor.
func Default() *Extractor {
	defaultOnce.Do(func() {
		defaultExtractor = NewExtractor()
	})
	return defaultExtractor
}

// isoDate matches a YYYY-MM-DD token. The when rule sets only know the
// MM-DD tail of it.
var isoDate = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)

// Extract returns the first date phrase in text resolved against ref,
// or nil when there is none.
func (e *Extractor) Extract(text string, ref time.Time) (*Match, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	iso := extractISO(text, ref.Location())
	r, err := e.parser.Parse(text, ref)
	if err != nil {
		return nil, fmt.Errorf("parse date phrase: %w", err)
	}
	if r == nil || (iso != nil && r.Index+len(r.Text) > iso.Index) {
		return iso, nil
	}
	return &Match{
		Time:  r.Time.In(ref.Location()),
		Text:  r.Text,
		Index: r.Index,
	}, nil
}

// extractISO returns the first valid calendar date written as YYYY-MM-DD,
// at midnight in loc.
func extractISO(text string, loc *time.Location) *Match {
	for _, span := range isoDate.FindAllStringIndex(text, -1) {
		d, err := civil.ParseDate(text[span[0]:span[1]])
		if err != nil {
			continue
		}
		return &Match{
			Time:  d.In(loc),
			Text:  text[span[0]:span[1]],
			Index: span[0],
		}
	}
	return nil
}

// Extract uses the shared extractor.
func Extract(text string, ref time.Time) (*Match, error) {
	return Default().Extract(text, ref)
}

// Strip removes the first occurrence of span from text and trims the
// whitespace around the cut, leaving one space between the remaining halves.
func Strip(text, span string) string {
	if span == "" {
		return strings.TrimSpace(text)
	}
	i := strings.Index(text, span)
	if i < 0 {
		return strings.TrimSpace(text)
	}
	left := strings.TrimSpace(text[:i])
	right := strings.TrimSpace(text[i+len(span):])
	switch {
	case left == "":
		return right
	case right == "":
		return left
	}
	return left + " " + right
}
