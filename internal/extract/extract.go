// Package extract pulls a candidate service and appointment time out of
// free-form customer text.
package extract

import (
	"regexp"
	"strings"
	"time"
)

// Candidate is the ephemeral result of extraction. Either field may be empty.
type Candidate struct {
	Service string
	Time    *time.Time
}

// Actionable reports whether both a service and a time were found.
func (c Candidate) Actionable() bool {
	return c.Service != "" && c.Time != nil
}

// DateParser resolves loosely phrased dates that the built-in rules do not cover.
type DateParser interface {
	Parse(text string, ref time.Time) (time.Time, bool, error)
}

// DefaultVocabulary is consulted when none of the tenant's services match.
var DefaultVocabulary = []string{
	"facial", "massage", "consultation", "botox", "filler", "laser", "spa",
	"haircut", "manicure", "pedicure", "waxing", "cleaning", "checkup",
}

// Extractor finds booking intents. It is safe for concurrent use.
type Extractor struct {
	vocabulary []string
	fallback   DateParser
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFallbackParser sets the parser used when no date or time word is recognized.
func WithFallbackParser(p DateParser) Option {
	return func(e *Extractor) { e.fallback = p }
}

// WithVocabulary replaces the fallback service vocabulary.
func WithVocabulary(words []string) Option {
	return func(e *Extractor) { e.vocabulary = words }
}

// New builds an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{vocabulary: DefaultVocabulary}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the candidate found in text. ref is "now" in the tenant's
// location; resolved times are strictly after it or dropped.
func (e *Extractor) Extract(text string, services []string, ref time.Time) Candidate {
	var c Candidate
	c.Service = e.Service(text, services)
	if t, ok := e.Time(text, ref); ok {
		c.Time = &t
	}
	return c
}

// Service applies the precedence: tenant services in order, then the
// fallback vocabulary, then the words following "for".
func (e *Extractor) Service(text string, services []string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	for _, svc := range services {
		if matchesWord(text, svc) {
			return svc
		}
	}
	for _, word := range e.vocabulary {
		if matchesWord(text, word) {
			return word
		}
	}
	return serviceAfterFor(text)
}

// Time resolves the requested appointment time.
func (e *Extractor) Time(text string, ref time.Time) (time.Time, bool) {
	t, found := parseRules(strings.ToLower(text), ref)
	if !found && e.fallback != nil {
		parsed, ok, err := e.fallback.Parse(text, ref)
		if err == nil && ok {
			t, found = parsed, true
		}
	}
	if !found || !t.After(ref) {
		return time.Time{}, false
	}
	return t, true
}

func matchesWord(text, word string) bool {
	word = strings.TrimSpace(word)
	if word == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `(?:s|es)?\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

var (
	forRe        = regexp.MustCompile(`(?i)\bfor\s+([^.,!?;\n]+)`)
	leadingWords = map[string]bool{"a": true, "an": true, "the": true, "my": true, "some": true, "another": true}
)

func serviceAfterFor(text string) string {
	m := forRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	words := strings.Fields(m[1])
	for len(words) > 0 && leadingWords[strings.ToLower(words[0])] {
		words = words[1:]
	}
	var kept []string
	for _, w := range words {
		if isTemporalWord(strings.ToLower(w)) || len(kept) == 4 {
			break
		}
		kept = append(kept, w)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}
