package extract

import (
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// FuzzyParser wraps olebedev/when for phrases like "in 3 days at 4pm"
// or "the day after tomorrow".
type FuzzyParser struct {
	parser *when.Parser
}

// NewFuzzyParser loads the English and common rule sets.
func NewFuzzyParser() *FuzzyParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &FuzzyParser{parser: w}
}

// Parse implements DateParser.
func (p *FuzzyParser) Parse(text string, ref time.Time) (time.Time, bool, error) {
	res, err := p.parser.Parse(text, ref)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("extract: fuzzy parse: %w", err)
	}
	if res == nil {
		return time.Time{}, false, nil
	}
	return res.Time.In(ref.Location()), true, nil
}
