// Package timeutil parses the time and date arguments commands accept.
// Fixed layouts are tried first so unambiguous input stays unambiguous;
// anything else goes through natural-language parsing, which understands
// forms like "10 minutes ago" and "yesterday 17:00".
package timeutil

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/timesheet"
)

// timeLayouts are tried in order before natural-language parsing. Layouts
// without a date component are completed with the reference day.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"15:04:05",
	"15:04",
}

// Parser turns user-supplied text into instants and civil dates.
type Parser struct {
	w *when.Parser
}

// NewParser creates a parser with the English and common rule sets.
func NewParser() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{w: w}
}

// ParseTime parses an instant. Relative phrases are resolved against ref,
// and bare clock times land on ref's day in ref's location.
func (p *Parser) ParseTime(input string, ref time.Time) (time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, domainErrors.InvalidTime("time argument is empty")
	}

	for _, layout := range timeLayouts {
		parsed, err := time.ParseInLocation(layout, s, ref.Location())
		if err != nil {
			continue
		}
		if parsed.Year() == 0 {
			// Clock-only layout: complete it with the reference day.
			parsed = time.Date(ref.Year(), ref.Month(), ref.Day(),
				parsed.Hour(), parsed.Minute(), parsed.Second(), 0, ref.Location())
		}
		return parsed, nil
	}

	result, err := p.w.Parse(s, ref)
	if err != nil || result == nil {
		return time.Time{}, domainErrors.InvalidTime("cannot understand time %q", input)
	}
	return result.Time, nil
}

// ParseDate parses a civil date. Accepts the fixed YYYY-MM-DD form and
// natural phrases like "yesterday" or "last monday".
func (p *Parser) ParseDate(input string, ref time.Time) (timesheet.Date, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return timesheet.Date{}, domainErrors.InvalidTime("date argument is empty")
	}

	if d, err := timesheet.ParseDate(s); err == nil {
		return d, nil
	}

	result, err := p.w.Parse(s, ref)
	if err != nil || result == nil {
		return timesheet.Date{}, domainErrors.InvalidTime("cannot understand date %q", input)
	}
	return timesheet.DateOf(result.Time), nil
}
