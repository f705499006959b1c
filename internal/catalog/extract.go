package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrNoDateToken is returned when a file name contains no candidate token.
var ErrNoDateToken = errors.New("no date token in file name")

// DateExtractor derives the settlement date of a file from its base name.
// Implementations must be deterministic.
type DateExtractor interface {
	ExtractDate(name string) (time.Time, error)
}

// PatternExtractor finds date tokens with a regular expression whose first
// capture group holds the token, and parses each token with Layout. Every
// match is tried left to right and the first one that forms a valid
// calendar date wins, so unrelated digit runs of the same width (report
// IDs, sequence numbers) do not hide the real date.
type PatternExtractor struct {
	Pattern *regexp.Regexp
	Layout  string
}

// NewPatternExtractor compiles pattern, which must have at least one
// capture group.
func NewPatternExtractor(pattern, layout string) (*PatternExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling date pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("date pattern %q has no capture group", pattern)
	}
	if layout == "" {
		return nil, errors.New("empty date layout")
	}
	return &PatternExtractor{Pattern: re, Layout: layout}, nil
}

// ExtractDate implements DateExtractor.
func (p *PatternExtractor) ExtractDate(name string) (time.Time, error) {
	var lastErr error
	off := 0
	for off <= len(name) {
		loc := p.Pattern.FindStringSubmatchIndex(name[off:])
		if loc == nil || loc[2] < 0 {
			break
		}
		token := name[off+loc[2] : off+loc[3]]
		t, err := time.Parse(p.Layout, token)
		if err == nil {
			return t, nil
		}
		lastErr = fmt.Errorf("token %q: %w", token, err)

		// Resume right after the token so a trailing separator can open
		// the next match.
		next := off + loc[3]
		if next <= off {
			next = off + 1
		}
		off = next
	}
	if lastErr != nil {
		return time.Time{}, lastErr
	}
	return time.Time{}, ErrNoDateToken
}
