package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var errNoHour = errors.New("no leading hour digits")

// ParseHourEnding returns the hour of an hour-ending label: its leading
// integer, whatever follows it. "7", "07", "07:00" and "7 AM" all yield 7.
// Labels outside 1-24, such as 0 or a repeated 25th hour, are returned as
// is and land on the neighbouring day in HourStart.
func ParseHourEnding(label string) (int, error) {
	s := strings.TrimSpace(label)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("hour ending %q: %w", label, errNoHour)
	}

	h, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, fmt.Errorf("hour ending %q: %w", label, err)
	}
	return h, nil
}

// endOfDay is the hour-ending label that closes a settlement day.
const endOfDay = 24

// HourStart converts a settlement date and an hour-ending label value into
// a timestamp: date + (h-1) hours, except that hour 24 is midnight of the
// following day.
func HourStart(date time.Time, hourEnding int) time.Time {
	if hourEnding == endOfDay {
		return date.AddDate(0, 0, 1)
	}
	return date.Add(time.Duration(hourEnding-1) * time.Hour)
}

// ParseDate parses s with the first matching layout. Dates carry no zone
// and are returned in UTC as wall-clock market time.
func ParseDate(s string, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q matches none of %d layouts", s, len(layouts))
}
