package features

import (
	"fmt"
	"strings"
	"time"
)

type Season string

const (
	Winter Season = "Winter"
	Spring Season = "Spring"
	Summer Season = "Summer"
	Autumn Season = "Autumn"
)

// Seasons lists every season bucket. A season vocabulary fitted over it
// encodes Autumn=0, Spring=1, Summer=2, Winter=3.
var Seasons = []string{string(Winter), string(Spring), string(Summer), string(Autumn)}

const DateLayout = "2006-01-02"

// Temporal holds the calendar fields derived from a single date.
type Temporal struct {
	Year       int
	Month      int
	Day        int
	DayOfWeek  int // Monday=0 .. Sunday=6
	WeekOfYear int // ISO-8601
	Season     Season
}

// SeasonOf buckets a calendar month (1-12).
func SeasonOf(month time.Month) Season {
	switch month {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Autumn
	}
}

func Extract(t time.Time) Temporal {
	_, week := t.ISOWeek()
	return Temporal{
		Year:       t.Year(),
		Month:      int(t.Month()),
		Day:        t.Day(),
		DayOfWeek:  (int(t.Weekday()) + 6) % 7,
		WeekOfYear: week,
		Season:     SeasonOf(t.Month()),
	}
}

// ParseDate parses YYYY-MM-DD. An empty string resolves to now().
func ParseDate(s string, now func() time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now(), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", s, ErrInvalidDate)
	}
	return t, nil
}
