// Package dates resolves absolute date phrases and relative-time expressions
// into calendar dates and formats them for display.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // serverless images ship without zoneinfo
)

// InvalidDate is rendered by FormatDate for a zero time.
const InvalidDate = "Invalid date"

// displayLayout renders "Monday, April 22, 2025".
const displayLayout = "Monday, January 2, 2006"

// Resolver parses and formats dates relative to a clock and a location.
type Resolver struct {
	Location *time.Location
	Now      func() time.Time
}

// New returns a Resolver for the given location. A nil location means UTC.
func New(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{Location: loc, Now: time.Now}
}

// LoadResolver returns a Resolver for the named IANA time zone.
func LoadResolver(name string) (*Resolver, error) {
	if name == "" {
		return New(time.UTC), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	return New(loc), nil
}

// Today returns the current time in the resolver's location.
func (r *Resolver) Today() time.Time {
	return r.Now().In(r.loc())
}

func (r *Resolver) loc() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// nativeLayouts are tried before the regex patterns.
var nativeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"Monday, January 2, 2006",
	"Mon, Jan 2, 2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
	"1/2/2006",
}

var (
	slashPattern      = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	isoPattern        = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	monthDayPattern   = regexp.MustCompile(`([A-Za-z]+)\s+(\d{1,2}),?\s+(\d{4})`)
	dayMonthPattern   = regexp.MustCompile(`(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})`)
	tournamentPattern = regexp.MustCompile(`([A-Za-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})`)
)

// ParseDate parses text into a calendar date at midnight in the resolver's
// location. It reports false when no supported format matches.
func (r *Resolver) ParseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	for _, layout := range nativeLayouts {
		if t, err := time.ParseInLocation(layout, text, r.loc()); err == nil {
			return r.midnight(t.Year(), t.Month(), t.Day())
		}
	}

	if m := slashPattern.FindStringSubmatch(text); m != nil {
		if t, ok := r.fromParts(m[3], m[1], m[2]); ok {
			return t, true
		}
	}
	if m := isoPattern.FindStringSubmatch(text); m != nil {
		if t, ok := r.fromParts(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		if t, ok := r.fromNamedMonth(m[3], m[1], m[2]); ok {
			return t, true
		}
	}
	if m := dayMonthPattern.FindStringSubmatch(text); m != nil {
		if t, ok := r.fromNamedMonth(m[3], m[2], m[1]); ok {
			return t, true
		}
	}
	if m := tournamentPattern.FindStringSubmatch(text); m != nil {
		if t, ok := r.fromNamedMonth(m[3], m[1], m[2]); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func (r *Resolver) fromParts(year, month, day string) (time.Time, bool) {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	return r.midnight(y, time.Month(m), d)
}

func (r *Resolver) fromNamedMonth(year, monthName, day string) (time.Time, bool) {
	m, ok := MonthFromName(monthName)
	if !ok {
		return time.Time{}, false
	}
	return r.fromParts(year, strconv.Itoa(int(m)), day)
}

// midnight builds a date and rejects days that overflow the month.
func (r *Resolver) midnight(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, r.loc())
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// MonthFromName resolves a full or abbreviated English month name.
func MonthFromName(name string) (time.Month, bool) {
	name = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "."))
	if len(name) < 3 {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		if name == full || (len(name) <= len(full) && strings.HasPrefix(full, name)) {
			return m, true
		}
	}
	return 0, false
}

// FormatDate renders t as "Monday, April 22, 2025".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return InvalidDate
	}
	return t.Format(displayLayout)
}

// FormatToday renders the resolver's current date.
func (r *Resolver) FormatToday() string {
	return FormatDate(r.Today())
}

// InRange reports whether t lies within [start, end]. Zero bounds never match.
func InRange(t, start, end time.Time) bool {
	if t.IsZero() || start.IsZero() || end.IsZero() {
		return false
	}
	return !t.Before(start) && !t.After(end)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
