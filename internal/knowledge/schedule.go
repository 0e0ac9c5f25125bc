package knowledge

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const bullet = "•"

// ScheduleEntry is one upcoming or past tournament from the schedule section.
type ScheduleEntry struct {
	DateText string    `json:"date"`
	Date     time.Time `json:"-"`
	HasDate  bool      `json:"-"`
	Venue    string    `json:"venue"`
	Time     string    `json:"time,omitempty"`
	Cost     *int      `json:"cost,omitempty"`
	Format   string    `json:"format,omitempty"`
	Details  string    `json:"details"`
}

var (
	scheduleLine = regexp.MustCompile(`^•\s*([^-]+?)\s*-\s*(.+)$`)
	startTime    = regexp.MustCompile(`(\d{1,2}:\d{2}(?:\s*[AaPp][Mm])?|\d{1,2}(?:\s*[AaPp][Mm])?)\s*(?i:shotgun|tee time|starting)`)
	costField    = regexp.MustCompile(`(?i)cost:\s*\$?\s*(\d+)`)
)

// scheduleOutcome is the tagged result of parsing one bullet line.
type scheduleOutcome struct {
	entry *ScheduleEntry
	issue *Issue
}

// Schedule extracts every bullet of the schedule section. Lines that cannot
// be parsed are reported as issues instead of entries.
func (b *Base) Schedule() ([]ScheduleEntry, []Issue) {
	body, ok := b.section(scheduleHeader)
	if !ok {
		return nil, []Issue{{Section: "schedule", Reason: "section not found"}}
	}

	var (
		entries []ScheduleEntry
		issues  []Issue
	)
	for i, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, bullet) {
			continue
		}
		out := b.parseScheduleLine(i+1, line)
		if out.issue != nil {
			issues = append(issues, *out.issue)
		}
		if out.entry != nil {
			entries = append(entries, *out.entry)
		}
	}
	return entries, issues
}

func (b *Base) parseScheduleLine(lineNo int, line string) scheduleOutcome {
	m := scheduleLine.FindStringSubmatch(line)
	if m == nil {
		return scheduleOutcome{issue: &Issue{
			Section: "schedule", Line: lineNo, Text: line,
			Reason: "expected '• <date> - <details>'",
		}}
	}

	entry := &ScheduleEntry{
		DateText: strings.TrimSpace(m[1]),
		Details:  strings.TrimSpace(m[2]),
	}
	entry.Date, entry.HasDate = b.resolver.ParseDate(entry.DateText)

	details := entry.Details
	if tm := startTime.FindStringSubmatchIndex(details); tm != nil {
		entry.Time = strings.TrimSpace(details[tm[2]:tm[3]])
		entry.Venue = cleanVenue(details[:tm[0]])
	} else {
		entry.Venue = cleanVenue(venueWithoutTime(details))
	}

	if cm := costField.FindStringSubmatch(details); cm != nil {
		if n, err := strconv.Atoi(cm[1]); err == nil {
			entry.Cost = &n
		}
	}

	lower := strings.ToLower(details)
	switch {
	case strings.Contains(lower, "shotgun"):
		entry.Format = "Shotgun start"
	case strings.Contains(lower, "tee time"):
		entry.Format = "Tee time start"
	}

	out := scheduleOutcome{entry: entry}
	if !entry.HasDate {
		out.issue = &Issue{
			Section: "schedule", Line: lineNo, Text: line,
			Reason: "unrecognised date " + strconv.Quote(entry.DateText),
		}
	}
	return out
}

// venueWithoutTime cuts details at the first cost or separator when no
// start time was found.
func venueWithoutTime(details string) string {
	cut := len(details)
	if loc := costField.FindStringIndex(details); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	if i := strings.Index(details, ";"); i >= 0 && i < cut {
		cut = i
	}
	return details[:cut]
}

func cleanVenue(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ",;-–"))
}
