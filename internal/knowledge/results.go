package knowledge

import (
	"regexp"
	"strings"
	"time"
)

// ChampionType distinguishes gross from net champions.
type ChampionType string

const (
	Gross ChampionType = "gross"
	Net   ChampionType = "net"
)

// WinnerRecord is one champion line of a results block.
type WinnerRecord struct {
	Flight string       `json:"flight"`
	Type   ChampionType `json:"type"`
	Label  string       `json:"label"`
	Name   string       `json:"name"`
	Score  string       `json:"score"`
}

// ResultsEntry is one completed tournament with its winners.
type ResultsEntry struct {
	DateText string         `json:"date"`
	Date     time.Time      `json:"-"`
	HasDate  bool           `json:"-"`
	Venue    string         `json:"venue"`
	Winners  []WinnerRecord `json:"winners"`
}

var (
	monthYear   = regexp.MustCompile(`(?i)(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}`)
	headerVenue = regexp.MustCompile(`[–-]\s*(.+)$`)
	fieldSplit  = regexp.MustCompile(`\t|\s{2,}`)
	parens      = regexp.MustCompile(`[()]`)
)

type block struct {
	start int
	lines []string
}

// Results extracts every tournament block of the winners section.
func (b *Base) Results() ([]ResultsEntry, []Issue) {
	body, ok := b.section(winnersHeader)
	if !ok {
		return nil, []Issue{{Section: "winners", Reason: "section not found"}}
	}

	var (
		entries []ResultsEntry
		issues  []Issue
	)
	for _, blk := range splitBlocks(body) {
		joined := strings.ToLower(strings.Join(blk.lines, "\n"))
		if !strings.Contains(joined, "flight") && !strings.Contains(joined, "champ") {
			continue
		}

		header := strings.TrimSpace(blk.lines[0])
		dm := monthYear.FindString(header)
		rows := blk.lines[1:]
		rowStart := blk.start + 1

		var entry *ResultsEntry
		switch {
		case dm != "":
			entry = &ResultsEntry{DateText: dm}
			entry.Date, entry.HasDate = b.resolver.ParseDate(dm)
			if vm := headerVenue.FindStringSubmatch(header); vm != nil {
				entry.Venue = strings.TrimSpace(vm[1])
			}
			entries = append(entries, *entry)
			entry = &entries[len(entries)-1]
		case len(entries) > 0 && continuesPrevious(blk, entries[len(entries)-1]):
			// Winner rows split off by a blank line belong to the previous tournament.
			entry = &entries[len(entries)-1]
			rows = blk.lines
			rowStart = blk.start
		default:
			issues = append(issues, Issue{
				Section: "winners", Line: blk.start, Text: header,
				Reason: "block header has no month and year",
			})
			for i, row := range rows {
				issues = append(issues, Issue{
					Section: "winners", Line: rowStart + i, Text: strings.TrimSpace(row),
					Reason: "skipped: tournament header above is unreadable",
				})
			}
			continue
		}

		flight := ""
		if n := len(entry.Winners); n > 0 {
			flight = entry.Winners[n-1].Flight
		}
		for i, row := range rows {
			w, reason := parseWinner(row, flight)
			if reason != "" {
				issues = append(issues, Issue{
					Section: "winners", Line: rowStart + i, Text: strings.TrimSpace(row), Reason: reason,
				})
				continue
			}
			flight = w.Flight
			entry.Winners = append(entry.Winners, w)
		}
	}
	return entries, issues
}

// continuesPrevious reports whether a headerless block starts with a winner
// row, so it can only be more rows of prev.
func continuesPrevious(blk block, prev ResultsEntry) bool {
	flight := ""
	if n := len(prev.Winners); n > 0 {
		flight = prev.Winners[n-1].Flight
	}
	_, reason := parseWinner(blk.lines[0], flight)
	return reason == ""
}

// splitBlocks groups non-blank lines separated by blank lines, keeping the
// 1-based line number of each block's first line.
func splitBlocks(body string) []block {
	var (
		blocks []block
		cur    *block
	)
	for i, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			cur = nil
			continue
		}
		if cur == nil {
			blocks = append(blocks, block{start: i + 1})
			cur = &blocks[len(blocks)-1]
		}
		cur.lines = append(cur.lines, line)
	}
	return blocks
}

// parseWinner splits a results line into labels, name and score. A line
// without a flight label inherits prevFlight.
func parseWinner(line, prevFlight string) (WinnerRecord, string) {
	var parts []string
	for _, p := range fieldSplit.Split(line, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 3 {
		return WinnerRecord{}, "expected champion label, name and score fields"
	}

	labels := parts[:len(parts)-2]
	w := WinnerRecord{
		Flight: prevFlight,
		Name:   parts[len(parts)-2],
		Score:  strings.TrimSpace(parens.ReplaceAllString(parts[len(parts)-1], "")),
	}
	for _, l := range labels {
		lower := strings.ToLower(l)
		if strings.Contains(lower, "flight") {
			w.Flight = l
			lower = strings.TrimSpace(strings.Replace(lower, strings.ToLower(w.Flight), "", 1))
			if lower == "" {
				continue
			}
		}
		switch {
		case strings.Contains(lower, "gross"):
			w.Type, w.Label = Gross, l
		case strings.Contains(lower, "net"):
			w.Type, w.Label = Net, l
		}
	}
	if w.Type == "" {
		return WinnerRecord{}, "no gross or net champion label"
	}
	return w, ""
}
