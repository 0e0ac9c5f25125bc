package knowledge

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hvga/hvga-og/internal/dates"
)

func resolverAt(now time.Time) *dates.Resolver {
	r := dates.New(time.UTC)
	r.Now = func() time.Time { return now }
	return r
}

func loadFixture(t *testing.T, now time.Time) *Base {
	t.Helper()
	b, err := Load(filepath.Join("testdata", "knowledge.txt"), resolverAt(now))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return b
}

var april20 = time.Date(2025, time.April, 20, 9, 0, 0, 0, time.UTC)

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSchedule(t *testing.T) {
	b := loadFixture(t, april20)
	entries, issues := b.Schedule()

	if len(entries) != 4 {
		t.Fatalf("expected 4 schedule entries, got %d", len(entries))
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %v", len(issues), issues)
	}

	first := entries[0]
	if !first.HasDate || first.Date.Month() != time.November || first.Date.Day() != 11 {
		t.Errorf("first entry date = %v (has=%v)", first.Date, first.HasDate)
	}
	if first.Venue != "Memorial Park Golf Course" {
		t.Errorf("venue = %q", first.Venue)
	}
	if first.Time != "7:30AM" {
		t.Errorf("time = %q", first.Time)
	}
	if first.Cost == nil || *first.Cost != 95 {
		t.Errorf("cost = %v", first.Cost)
	}
	if first.Format != "Shotgun start" {
		t.Errorf("format = %q", first.Format)
	}

	may := entries[2]
	if may.Venue != "Wildcat Golf Club - Lakes Course" {
		t.Errorf("venue = %q", may.Venue)
	}
	if may.Time != "1PM" {
		t.Errorf("time = %q", may.Time)
	}
	if may.Format != "Tee time start" {
		t.Errorf("format = %q", may.Format)
	}

	tbd := entries[3]
	if tbd.HasDate {
		t.Error("TBD entry should have no parsed date")
	}
	if tbd.Venue != "Gus Wortham Park" {
		t.Errorf("venue = %q", tbd.Venue)
	}
	if tbd.Cost == nil || *tbd.Cost != 85 {
		t.Errorf("cost = %v", tbd.Cost)
	}
}

func TestResults(t *testing.T) {
	b := loadFixture(t, april20)
	entries, issues := b.Results()

	if len(entries) != 2 {
		t.Fatalf("expected 2 results entries, got %d", len(entries))
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d: %v", len(issues), issues)
	}
	if !strings.Contains(issues[0].Text, "Senior Flight Vinh") {
		t.Errorf("unexpected issue %v", issues[0])
	}

	feb := entries[0]
	if feb.Venue != "Blackhorse Golf Club" {
		t.Errorf("venue = %q", feb.Venue)
	}
	if len(feb.Winners) != 2 {
		t.Fatalf("expected 2 February winners, got %d", len(feb.Winners))
	}
	if feb.Winners[1].Flight != "A Flight" || feb.Winners[1].Type != Net {
		t.Errorf("net winner should inherit A Flight, got %+v", feb.Winners[1])
	}
}

func TestNextTournament(t *testing.T) {
	b := loadFixture(t, april20)
	out := b.NextTournament()
	if out.Kind != KindSchedule {
		t.Fatalf("kind = %q, want schedule", out.Kind)
	}
	if out.Schedule.DateText != "May 4th, 2025" {
		t.Errorf("next tournament = %q", out.Schedule.DateText)
	}
}

func TestNextTournamentIsStrictlyAfterNow(t *testing.T) {
	// Midnight of the tournament day is already in the past at 10am.
	b := loadFixture(t, time.Date(2025, time.April, 12, 10, 0, 0, 0, time.UTC))
	out := b.NextTournament()
	if !out.Found() || out.Schedule.DateText != "May 4th, 2025" {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestNextTournamentInlineFixture(t *testing.T) {
	text := "Tournament Schedule:\n" +
		"• Jan. 5th, 2025 - Old Course 8AM Shotgun; Cost: $90\n" +
		"• Jun. 7th, 2025 - New Course 9AM tee time; Cost: $100\n" +
		">>>\n"
	b := NewBase(text, resolverAt(april20))
	out := b.NextTournament()
	if !out.Found() || out.Schedule.Venue != "New Course" {
		t.Fatalf("expected the future-dated entry, got %+v", out)
	}
}

func TestLastTournament(t *testing.T) {
	b := loadFixture(t, april20)
	out := b.LastTournament()
	if out.Kind != KindResults {
		t.Fatalf("kind = %q, want results", out.Kind)
	}
	r := out.Results
	if r.DateText != "March 2025" || r.Venue != "Wilderness Golf Club" {
		t.Errorf("last tournament = %q at %q", r.DateText, r.Venue)
	}

	want := []WinnerRecord{
		{Flight: "A Flight", Type: Gross, Name: "Henry DO", Score: "71 won in playoff"},
		{Flight: "A Flight", Type: Net, Name: "Matthew NGUYEN", Score: "75 net 66"},
		{Flight: "B Flight", Type: Gross, Name: "Hiep PHAM", Score: "77 won in playoff"},
		{Flight: "B Flight", Type: Net, Name: "Nhi NGO", Score: "77 net 64"},
		{Flight: "C Flight", Type: Gross, Name: "Jim DAVIS", Score: "81"},
		{Flight: "Senior Flight", Type: Net, Name: "Vinh PHAM", Score: "84 net 64"},
	}
	if len(r.Winners) != len(want) {
		t.Fatalf("expected %d winners, got %d: %+v", len(want), len(r.Winners), r.Winners)
	}
	for i, w := range want {
		got := r.Winners[i]
		if got.Flight != w.Flight || got.Type != w.Type || got.Name != w.Name || got.Score != w.Score {
			t.Errorf("winner %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestLastTournamentNoneBeforeNow(t *testing.T) {
	b := loadFixture(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	if out := b.LastTournament(); out.Found() {
		t.Fatalf("expected not found, got %+v", out)
	}
}

func TestQuery(t *testing.T) {
	b := loadFixture(t, april20)
	tests := []struct {
		name     string
		date     string
		relative string
		kind     OutcomeKind
		venue    string
	}{
		{"next tournament", "", "when is the next tournament?", KindSchedule, "Wildcat Golf Club - Lakes Course"},
		{"last tournament", "", "Last Tournament", KindResults, "Wilderness Golf Club"},
		{"relative month", "", "last month", KindResults, "Wilderness Golf Club"},
		{"explicit date", "2025-02-10", "", KindResults, "Blackhorse Golf Club"},
		{"month and year", "March 2025", "", KindResults, "Wilderness Golf Club"},
		{"no results that month", "June 1, 2025", "", KindNotFound, ""},
		{"unparseable date", "someday", "", KindNotFound, ""},
		{"unknown phrase", "", "a while ago", KindNotFound, ""},
		{"nothing", "", "", KindNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := b.Query(tt.date, tt.relative)
			if out.Kind != tt.kind {
				t.Fatalf("kind = %q, want %q", out.Kind, tt.kind)
			}
			switch out.Kind {
			case KindSchedule:
				if out.Schedule.Venue != tt.venue {
					t.Errorf("venue = %q, want %q", out.Schedule.Venue, tt.venue)
				}
			case KindResults:
				if out.Results.Venue != tt.venue {
					t.Errorf("venue = %q, want %q", out.Results.Venue, tt.venue)
				}
			}
		})
	}
}

func TestResultsBlockWithUnreadableHeader(t *testing.T) {
	text := "Tournament Winners:\n\n" +
		"February 2025 – Blackhorse Golf Club\n" +
		"A Flight\tGROSS Champion\tTony TRAN\t74\n\n" +
		"April 12, 2025 – Wildcat Golf Club\n" +
		"A Flight\tGROSS Champion\tHenry DO\t70\n" +
		"\tNET Champion\tLong LE\t77 (net 66)\n" +
		">>>\n"
	b := NewBase(text, resolverAt(april20))

	entries, issues := b.Results()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %+v", len(entries), entries)
	}
	if len(entries[0].Winners) != 1 || entries[0].Winners[0].Name != "Tony TRAN" {
		t.Errorf("February winners picked up rows from another block: %+v", entries[0].Winners)
	}
	if len(issues) != 3 {
		t.Fatalf("expected header and both rows reported, got %d: %v", len(issues), issues)
	}
	if !strings.Contains(issues[0].Text, "Wildcat") || !strings.Contains(issues[1].Text, "Henry DO") {
		t.Errorf("unexpected issues %v", issues)
	}
}

func TestResultsContinuationBlock(t *testing.T) {
	text := "Tournament Winners:\n\n" +
		"February 2025 – Blackhorse Golf Club\n" +
		"A Flight\tGROSS Champion\tTony TRAN\t74\n\n" +
		"B Flight\tNET Champion\tQuang VO\t88 (net 68)\n" +
		">>>\n"
	b := NewBase(text, resolverAt(april20))

	entries, issues := b.Results()
	if len(entries) != 1 || len(issues) != 0 {
		t.Fatalf("entries=%+v issues=%v", entries, issues)
	}
	if len(entries[0].Winners) != 2 || entries[0].Winners[1].Flight != "B Flight" {
		t.Errorf("continuation rows not attached: %+v", entries[0].Winners)
	}
}

func TestMissingSections(t *testing.T) {
	b := NewBase("nothing to see here", nil)
	if entries, issues := b.Schedule(); entries != nil || len(issues) != 1 {
		t.Errorf("schedule: entries=%v issues=%v", entries, issues)
	}
	if entries, issues := b.Results(); entries != nil || len(issues) != 1 {
		t.Errorf("results: entries=%v issues=%v", entries, issues)
	}
	if b.NextTournament().Found() || b.LastTournament().Found() {
		t.Error("queries against an empty base must not find anything")
	}
}
