package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hvga/hvga-og/internal/backend"
	"github.com/hvga/hvga-og/internal/dates"
	"github.com/hvga/hvga-og/internal/knowledge"
)

type fakeStandings struct {
	rows []backend.Standing
	err  error
}

func (f *fakeStandings) FetchStandings(ctx context.Context) ([]backend.Standing, error) {
	return f.rows, f.err
}

type fakeMembers struct {
	rows  []backend.Member
	err   error
	calls int
}

func (f *fakeMembers) SearchMembers(ctx context.Context, name string) ([]backend.Member, error) {
	f.calls++
	return f.rows, f.err
}

func standingsFixture(n int) []backend.Standing {
	rows := make([]backend.Standing, n)
	for i := range rows {
		rows[i] = backend.Standing{Position: i + 1, Name: fmt.Sprintf("Player %02d", i+1), TotalScore: float64(200 - i*5)}
	}
	return rows
}

var april22 = time.Date(2025, time.April, 22, 15, 0, 0, 0, time.UTC)

func fixedResolver() *dates.Resolver {
	r := dates.New(time.UTC)
	r.Now = func() time.Time { return april22 }
	return r
}

func newTestRegistry(t *testing.T, st StandingsSource, mem MemberSource, kb *knowledge.Base) *Registry {
	t.Helper()
	reg, err := NewBuiltin(Deps{Standings: st, Members: mem, Knowledge: kb, Dates: fixedResolver()})
	if err != nil {
		t.Fatalf("NewBuiltin: %v", err)
	}
	return reg
}

func dispatch(t *testing.T, reg *Registry, name string, args map[string]any) Result {
	t.Helper()
	res, err := reg.Dispatch(context.Background(), Call{ID: "call_1", Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("Dispatch(%s): %v", name, err)
	}
	return res
}

func lineCount(s string) int {
	return len(strings.Split(strings.TrimSpace(s), "\n"))
}

func TestStandingsPlayerSingleMatch(t *testing.T) {
	rows := standingsFixture(10)
	rows[6].Name = "Joe Nguyen"
	rows[7].Name = "Tony Nguyen"
	reg := newTestRegistry(t, &fakeStandings{rows: rows}, nil, nil)

	res := dispatch(t, reg, StandingsToolName, map[string]any{"playerName": "joe NGUYEN"})
	if lineCount(res.Message) != 1 {
		t.Fatalf("expected one line, got %q", res.Message)
	}
	if res.Message != "• 7. Joe Nguyen - 170 points" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestStandingsPlayerMultipleMatches(t *testing.T) {
	rows := standingsFixture(10)
	rows[6].Name = "Joe Nguyen"
	rows[7].Name = "Tony Nguyen"
	reg := newTestRegistry(t, &fakeStandings{rows: rows}, nil, nil)

	res := dispatch(t, reg, StandingsToolName, map[string]any{"playerName": "nguyen"})
	if lineCount(res.Message) != 2 {
		t.Fatalf("expected two lines, got %q", res.Message)
	}
}

func TestStandingsPlayerNotFound(t *testing.T) {
	reg := newTestRegistry(t, &fakeStandings{rows: standingsFixture(10)}, nil, nil)
	res := dispatch(t, reg, StandingsToolName, map[string]any{"playerName": "Joe Nguyen"})
	want := `No players found matching "Joe Nguyen" in the current TX Cup standings.`
	if res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}
}

func TestStandingsTopN(t *testing.T) {
	reg := newTestRegistry(t, &fakeStandings{rows: standingsFixture(10)}, nil, nil)
	// JSON numbers decode as float64.
	res := dispatch(t, reg, StandingsToolName, map[string]any{"topN": float64(5)})

	lines := strings.Split(res.Message, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %q", len(lines), res.Message)
	}
	for i, line := range lines {
		prefix := fmt.Sprintf("• %d. Player %02d - ", i+1, i+1)
		if !strings.HasPrefix(line, prefix) {
			t.Errorf("line %d = %q, want prefix %q", i, line, prefix)
		}
	}
}

func TestStandingsTopNLargerThanList(t *testing.T) {
	reg := newTestRegistry(t, &fakeStandings{rows: standingsFixture(3)}, nil, nil)
	res := dispatch(t, reg, StandingsToolName, map[string]any{"topN": float64(10)})
	if lineCount(res.Message) != 3 {
		t.Errorf("expected all 3 rows, got %q", res.Message)
	}
}

func TestStandingsRange(t *testing.T) {
	reg := newTestRegistry(t, &fakeStandings{rows: standingsFixture(40)}, nil, nil)
	res := dispatch(t, reg, StandingsToolName, map[string]any{"startRank": float64(16), "endRank": float64(30)})

	lines := strings.Split(res.Message, "\n")
	if len(lines) != 15 {
		t.Fatalf("expected 15 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "• 16. ") || !strings.HasPrefix(lines[14], "• 30. ") {
		t.Errorf("range bounds wrong: first %q last %q", lines[0], lines[14])
	}
	for i := 1; i < len(lines); i++ {
		if lines[i] <= lines[i-1] {
			t.Errorf("lines not ascending at %d: %q after %q", i, lines[i], lines[i-1])
		}
	}
}

func TestStandingsRangeUnorderedSource(t *testing.T) {
	rows := standingsFixture(30)
	rows[15], rows[29] = rows[29], rows[15]
	reg := newTestRegistry(t, &fakeStandings{rows: rows}, nil, nil)

	res := dispatch(t, reg, StandingsToolName, map[string]any{"startRank": float64(16), "endRank": float64(30)})
	lines := strings.Split(res.Message, "\n")
	if len(lines) != 15 {
		t.Fatalf("expected 15 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "• 16. ") || !strings.HasPrefix(lines[14], "• 30. ") {
		t.Errorf("range not ascending: first %q last %q", lines[0], lines[14])
	}

	res = dispatch(t, reg, StandingsToolName, map[string]any{"topN": float64(3)})
	if !strings.HasPrefix(res.Message, "• 1. ") || lineCount(res.Message) != 3 {
		t.Errorf("topN = %q", res.Message)
	}
	if rows[15].Position != 30 {
		t.Error("lookup must not reorder the caller's slice")
	}
}

func TestStandingsRangeEmpty(t *testing.T) {
	reg := newTestRegistry(t, &fakeStandings{rows: standingsFixture(10)}, nil, nil)
	res := dispatch(t, reg, StandingsToolName, map[string]any{"startRank": float64(16), "endRank": float64(30)})
	if res.Message != "No players found in positions 16 through 30." {
		t.Errorf("message = %q", res.Message)
	}
}

func TestStandingsAll(t *testing.T) {
	reg := newTestRegistry(t, &fakeStandings{rows: standingsFixture(12)}, nil, nil)
	res := dispatch(t, reg, StandingsToolName, nil)
	if lineCount(res.Message) != 12 {
		t.Errorf("expected 12 lines, got %q", res.Message)
	}
}

func TestStandingsNoData(t *testing.T) {
	tests := []struct {
		name string
		src  StandingsSource
	}{
		{"empty", &fakeStandings{}},
		{"fetch error", &fakeStandings{err: errors.New("connection refused")}},
		{"not configured", &fakeStandings{err: backend.ErrNotConfigured}},
		{"no source", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newTestRegistry(t, tt.src, nil, nil)
			res := dispatch(t, reg, StandingsToolName, map[string]any{"topN": float64(5)})
			if res.Message != NoStandingsMessage {
				t.Errorf("message = %q", res.Message)
			}
		})
	}
}

func TestMemberProfile(t *testing.T) {
	hcp := 12.4
	mem := &fakeMembers{rows: []backend.Member{{
		Name:          "Joe Nguyen",
		HandicapIndex: &hcp,
		Flight:        "B Flight",
		CurrentStatus: "Active",
		IsSenior:      true,
		TournamentScores: []backend.Score{
			{Date: "2025-01-12", Score: "85", TournamentName: "January Monthly"},
			{Date: "2025-03-01", Score: "80", TournamentName: "March Monthly"},
			{Date: "2024-11-11", Score: "88"},
			{Date: "2025-02-09", Score: "82", TournamentName: "February Monthly"},
		},
	}}}
	reg := newTestRegistry(t, nil, mem, nil)

	res := dispatch(t, reg, MembersToolName, map[string]any{"memberName": "joe"})
	want := strings.Join([]string{
		"• Name: Joe Nguyen",
		"• Status: Active",
		"• Handicap: 12.4",
		"• Flight: B Flight",
		"• Senior: Yes",
		"• Recent Tournament Scores:",
		"  - 2025-03-01: 80 (March Monthly)",
		"  - 2025-02-09: 82 (February Monthly)",
		"  - 2025-01-12: 85 (January Monthly)",
	}, "\n")
	if res.Message != want {
		t.Errorf("profile =\n%s\nwant\n%s", res.Message, want)
	}
}

func TestMemberProfileDefaults(t *testing.T) {
	mem := &fakeMembers{rows: []backend.Member{{Name: "Long LE"}}}
	reg := newTestRegistry(t, nil, mem, nil)

	res := dispatch(t, reg, MembersToolName, map[string]any{"memberName": "long"})
	for _, want := range []string{"• Status: Not specified", "• Handicap: Not specified", "• Senior: No", "  No recent tournament scores"} {
		if !strings.Contains(res.Message, want) {
			t.Errorf("profile missing %q:\n%s", want, res.Message)
		}
	}
}

func TestMemberProfileZeroHandicap(t *testing.T) {
	zero := 0.0
	mem := &fakeMembers{rows: []backend.Member{{Name: "Long LE", HandicapIndex: &zero}}}
	reg := newTestRegistry(t, nil, mem, nil)

	res := dispatch(t, reg, MembersToolName, map[string]any{"memberName": "long"})
	if !strings.Contains(res.Message, "• Handicap: Not specified") {
		t.Errorf("zero handicap should read as not specified:\n%s", res.Message)
	}
}

func TestMemberNotFound(t *testing.T) {
	mem := &fakeMembers{rows: []backend.Member{{Name: "Joe Nguyen"}}}
	reg := newTestRegistry(t, nil, mem, nil)

	res := dispatch(t, reg, MembersToolName, map[string]any{"memberName": "Tiger Woods"})
	if res.Message != MemberNotFoundMessage("Tiger Woods") {
		t.Errorf("message = %q", res.Message)
	}
	if strings.Contains(res.Message, "• Name:") {
		t.Error("not-found reply must not contain profile fields")
	}
}

func TestMemberFetchFailure(t *testing.T) {
	mem := &fakeMembers{err: errors.New("timeout")}
	reg := newTestRegistry(t, nil, mem, nil)

	res := dispatch(t, reg, MembersToolName, map[string]any{"memberName": "joe"})
	if !res.Failed() || res.Message != "" {
		t.Errorf("expected error result, got %+v", res)
	}
}

func TestMemberNameRequired(t *testing.T) {
	mem := &fakeMembers{}
	reg := newTestRegistry(t, nil, mem, nil)

	_, err := reg.Dispatch(context.Background(), Call{Name: MembersToolName, Arguments: map[string]any{}})
	var pe *ParamError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParamError, got %v", err)
	}
	if pe.Param != "memberName" {
		t.Errorf("param = %q", pe.Param)
	}
	if mem.calls != 0 {
		t.Error("handler must not run when validation fails")
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	reg := newTestRegistry(t, nil, nil, nil)
	_, err := reg.Dispatch(context.Background(), Call{ID: "x", Name: "get_weather"})
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "get_weather") {
		t.Errorf("error should name the tool: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tool := StandingsTool(nil)
	tests := []struct {
		name    string
		args    Args
		wantErr bool
	}{
		{"empty", Args{}, false},
		{"integer as float", Args{"topN": float64(5)}, false},
		{"integer as json number", Args{"topN": json.Number("5")}, false},
		{"fractional integer", Args{"topN": 2.5}, true},
		{"string for integer", Args{"topN": "5"}, true},
		{"number for string", Args{"playerName": 7.0}, true},
		{"unknown parameter", Args{"season": "2025"}, true},
		{"null optional", Args{"playerName": nil}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tool.Validate(tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	tool := DateTool(nil, nil)
	if _, err := NewRegistry(tool, tool); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestDefinitions(t *testing.T) {
	reg := newTestRegistry(t, nil, nil, nil)
	defs := reg.Definitions()

	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	want := []string{StandingsToolName, MembersToolName, TournamentToolName, DateToolName}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("definitions = %v, want %v", names, want)
	}

	members := defs[1].Parameters
	if members["type"] != "object" {
		t.Errorf("schema type = %v", members["type"])
	}
	req, _ := members["required"].([]string)
	if len(req) != 1 || req[0] != "memberName" {
		t.Errorf("required = %v", members["required"])
	}
	props, _ := members["properties"].(map[string]any)
	if _, ok := props["memberName"]; !ok {
		t.Errorf("properties = %v", props)
	}
}

func TestParseArguments(t *testing.T) {
	args, err := ParseArguments(`{"topN": 5}`)
	if err != nil {
		t.Fatalf("ParseArguments: %v", err)
	}
	if n, ok := Args(args).Int("topN"); !ok || n != 5 {
		t.Errorf("topN = %d, %v", n, ok)
	}
	if args, err := ParseArguments(""); err != nil || len(args) != 0 {
		t.Errorf("empty arguments: %v %v", args, err)
	}
	if _, err := ParseArguments("{not json"); err == nil {
		t.Error("expected decode error")
	}
}

const tournamentText = `Tournament Schedule:
• Apr. 12th, 2025 - Wilderness Golf Club 8AM Shotgun; Cost: $110
• May 4th, 2025 - Wildcat Golf Club - Lakes Course 1PM tee time; Cost: $115
>>>

Tournament Winners:

March 2025 – Wilderness Golf Club
A Flight	GROSS Champion	Henry DO	71 (won in playoff)
	NET Champion	Matthew NGUYEN	75 (net 66)
>>>
`

func TestTournamentNext(t *testing.T) {
	kb := knowledge.NewBase(tournamentText, fixedResolver())
	reg := newTestRegistry(t, nil, nil, kb)

	res := dispatch(t, reg, TournamentToolName, map[string]any{"relativeTime": "next tournament"})
	data, ok := res.Data.(TournamentData)
	if !ok || data.Type != knowledge.KindSchedule {
		t.Fatalf("unexpected result %+v", res)
	}
	up := data.Tournament.(UpcomingTournament)
	if up.Venue != "Wildcat Golf Club - Lakes Course" || up.FormattedDate != "Sunday, May 4, 2025" {
		t.Errorf("upcoming = %+v", up)
	}
	if !strings.Contains(res.Content(), `"type":"schedule"`) {
		t.Errorf("content = %s", res.Content())
	}
}

func TestTournamentLast(t *testing.T) {
	kb := knowledge.NewBase(tournamentText, fixedResolver())
	reg := newTestRegistry(t, nil, nil, kb)

	res := dispatch(t, reg, TournamentToolName, map[string]any{"relativeTime": "last tournament"})
	data, ok := res.Data.(TournamentData)
	if !ok || data.Type != knowledge.KindResults {
		t.Fatalf("unexpected result %+v", res)
	}
	done := data.Tournament.(CompletedTournament)
	if len(done.Winners) != 2 || done.Winners[1].Type != knowledge.Net || done.Winners[1].Flight != "A Flight" {
		t.Errorf("winners = %+v", done.Winners)
	}
}

func TestTournamentNotFound(t *testing.T) {
	kb := knowledge.NewBase(tournamentText, fixedResolver())
	reg := newTestRegistry(t, nil, nil, kb)

	res := dispatch(t, reg, TournamentToolName, map[string]any{"date": "January 2020"})
	if res.Error != noTournamentFound {
		t.Errorf("result = %+v", res)
	}
}

func TestDateTool(t *testing.T) {
	kb := knowledge.NewBase(tournamentText, fixedResolver())
	reg := newTestRegistry(t, nil, nil, kb)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"no parameters", nil, "Tuesday, April 22, 2025"},
		{"tomorrow", map[string]any{"relativeTime": "tomorrow"}, "Wednesday, April 23, 2025"},
		{"next week", map[string]any{"relativeTime": "what about next week"}, "Tuesday, April 29, 2025"},
		{"next tournament", map[string]any{"relativeTime": "next tournament"}, "Sunday, May 4, 2025"},
		{"explicit date", map[string]any{"date": "3/1/2025"}, "Saturday, March 1, 2025"},
		{"query today", map[string]any{"query": "What is today's date?"}, "Tuesday, April 22, 2025"},
		{"query relative", map[string]any{"query": "yesterday"}, "Monday, April 21, 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := dispatch(t, reg, DateToolName, tt.args)
			if res.Message != tt.want {
				t.Errorf("message = %q (error %q), want %q", res.Message, res.Error, tt.want)
			}
		})
	}
}

func TestDateToolErrors(t *testing.T) {
	reg := newTestRegistry(t, nil, nil, nil)
	for _, args := range []map[string]any{
		{"date": "the day after never"},
		{"query": "is it a leap year?"},
		{"relativeTime": "someday"},
	} {
		res := dispatch(t, reg, DateToolName, args)
		if !res.Failed() {
			t.Errorf("args %v: expected error, got %+v", args, res)
		}
	}
}

func TestResultContent(t *testing.T) {
	if got := (Result{Message: "hi"}).Content(); got != "hi" {
		t.Errorf("content = %q", got)
	}
	if got := (Result{Error: "nope"}).Content(); got != `{"error":"nope"}` {
		t.Errorf("content = %q", got)
	}
}
