package tools

import (
	"context"

	"github.com/hvga/hvga-og/internal/dates"
	"github.com/hvga/hvga-og/internal/knowledge"
)

// TournamentToolName is the registered name of the tournament lookup tool.
const TournamentToolName = "get_tournament_winners"

const noTournamentFound = "No tournament information found for the specified date/time"

// TournamentData is the structured payload of a tournament lookup.
type TournamentData struct {
	Type       knowledge.OutcomeKind `json:"type"`
	Tournament any                   `json:"tournament"`
}

// UpcomingTournament is the schedule view of a future tournament.
type UpcomingTournament struct {
	Date          string `json:"date"`
	FormattedDate string `json:"formattedDate,omitempty"`
	Venue         string `json:"venue"`
	Time          string `json:"time,omitempty"`
	Cost          *int   `json:"cost,omitempty"`
	Format        string `json:"format,omitempty"`
	Details       string `json:"details"`
}

// CompletedTournament is the results view of a past tournament.
type CompletedTournament struct {
	Date    string                   `json:"date"`
	Venue   string                   `json:"venue"`
	Winners []knowledge.WinnerRecord `json:"winners"`
}

// TournamentTool answers next/last tournament and date-specific questions
// from the knowledge base.
func TournamentTool(kb *knowledge.Base) Tool {
	return Tool{
		Name:        TournamentToolName,
		Description: "Get tournament schedule or winners information. Use relativeTime \"next tournament\" for the upcoming event, \"last tournament\" for the most recent results, or date for a specific tournament.",
		Params: []Param{
			{Name: "date", Type: TypeString, Description: "Optional. A specific tournament date, e.g. \"March 2025\" or \"2025-03-15\"."},
			{Name: "relativeTime", Type: TypeString, Description: "Optional. A relative expression such as \"next tournament\", \"last tournament\" or \"last month\"."},
		},
		Handler: func(ctx context.Context, args Args) Result {
			date, _ := args.String("date")
			relative, _ := args.String("relativeTime")
			return describeOutcome(kb.Query(date, relative))
		},
	}
}

func describeOutcome(out knowledge.Outcome) Result {
	switch out.Kind {
	case knowledge.KindSchedule:
		e := out.Schedule
		view := UpcomingTournament{
			Date:    e.DateText,
			Venue:   e.Venue,
			Time:    e.Time,
			Cost:    e.Cost,
			Format:  e.Format,
			Details: e.Details,
		}
		if e.HasDate {
			view.FormattedDate = dates.FormatDate(e.Date)
		}
		return Result{Data: TournamentData{Type: out.Kind, Tournament: view}}
	case knowledge.KindResults:
		e := out.Results
		return Result{Data: TournamentData{Type: out.Kind, Tournament: CompletedTournament{
			Date:    e.DateText,
			Venue:   e.Venue,
			Winners: e.Winners,
		}}}
	default:
		return Result{Error: noTournamentFound}
	}
}
