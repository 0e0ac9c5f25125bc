package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hvga/hvga-og/internal/dates"
	"github.com/hvga/hvga-og/internal/knowledge"
)

// DateToolName is the registered name of the date tool.
const DateToolName = "get_date"

// DateData is the structured payload of a date answer.
type DateData struct {
	Date string `json:"date"`
	ISO  string `json:"iso"`
}

// DateTool answers "what is the date" questions, including relative ones
// like "next week". Tournament expressions resolve against kb when set.
func DateTool(resolver *dates.Resolver, kb *knowledge.Base) Tool {
	if resolver == nil {
		resolver = dates.New(nil)
	}
	return Tool{
		Name:        DateToolName,
		Description: "Get the current date or handle date-related queries",
		Params: []Param{
			{Name: "date", Type: TypeString, Description: "Optional. A date to normalise, e.g. \"3/1/2025\"."},
			{Name: "relativeTime", Type: TypeString, Description: "Optional. A relative expression such as \"tomorrow\", \"next week\" or \"next tournament\"."},
			{Name: "query", Type: TypeString, Description: "Optional. A free-form date question, e.g. \"what is today's date\"."},
		},
		Handler: func(ctx context.Context, args Args) Result {
			if rel, ok := args.String("relativeTime"); ok {
				return resolveRelative(resolver, kb, rel)
			}
			if d, ok := args.String("date"); ok {
				t, ok := resolver.ParseDate(d)
				if !ok {
					return Result{Error: fmt.Sprintf("Unrecognized date %q", d)}
				}
				return dateResult(t)
			}
			if q, ok := args.String("query"); ok {
				lower := strings.ToLower(q)
				if strings.Contains(lower, "today") || strings.Contains(lower, "current date") {
					return dateResult(resolver.Today())
				}
				if _, ok := dates.RelativeExpression(q); ok {
					return resolveRelative(resolver, kb, q)
				}
				if t, ok := resolver.ParseDate(q); ok {
					return dateResult(t)
				}
				return Result{Error: "Unsupported date query"}
			}
			return dateResult(resolver.Today())
		},
	}
}

func resolveRelative(resolver *dates.Resolver, kb *knowledge.Base, text string) Result {
	expr, ok := dates.RelativeExpression(text)
	if !ok {
		return Result{Error: fmt.Sprintf("Unsupported relative time %q", text)}
	}
	if !expr.IsTournament() {
		return dateResult(resolver.DateFromExpression(expr))
	}
	if kb == nil {
		return Result{Error: noTournamentFound}
	}

	var out knowledge.Outcome
	if expr == dates.NextTournament {
		out = kb.NextTournament()
	} else {
		out = kb.LastTournament()
	}
	switch {
	case out.Kind == knowledge.KindSchedule && out.Schedule.HasDate:
		return dateResult(out.Schedule.Date)
	case out.Kind == knowledge.KindResults && out.Results.HasDate:
		return dateResult(out.Results.Date)
	}
	return Result{Error: noTournamentFound}
}

func dateResult(t time.Time) Result {
	formatted := dates.FormatDate(t)
	return Result{
		Message: formatted,
		Data:    DateData{Date: formatted, ISO: t.Format("2006-01-02")},
	}
}
