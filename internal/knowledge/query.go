package knowledge

import (
	"time"

	"github.com/hvga/hvga-og/internal/dates"
)

// OutcomeKind tags what a tournament query found.
type OutcomeKind string

const (
	KindSchedule OutcomeKind = "schedule"
	KindResults  OutcomeKind = "results"
	KindNotFound OutcomeKind = "not_found"
)

// Outcome is the result of a tournament query. Schedule is set for
// KindSchedule and Results for KindResults.
type Outcome struct {
	Kind     OutcomeKind
	Schedule *ScheduleEntry
	Results  *ResultsEntry
}

// Found reports whether the query matched a tournament.
func (o Outcome) Found() bool { return o.Kind != KindNotFound }

var notFound = Outcome{Kind: KindNotFound}

// NextTournament returns the earliest scheduled tournament dated strictly
// after now.
func (b *Base) NextTournament() Outcome {
	now := b.resolver.Today()
	schedule, _ := b.Schedule()

	var best *ScheduleEntry
	for i := range schedule {
		e := &schedule[i]
		if !e.HasDate || !e.Date.After(now) {
			continue
		}
		if best == nil || e.Date.Before(best.Date) {
			best = e
		}
	}
	if best == nil {
		return notFound
	}
	return Outcome{Kind: KindSchedule, Schedule: best}
}

// LastTournament returns the most recent results block dated at or before now.
func (b *Base) LastTournament() Outcome {
	now := b.resolver.Today()
	results, _ := b.Results()

	var best *ResultsEntry
	for i := range results {
		e := &results[i]
		if !e.HasDate || e.Date.After(now) {
			continue
		}
		if best == nil || e.Date.After(best.Date) {
			best = e
		}
	}
	if best == nil {
		return notFound
	}
	return Outcome{Kind: KindResults, Results: best}
}

// TournamentOn returns the results block for the given date. Results headers
// only carry a month and year, so a block matches any day of its month.
func (b *Base) TournamentOn(target time.Time) Outcome {
	if target.IsZero() {
		return notFound
	}
	results, _ := b.Results()
	for i := range results {
		e := &results[i]
		if !e.HasDate {
			continue
		}
		if sameMonth(e.Date, target) {
			return Outcome{Kind: KindResults, Results: e}
		}
	}
	return notFound
}

// Query resolves a tournament question from an explicit date or a relative
// phrase. The relative phrase wins when both are given.
func (b *Base) Query(date, relative string) Outcome {
	if relative != "" {
		expr, ok := dates.RelativeExpression(relative)
		if !ok {
			return notFound
		}
		switch expr {
		case dates.NextTournament:
			return b.NextTournament()
		case dates.LastTournament:
			return b.LastTournament()
		default:
			return b.TournamentOn(b.resolver.DateFromExpression(expr))
		}
	}
	if date != "" {
		target, ok := b.resolver.ParseDate(date)
		if !ok {
			return notFound
		}
		return b.TournamentOn(target)
	}
	return notFound
}

func sameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.In(a.Location()).Date()
	return ay == by && am == bm
}
