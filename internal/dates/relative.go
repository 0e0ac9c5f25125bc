package dates

import (
	"strings"
	"time"
)

// Expression is a relative-time phrase from a fixed vocabulary.
type Expression string

const (
	Today          Expression = "today"
	Tomorrow       Expression = "tomorrow"
	Yesterday      Expression = "yesterday"
	NextWeek       Expression = "next week"
	LastWeek       Expression = "last week"
	NextMonth      Expression = "next month"
	LastYear       Expression = "last year"
	NextYear       Expression = "next year"
	LastMonth      Expression = "last month"
	NextTournament Expression = "next tournament"
	LastTournament Expression = "last tournament"
)

// Vocabulary lists the recognised expressions in lookup order.
var Vocabulary = []Expression{
	Today, Tomorrow, Yesterday,
	NextWeek, LastWeek,
	NextMonth, LastYear, NextYear, LastMonth,
	NextTournament, LastTournament,
}

// IsTournament reports whether e names a tournament rather than an offset.
func (e Expression) IsTournament() bool {
	return e == NextTournament || e == LastTournament
}

// RelativeExpression finds a vocabulary phrase in text, case-insensitively.
// When several phrases occur, the one starting earliest in the text wins;
// ties go to the longer phrase.
func RelativeExpression(text string) (Expression, bool) {
	lower := strings.ToLower(text)
	best := Expression("")
	bestAt := -1
	for _, e := range Vocabulary {
		at := strings.Index(lower, string(e))
		if at < 0 {
			continue
		}
		if bestAt < 0 || at < bestAt || (at == bestAt && len(e) > len(best)) {
			best, bestAt = e, at
		}
	}
	return best, bestAt >= 0
}

// DateFromExpression applies the expression's offset to the current time.
// Tournament expressions are not resolved here and return now.
func (r *Resolver) DateFromExpression(e Expression) time.Time {
	now := r.Today()
	switch e {
	case Tomorrow:
		return now.AddDate(0, 0, 1)
	case Yesterday:
		return now.AddDate(0, 0, -1)
	case NextWeek:
		return now.AddDate(0, 0, 7)
	case LastWeek:
		return now.AddDate(0, 0, -7)
	case NextMonth:
		return now.AddDate(0, 1, 0)
	case LastMonth:
		return now.AddDate(0, -1, 0)
	case NextYear:
		return now.AddDate(1, 0, 0)
	case LastYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now
	}
}
