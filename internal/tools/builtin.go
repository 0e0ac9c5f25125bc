package tools

import (
	"github.com/hvga/hvga-og/internal/dates"
	"github.com/hvga/hvga-og/internal/knowledge"
)

// Deps are the data sources the built-in tools read from.
type Deps struct {
	Standings StandingsSource
	Members   MemberSource
	Knowledge *knowledge.Base
	Dates     *dates.Resolver
}

// NewBuiltin returns the registry of the four assistant tools.
func NewBuiltin(d Deps) (*Registry, error) {
	resolver := d.Dates
	if resolver == nil && d.Knowledge != nil {
		resolver = d.Knowledge.Resolver()
	}
	if d.Knowledge == nil {
		d.Knowledge = knowledge.NewBase("", resolver)
	}
	return NewRegistry(
		StandingsTool(d.Standings),
		MembersTool(d.Members, resolver),
		TournamentTool(d.Knowledge),
		DateTool(resolver, d.Knowledge),
	)
}
