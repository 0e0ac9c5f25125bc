package tools

import (
	"context"
	"errors"
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hvga/hvga-og/internal/backend"
)

// StandingsToolName is the registered name of the TX Cup standings tool.
const StandingsToolName = "get_tx_cup_standings"

// NoStandingsMessage is returned when no standings can be fetched.
const NoStandingsMessage = "I don't have access to real-time data or updates on the current standings for the TX Cup. For the latest updates, please refer to the HVGA official website or contact Jesse Nguyen, the TX Cup Captain."

// StandingsSource fetches the current standings.
type StandingsSource interface {
	FetchStandings(ctx context.Context) ([]backend.Standing, error)
}

// StandingsTool looks up TX Cup standings by player, top N, or rank range.
func StandingsTool(src StandingsSource) Tool {
	return Tool{
		Name:        StandingsToolName,
		Description: "Fetches the current TX Cup standings from the HVGA database. Shows all player rankings, specific ranges (e.g., 16-30), or finds specific player rankings.",
		Params: []Param{
			{Name: "playerName", Type: TypeString, Description: "Optional. Name of specific player to look up their ranking."},
			{Name: "startRank", Type: TypeInteger, Description: "Optional. Start position for range query (inclusive)."},
			{Name: "endRank", Type: TypeInteger, Description: "Optional. End position for range query (inclusive)."},
			{Name: "topN", Type: TypeInteger, Description: "Optional. Number of top players to return."},
		},
		Handler: func(ctx context.Context, args Args) Result {
			if src == nil {
				return Result{Message: NoStandingsMessage}
			}
			standings, err := src.FetchStandings(ctx)
			if err != nil {
				if !errors.Is(err, backend.ErrNotConfigured) {
					log.Warn().Err(err).Msg("fetching standings failed")
				}
				standings = nil
			}
			return lookupStandings(standings, args)
		},
	}
}

func lookupStandings(standings []backend.Standing, args Args) Result {
	if len(standings) == 0 {
		return Result{Message: NoStandingsMessage}
	}
	// topN and ranges read positions in order; upstream order is not trusted.
	standings = slices.Clone(standings)
	slices.SortStableFunc(standings, func(a, b backend.Standing) int {
		return cmp.Compare(a.Position, b.Position)
	})

	if name, ok := args.String("playerName"); ok {
		needle := strings.ToLower(name)
		var matches []backend.Standing
		for _, s := range standings {
			if strings.Contains(strings.ToLower(s.Name), needle) {
				matches = append(matches, s)
			}
		}
		if len(matches) == 0 {
			return Result{Message: fmt.Sprintf("No players found matching %q in the current TX Cup standings.", name)}
		}
		return Result{Message: formatStandings(matches)}
	}

	if n, ok := args.Int("topN"); ok && n > 0 {
		if n > len(standings) {
			n = len(standings)
		}
		return Result{Message: formatStandings(standings[:n])}
	}

	start, hasStart := args.Int("startRank")
	end, hasEnd := args.Int("endRank")
	if (hasStart && start > 0) || (hasEnd && end > 0) {
		if !hasStart || start <= 0 {
			start = 1
		}
		if !hasEnd || end <= 0 {
			end = len(standings)
		}
		var in []backend.Standing
		for _, s := range standings {
			if s.Position >= start && s.Position <= end {
				in = append(in, s)
			}
		}
		if len(in) == 0 {
			return Result{Message: fmt.Sprintf("No players found in positions %d through %d.", start, end)}
		}
		return Result{Message: formatStandings(in)}
	}

	return Result{Message: formatStandings(standings)}
}

func formatStandings(rows []backend.Standing) string {
	lines := make([]string, len(rows))
	for i, s := range rows {
		lines[i] = fmt.Sprintf("• %d. %s - %s points", s.Position, s.Name, strconv.FormatFloat(s.TotalScore, 'f', -1, 64))
	}
	return strings.Join(lines, "\n")
}
