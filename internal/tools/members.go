package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hvga/hvga-og/internal/backend"
	"github.com/hvga/hvga-og/internal/dates"
)

// MembersToolName is the registered name of the member profile tool.
const MembersToolName = "get_members_profile"

const (
	membersUnavailable = "I'm sorry, I couldn't retrieve the member information at this time."
	notSpecified       = "Not specified"
	recentScoreLimit   = 3
)

// MemberSource searches the members table by name.
type MemberSource interface {
	SearchMembers(ctx context.Context, name string) ([]backend.Member, error)
}

// MembersTool formats the profile of every member matching a name.
func MembersTool(src MemberSource, resolver *dates.Resolver) Tool {
	if resolver == nil {
		resolver = dates.New(nil)
	}
	return Tool{
		Name:        MembersToolName,
		Description: "Get member profile information including handicap, flight, and status",
		Params: []Param{
			{Name: "memberName", Type: TypeString, Required: true, Description: "The name of the member to look up (can be partial name)"},
		},
		Handler: func(ctx context.Context, args Args) Result {
			name, _ := args.String("memberName")
			if src == nil {
				return Result{Error: membersUnavailable}
			}
			members, err := src.SearchMembers(ctx, name)
			if err != nil {
				log.Warn().Err(err).Str("member", name).Msg("member lookup failed")
				return Result{Error: membersUnavailable}
			}
			return describeMembers(name, members, resolver)
		},
	}
}

// MemberNotFoundMessage is the reply when no member matches name.
func MemberNotFoundMessage(name string) string {
	return fmt.Sprintf("I couldn't find any members matching %q.", strings.ToLower(strings.TrimSpace(name)))
}

func describeMembers(name string, members []backend.Member, resolver *dates.Resolver) Result {
	needle := strings.ToLower(strings.TrimSpace(name))
	var matches []backend.Member
	for _, m := range members {
		if strings.Contains(strings.ToLower(m.Name), needle) {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return Result{Message: MemberNotFoundMessage(name)}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	profiles := make([]string, len(matches))
	for i, m := range matches {
		profiles[i] = formatMember(m, resolver)
	}
	return Result{Message: strings.Join(profiles, "\n\n")}
}

func formatMember(m backend.Member, resolver *dates.Resolver) string {
	// A stored 0 means the index was never entered.
	handicap := notSpecified
	if m.HandicapIndex != nil && *m.HandicapIndex != 0 {
		handicap = strconv.FormatFloat(*m.HandicapIndex, 'f', -1, 64)
	}
	senior := "No"
	if m.IsSenior {
		senior = "Yes"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "• Name: %s\n", m.Name)
	fmt.Fprintf(&b, "• Status: %s\n", orNotSpecified(m.CurrentStatus))
	fmt.Fprintf(&b, "• Handicap: %s\n", handicap)
	fmt.Fprintf(&b, "• Flight: %s\n", orNotSpecified(m.Flight))
	fmt.Fprintf(&b, "• Senior: %s\n", senior)
	b.WriteString("• Recent Tournament Scores:\n")

	scores := recentScores(m.TournamentScores, resolver)
	if len(scores) == 0 {
		b.WriteString("  No recent tournament scores")
		return b.String()
	}
	for i, s := range scores {
		tournament := s.TournamentName
		if tournament == "" {
			tournament = "Unknown Tournament"
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  - %s: %s (%s)", s.Date, s.Score, tournament)
	}
	return b.String()
}

// recentScores returns up to three scores, most recent first.
func recentScores(scores []backend.Score, resolver *dates.Resolver) []backend.Score {
	sorted := append([]backend.Score(nil), scores...)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, iok := resolver.ParseDate(sorted[i].Date)
		dj, jok := resolver.ParseDate(sorted[j].Date)
		switch {
		case iok && jok:
			return di.After(dj)
		case iok != jok:
			return iok
		default:
			return sorted[i].Date > sorted[j].Date
		}
	})
	if len(sorted) > recentScoreLimit {
		sorted = sorted[:recentScoreLimit]
	}
	return sorted
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}
