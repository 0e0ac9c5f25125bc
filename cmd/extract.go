package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hvga/hvga-og/internal/knowledge"
)

var extractCmd = &cobra.Command{
	Use:   "extract [schedule|results|next|last|query]",
	Short: "Show what the knowledge base parser extracts",
	Long: `Parses the knowledge base and prints the tournament schedule, the results,
or a single tournament lookup. Lines the parser could not read are listed on
stderr so the knowledge file can be fixed.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"schedule", "results", "next", "last", "query"},
	RunE:      runExtract,
}

func init() {
	extractCmd.Flags().String("date", "", "date for the query subcommand (e.g. 2025-03-15, March 2025)")
	extractCmd.Flags().String("relative", "", "relative time for the query subcommand (e.g. last month)")
	extractCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kb, err := loadKnowledge(cfg)
	if err != nil {
		return err
	}

	var (
		out    any
		issues []knowledge.Issue
	)
	switch args[0] {
	case "schedule":
		out, issues = kb.Schedule()
	case "results":
		out, issues = kb.Results()
	case "next":
		out = kb.NextTournament()
	case "last":
		out = kb.LastTournament()
	case "query":
		date, _ := cmd.Flags().GetString("date")
		relative, _ := cmd.Flags().GetString("relative")
		out = kb.Query(date, relative)
	default:
		return fmt.Errorf("unknown section %q: want schedule, results, next, last or query", args[0])
	}

	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "warning: %s\n", issue)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printExtract(os.Stdout, out)
	return nil
}

func printExtract(w io.Writer, v any) {
	switch v := v.(type) {
	case []knowledge.ScheduleEntry:
		fmt.Fprintf(w, "Found %d scheduled tournaments:\n\n", len(v))
		for _, e := range v {
			printScheduleEntry(w, e)
		}
	case []knowledge.ResultsEntry:
		fmt.Fprintf(w, "Found %d completed tournaments:\n\n", len(v))
		for _, e := range v {
			printResultsEntry(w, e)
		}
	case knowledge.Outcome:
		switch {
		case v.Schedule != nil:
			fmt.Fprintln(w, "Upcoming (results not available yet):")
			printScheduleEntry(w, *v.Schedule)
		case v.Results != nil:
			printResultsEntry(w, *v.Results)
		default:
			fmt.Fprintln(w, "No tournament information found for the specified date/time")
		}
	}
}

func printScheduleEntry(w io.Writer, e knowledge.ScheduleEntry) {
	parts := []string{e.DateText, "-", e.Venue}
	if e.Time != "" {
		parts = append(parts, e.Time)
	}
	if e.Format != "" {
		parts = append(parts, e.Format)
	}
	line := strings.Join(parts, " ")
	if e.Cost != nil {
		line += fmt.Sprintf("; Cost: $%d", *e.Cost)
	}
	fmt.Fprintf(w, "• %s\n", line)
}

func printResultsEntry(w io.Writer, e knowledge.ResultsEntry) {
	fmt.Fprintf(w, "%s - %s\n", e.DateText, e.Venue)
	flight := ""
	for _, win := range e.Winners {
		if win.Flight != flight {
			flight = win.Flight
			fmt.Fprintf(w, "• %s:\n", flight)
		}
		fmt.Fprintf(w, "  - %s Champion: %s (%s)\n", strings.ToUpper(string(win.Type)), win.Name, win.Score)
	}
	fmt.Fprintln(w)
}
