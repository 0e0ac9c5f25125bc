package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hvga/hvga-og/internal/llm"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate the API cost of a chat turn",
	Long: `Builds the system prompt from the knowledge base and tool list, estimates its
token count, and prices a typical turn for the configured models without
making any calls.`,
	RunE: runCost,
}

func init() {
	costCmd.Flags().Int("turns", 1000, "number of turns to price")
	rootCmd.AddCommand(costCmd)
}

// Rough per-turn sizes beyond the system prompt.
const (
	typicalHistoryTokens = 400
	typicalReplyTokens   = 250
)

func runCost(cmd *cobra.Command, args []string) error {
	turns, _ := cmd.Flags().GetInt("turns")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := buildApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	promptTokens := llm.EstimateTokens(a.prompt)

	fmt.Println("Cost Estimate")
	fmt.Println("=============")
	fmt.Printf("  Knowledge base:      %s\n", cfg.KnowledgeFile)
	fmt.Printf("  System prompt:       ~%d tokens\n", promptTokens)
	fmt.Printf("  Tools:               %d\n", len(a.registry.Tools()))
	fmt.Println()

	fmt.Printf("  Per turn / %d turns:\n", turns)
	fmt.Println("  ────────────────────────────────────────")

	// Primary: full history in, a tool round trip doubles the input.
	primaryIn := promptTokens + typicalHistoryTokens
	primary := llm.EstimateCost(cfg.Primary.Model, primaryIn, typicalReplyTokens)
	withTool := llm.EstimateCost(cfg.Primary.Model, 2*primaryIn, typicalReplyTokens)
	fmt.Printf("  primary  %-28s $%.5f  (with tool call $%.5f)  x%d = $%.2f\n",
		cfg.Primary.Model, primary, withTool, turns, primary*float64(turns))

	if cfg.Fallback.Enabled() {
		fallback := llm.EstimateCost(cfg.Fallback.Model, promptTokens, 150)
		fmt.Printf("  fallback %-28s $%.5f  x%d = $%.2f\n",
			cfg.Fallback.Model, fallback, turns, fallback*float64(turns))
	}

	if primary == 0 {
		fmt.Printf("\n  No pricing known for %s.\n", cfg.Primary.Model)
	}
	return nil
}
