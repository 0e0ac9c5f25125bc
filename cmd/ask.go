package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hvga/hvga-og/internal/chat"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask HVGA OG a question from the command line",
	Long:  `Runs one conversation turn through the same providers, tools and knowledge base as the HTTP server.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().String("session", "", "session id to continue a conversation (sqlite sessions only persist between runs)")
	askCmd.Flags().Bool("json", false, "output the reply as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sessionID, _ := cmd.Flags().GetString("session")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := buildApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	reply, err := a.engine.Respond(ctx, chat.Turn{
		SessionID: sessionID,
		Message:   strings.Join(args, " "),
	})
	if err != nil {
		return fmt.Errorf("asking: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}

	fmt.Println(reply.Text)
	if verbose {
		fmt.Fprintf(os.Stderr, "\n(provider: %s, session: %s)\n", reply.Provider, reply.SessionID)
	}
	return nil
}
