package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/hvga/hvga-og/internal/mcp"
)

var mcpWithChat bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio exposing the standings,
member, tournament and date tools. With --chat it also exposes ask_hvga_og,
which runs a full assistant turn.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := buildApp(cfg, mcpWithChat)
		if err != nil {
			return err
		}
		defer a.Close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "hvga MCP server started on stdio (tools=%d, chat=%t)\n",
			len(a.registry.Tools()), a.engine != nil)

		srv := mcpserver.NewServer(a.registry, a.engine)
		return srv.Serve()
	},
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpWithChat, "chat", false, "also expose the ask_hvga_og chat tool (needs provider keys)")
	rootCmd.AddCommand(mcpCmd)
}
