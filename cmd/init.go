package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hvga/hvga-og/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize HVGA OG configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose providers, the knowledge base and session storage, and writes the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
