package cmd

import (
	"github.com/spf13/cobra"

	"github.com/issuewiz/graphix/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize graphix configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the LLM provider, matcher and GitHub settings, and writes them to .graphix.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
