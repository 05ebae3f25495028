package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/issuewiz/graphix/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing file classification, analysis and cached mind maps to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, database, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		// Cached mind maps stay available without model credentials.
		var analyzer mcpserver.Analyzer
		if a, err := createAnalyzer(cfg); err != nil {
			slog.Warn("analyze_file disabled", "error", err)
		} else {
			analyzer = a
		}

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "graphix MCP server started on stdio (data=%s)\n", cfg.DataDir)

		return mcpserver.NewServer(analyzer, store).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
