package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/issuewiz/graphix/internal/audit"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past issue runs and exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		key, _ := cmd.Flags().GetString("key")
		limit, _ := cmd.Flags().GetInt("limit")
		prune, _ := cmd.Flags().GetDuration("prune")

		_, database, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		trail := audit.NewStore(database)
		ctx := context.Background()

		if prune > 0 {
			n, err := trail.DeleteBefore(ctx, time.Now().Add(-prune))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Pruned %d entries\n", n)
		}

		entries, err := trail.Query(ctx, audit.QueryFilter{CacheKey: key, Limit: limit})
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No history yet.")
			return nil
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("TIME", "ACTION", "OUTCOME", "KEY", "SUBJECT", "SUMMARY")
		for _, e := range entries {
			t.Row(e.Timestamp.Local().Format(time.DateTime), string(e.Action), string(e.Outcome), e.CacheKey, e.Subject, e.Summary)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t)
		return nil
	},
}

func init() {
	historyCmd.Flags().String("key", "", "only show entries for this cache key")
	historyCmd.Flags().Int("limit", 20, "maximum entries to show")
	historyCmd.Flags().Duration("prune", 0, "first delete entries older than this (e.g. 720h)")
	rootCmd.AddCommand(historyCmd)
}
