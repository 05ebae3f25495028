package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/issuewiz/graphix/internal/audit"
	"github.com/issuewiz/graphix/internal/export"
	"github.com/issuewiz/graphix/internal/llm"
	"github.com/issuewiz/graphix/internal/mindmap"
	"github.com/issuewiz/graphix/internal/pipeline"
	"github.com/issuewiz/graphix/internal/progress"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <issue-url>",
	Short: "Match an issue to repository files and build their mind maps",
	Long: `Fetches the GitHub issue, ranks the repository's files against it, and
analyzes every matched file with the configured LLM. Analyses are cached, so
files whose content has not changed are not sent to the model again.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("force", false, "re-analyze files even when a cached analysis is current")
	analyzeCmd.Flags().Int("concurrency", 0, "max parallel LLM calls (overrides config)")
	analyzeCmd.Flags().Bool("export", false, "export a PNG of every analyzed file to the output directory")
	analyzeCmd.Flags().Bool("quiet", false, "print only the summary, not the mind map trees")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	doExport, _ := cmd.Flags().GetBool("export")
	quiet, _ := cmd.Flags().GetBool("quiet")

	store, database, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	analyzer, err := createAnalyzer(cfg)
	if err != nil {
		return err
	}
	p, err := createPipeline(cfg, analyzer, store, pipeline.Options{
		Concurrency: concurrency,
		Force:       force,
		Progress:    progress.Callback(progress.NewReporter(os.Stderr)),
	})
	if err != nil {
		return err
	}

	trail := audit.NewStore(database)
	res, err := p.Run(ctx, args[0])
	record(ctx, trail, audit.RunEntry(args[0], res, err))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", res.Ref, res.Issue.Title)
	fmt.Fprintf(out, "Cache key: %s\n\n", res.Key)

	exporter := export.New(export.DirSink{Dir: cfg.Export.OutputDir}, export.LogNotifier{}, exportOptions(cfg), exportStrategies(cfg)...)
	var exportErrs []error

	for _, m := range res.Matches.FilenameMatches {
		a, ok := res.Analyses[m.FileName]
		if !ok {
			fmt.Fprintf(out, "%s (match %.0f%%): analysis failed: %v\n\n", m.FileName, m.MatchScore*100, res.Failures[m.FileName])
			continue
		}
		fmt.Fprintf(out, "%s (match %.0f%%)\n", m.FileName, m.MatchScore*100)
		if !quiet {
			fmt.Fprintln(out, mindmap.RenderTree(m.FileName, &a))
		}
		if doExport {
			var path string
			t, err := export.NewTarget(m.FileName, &a)
			if err == nil {
				path, err = exporter.Export(ctx, t)
			}
			record(ctx, trail, audit.ExportEntry(res.Key, m.FileName, "png", path, err))
			if err != nil {
				exportErrs = append(exportErrs, fmt.Errorf("%s: %w", m.FileName, err))
			}
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Analyzed %d files (%d from cache, %d failed) in %s\n",
		len(res.Analyses), res.Reused, len(res.Failures), res.Duration.Round(time.Millisecond))
	if res.InputTokens+res.OutputTokens > 0 {
		fmt.Fprintf(out, "Tokens: %d in / %d out, estimated cost $%.4f\n",
			res.InputTokens, res.OutputTokens, llm.EstimateCost(cfg.Model, res.InputTokens, res.OutputTokens))
	}
	fmt.Fprintf(out, "\nView the results with: graphix server, then open /dashboard?key=%s\n", url.QueryEscape(res.Key))

	return errors.Join(exportErrs...)
}
