package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/issuewiz/graphix/internal/audit"
	"github.com/issuewiz/graphix/internal/cache"
	"github.com/issuewiz/graphix/internal/export"
	"github.com/issuewiz/graphix/internal/mindmap"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the cached mind map of a file",
	Long: `Exports a previously analyzed file as a PNG image, an SVG drawing, a Mermaid
mindmap or a terminal tree. Without --key the most recent analysis of the
file is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("key", "", "cache key (owner/repo#issue) holding the analysis")
	exportCmd.Flags().String("format", "png", "output format: png, svg, mermaid or tree")
	exportCmd.Flags().String("out", "", "output directory (overrides config)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	key, _ := cmd.Flags().GetString("key")
	format, _ := cmd.Flags().GetString("format")
	outDir, _ := cmd.Flags().GetString("out")
	if outDir == "" {
		outDir = cfg.Export.OutputDir
	}

	store, database, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	var entry cache.Entry
	if key != "" {
		entry, err = store.Lookup(ctx, key, file)
	} else {
		key, entry, err = store.FindLatest(ctx, file)
	}
	if errors.Is(err, cache.ErrNotFound) {
		return fmt.Errorf("no analysis of %s found; run `graphix analyze` first", file)
	}
	if err != nil {
		return err
	}

	t, err := export.NewTarget(file, &entry.Analysis)
	if err != nil {
		return err
	}
	sink := export.DirSink{Dir: outDir}
	base := strings.TrimSuffix(export.FileName(file), ".png")

	var path string
	switch format {
	case "png":
		exporter := export.New(sink, export.LogNotifier{}, exportOptions(cfg), exportStrategies(cfg)...)
		path, err = exporter.Export(ctx, t)
	case "svg":
		path, err = sink.Save(ctx, base+".svg", []byte(mindmap.RenderSVG(t.Layout, cfg.Export.Background)))
	case "mermaid":
		path, err = sink.Save(ctx, base+".mmd", []byte(mindmap.RenderMermaid(file, &entry.Analysis)))
	case "tree":
		fmt.Fprintln(cmd.OutOrStdout(), mindmap.RenderTree(file, &entry.Analysis))
		return nil
	default:
		return fmt.Errorf("unknown format %q: must be png, svg, mermaid or tree", format)
	}
	record(ctx, audit.NewStore(database), audit.ExportEntry(key, file, format, path, err))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Exported %s (%s) to %s\n", file, key, path)
	return nil
}
