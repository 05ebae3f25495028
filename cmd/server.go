package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/issuewiz/graphix/internal/analysis"
	"github.com/issuewiz/graphix/internal/audit"
	"github.com/issuewiz/graphix/internal/config"
	"github.com/issuewiz/graphix/internal/matcher"
	"github.com/issuewiz/graphix/internal/pipeline"
	"github.com/issuewiz/graphix/internal/server"
	"github.com/issuewiz/graphix/internal/web"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the graphix web UI",
	Long:  `Starts the web server with the issue form, the match dashboard, the mind map viewer and the JSON API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		store, database, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		srv := server.New(server.Config{
			Port:     port,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, database)

		deps := web.Deps{
			Store:         store,
			Strategies:    exportStrategies(cfg),
			ExportOptions: exportOptions(cfg),
			Audit:         audit.NewStore(database),
		}
		registerAllRoutes(srv, cfg, &deps)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "graphix server %s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", filepath.Join(cfg.DataDir, "graphix.db"))
		fmt.Fprintf(os.Stderr, "  Issue analysis: %s\n", enabled(deps.Pipeline != nil))

		return srv.Start()
	},
}

// registerAllRoutes wires the UI and, when GitHub and model credentials are
// available, the issue pipeline and the match-keywords endpoint. Missing
// credentials leave cached results browsable.
func registerAllRoutes(srv *server.Server, cfg *config.Config, deps *web.Deps) {
	r := srv.Router()

	var analyzer *analysis.Analyzer
	if a, err := createAnalyzer(cfg); err != nil {
		slog.Warn("file analysis disabled", "error", err)
	} else {
		analyzer = a
		deps.Analyzer = a
	}

	client, err := createGitHubClient(cfg)
	if err != nil {
		slog.Warn("issue analysis disabled", "error", err)
	} else {
		m, err := createMatcher(cfg, client)
		if err != nil {
			slog.Warn("issue matching disabled", "error", err)
		} else {
			matcher.RegisterRoutes(r.With(srv.Timeout()), m)
			if analyzer != nil {
				deps.Pipeline = pipeline.New(client, m, analyzer, deps.Store, pipeline.Options{
					Scope:       cfg.Cache.Scope,
					Concurrency: cfg.MaxConcurrency,
				})
			}
		}
	}

	web.New(*deps).RegisterRoutes(r, srv.Timeout())
}

func enabled(ok bool) string {
	if ok {
		return "enabled"
	}
	return "disabled (set a GitHub token and model API key)"
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
