package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/metgalaxy/artvec/application/pipeline"
	"github.com/metgalaxy/artvec/infrastructure/persistence"
	"github.com/metgalaxy/artvec/internal/config"
	"github.com/metgalaxy/artvec/internal/database"
	"github.com/metgalaxy/artvec/internal/log"
)

func basisCmd() *cobra.Command {
	var (
		envFile    string
		dbURL      string
		table      string
		pageSize   int
		components int
		output     string
	)

	cmd := &cobra.Command{
		Use:   "basis",
		Short: "Build the PCA basis artifact from stored embeddings",
		Long: `Build the PCA basis artifact from stored embeddings. Embedded
artworks are streamed in pages, row-normalized and folded into an
incremental PCA; the pca_basis.json artifact is written only when the
whole run succeeds.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  DB_URL             Database URL (required; sqlite:/// or postgres://)
  ARTWORK_TABLE      Artwork table name (default: artworks)
  LOG_LEVEL          Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT         Log format: pretty, json (default: pretty)

  BASIS_PAGE_SIZE    Rows fetched per page (default: 8192)
  BASIS_COMPONENTS   Number of basis components (default: 4)
  BASIS_OUTPUT       Artifact path (default: pca_basis.json)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBasis(basisOptions{
				envFile:    envFile,
				dbURL:      dbURL,
				table:      table,
				pageSize:   pageSize,
				components: components,
				output:     output,
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "Database URL")
	cmd.Flags().StringVar(&table, "table", "", "Artwork table name")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Rows fetched per page")
	cmd.Flags().IntVar(&components, "components", 0, "Number of basis components")
	cmd.Flags().StringVar(&output, "output", "", "Artifact path")

	return cmd
}

type basisOptions struct {
	envFile    string
	dbURL      string
	table      string
	pageSize   int
	components int
	output     string
}

func runBasis(opts basisOptions) error {
	cfg, err := loadConfig(opts.envFile)
	if err != nil {
		return err
	}
	cfg = applyBasisOverrides(cfg, opts)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.Configure(cfg.LogLevel(), log.ParseFormat(cfg.LogFormat()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting artvec basis", attrs...)

	db, err := database.New(ctx, cfg.DBURL())
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("close database", slog.Any("error", err))
		}
	}()

	store := persistence.NewArtworkStore(db, cfg.ArtworkTable())

	p := pipeline.NewBasisPipeline(store, nil, cfg.Basis(), logger)
	if _, err := p.Run(ctx); err != nil {
		return fmt.Errorf("basis pipeline: %w", err)
	}
	return nil
}

// applyBasisOverrides applies command line flag overrides to the config.
func applyBasisOverrides(cfg config.AppConfig, opts basisOptions) config.AppConfig {
	var appOpts []config.AppConfigOption

	if opts.dbURL != "" {
		appOpts = append(appOpts, config.WithDBURL(opts.dbURL))
	}
	if opts.table != "" {
		appOpts = append(appOpts, config.WithArtworkTable(opts.table))
	}

	basis := cfg.Basis()
	if opts.pageSize > 0 {
		basis = basis.WithPageSize(opts.pageSize)
	}
	if opts.components > 0 {
		basis = basis.WithComponents(opts.components)
	}
	if opts.output != "" {
		basis = basis.WithOutputPath(opts.output)
	}
	appOpts = append(appOpts, config.WithBasisConfig(basis))

	return cfg.Apply(appOpts...)
}
