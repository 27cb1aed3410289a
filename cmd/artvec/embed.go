package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/metgalaxy/artvec/application/pipeline"
	"github.com/metgalaxy/artvec/infrastructure/imaging"
	"github.com/metgalaxy/artvec/infrastructure/persistence"
	"github.com/metgalaxy/artvec/infrastructure/provider"
	"github.com/metgalaxy/artvec/internal/config"
	"github.com/metgalaxy/artvec/internal/database"
	"github.com/metgalaxy/artvec/internal/log"
)

func embedCmd() *cobra.Command {
	var (
		envFile   string
		dbURL     string
		table     string
		batchSize int
		limit     int
		workers   int
		modelPath string
		device    string
		remoteURL string
	)

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Generate embeddings for artworks without one",
		Long: `Generate embeddings for artworks that have an image URL but no
embedding yet. Each image is downloaded, encoded with a pretrained CLIP
vision model, L2-normalized and committed batch by batch. A failing
record is logged and skipped; the run continues.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  DB_URL               Database URL (required; sqlite:/// or postgres://)
  ARTWORK_TABLE        Artwork table name (default: artworks)
  LOG_LEVEL            Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT           Log format: pretty, json (default: pretty)

  EMBED_BATCH_SIZE     Records per commit batch (default: 10)
  EMBED_SELECT_LIMIT   Max records per invocation (default: 1000)
  EMBED_FETCH_TIMEOUT  Image download timeout in seconds (default: 10)
  EMBED_PAUSE          Pause between batches in seconds (default: 0.5)
  EMBED_WORKERS        Concurrent downloads per batch (default: 1)

  ENCODER_MODEL_PATH   Local ONNX vision model file
  ENCODER_DEVICE       Execution device: cpu, cuda, coreml (default: cpu)
  ENCODER_REMOTE_URL   Remote inference endpoint (overrides the local model)
  ENCODER_TIMEOUT      Remote inference timeout in seconds (default: 60)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmbed(embedOptions{
				envFile:   envFile,
				dbURL:     dbURL,
				table:     table,
				batchSize: batchSize,
				limit:     limit,
				workers:   workers,
				modelPath: modelPath,
				device:    device,
				remoteURL: remoteURL,
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&dbURL, "db-url", "", "Database URL")
	cmd.Flags().StringVar(&table, "table", "", "Artwork table name")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Records per commit batch")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max records per invocation")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent downloads per batch")
	cmd.Flags().StringVar(&modelPath, "model", "", "Local ONNX vision model file")
	cmd.Flags().StringVar(&device, "device", "", "Execution device: cpu, cuda, coreml")
	cmd.Flags().StringVar(&remoteURL, "remote-url", "", "Remote inference endpoint")

	return cmd
}

type embedOptions struct {
	envFile   string
	dbURL     string
	table     string
	batchSize int
	limit     int
	workers   int
	modelPath string
	device    string
	remoteURL string
}

func runEmbed(opts embedOptions) error {
	cfg, err := loadConfig(opts.envFile)
	if err != nil {
		return err
	}
	cfg = applyEmbedOverrides(cfg, opts)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Encoder().Validate(); err != nil {
		return err
	}

	logger := log.Configure(cfg.LogLevel(), log.ParseFormat(cfg.LogFormat()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting artvec embed", attrs...)

	db, err := database.New(ctx, cfg.DBURL())
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("close database", slog.Any("error", err))
		}
	}()

	encoder := newEncoder(cfg.Encoder())
	defer func() { _ = encoder.Close() }()

	store := persistence.NewArtworkStore(db, cfg.ArtworkTable())
	fetcher := imaging.NewFetcher(cfg.Embed().FetchTimeout())

	p := pipeline.NewEmbeddingPipeline(store, fetcher, encoder, cfg.Embed(), logger)
	if _, err := p.Run(ctx); err != nil {
		return fmt.Errorf("embedding pipeline: %w", err)
	}
	return nil
}

// newEncoder builds the configured encoder. A remote endpoint takes
// precedence over a local model.
func newEncoder(cfg config.EncoderConfig) provider.Encoder {
	if cfg.IsRemote() {
		return provider.NewRemoteEncoder(cfg.RemoteURL(), cfg.Timeout())
	}
	return provider.NewOnnxEncoder(cfg.ModelPath(), cfg.Device())
}

// applyEmbedOverrides applies command line flag overrides to the config.
func applyEmbedOverrides(cfg config.AppConfig, opts embedOptions) config.AppConfig {
	var appOpts []config.AppConfigOption

	if opts.dbURL != "" {
		appOpts = append(appOpts, config.WithDBURL(opts.dbURL))
	}
	if opts.table != "" {
		appOpts = append(appOpts, config.WithArtworkTable(opts.table))
	}

	embed := cfg.Embed()
	if opts.batchSize > 0 {
		embed = embed.WithBatchSize(opts.batchSize)
	}
	if opts.limit > 0 {
		embed = embed.WithSelectLimit(opts.limit)
	}
	if opts.workers > 0 {
		embed = embed.WithWorkers(opts.workers)
	}
	appOpts = append(appOpts, config.WithEmbedConfig(embed))

	encoder := cfg.Encoder()
	if opts.modelPath != "" {
		encoder = encoder.WithModelPath(opts.modelPath)
	}
	if opts.device != "" {
		encoder = encoder.WithDevice(opts.device)
	}
	if opts.remoteURL != "" {
		encoder = encoder.WithRemoteURL(opts.remoteURL)
	}
	appOpts = append(appOpts, config.WithEncoderConfig(encoder))

	return cfg.Apply(appOpts...)
}
