// Package pipeline implements the two offline batch pipelines: embedding
// generation and basis building.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/metgalaxy/artvec/domain/artwork"
	"github.com/metgalaxy/artvec/infrastructure/imaging"
	"github.com/metgalaxy/artvec/infrastructure/provider"
	"github.com/metgalaxy/artvec/internal/config"
)

// ImageSource downloads raw image bytes. Satisfied by imaging.Fetcher.
type ImageSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// EmbeddingPipeline selects artworks without embeddings, downloads and
// encodes their images, and commits the results batch by batch. A
// record failure never aborts the run; a commit failure does.
type EmbeddingPipeline struct {
	store   artwork.Store
	source  ImageSource
	encoder provider.Encoder
	cfg     config.EmbedConfig
	logger  *slog.Logger
}

// NewEmbeddingPipeline creates an EmbeddingPipeline.
func NewEmbeddingPipeline(
	store artwork.Store,
	source ImageSource,
	encoder provider.Encoder,
	cfg config.EmbedConfig,
	logger *slog.Logger,
) *EmbeddingPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingPipeline{
		store:   store,
		source:  source,
		encoder: encoder,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run executes one pipeline invocation. With nothing pending it is a
// successful no-op.
func (p *EmbeddingPipeline) Run(ctx context.Context) (EmbedReport, error) {
	pending, err := p.store.FindPending(ctx, p.cfg.SelectLimit())
	if err != nil {
		return EmbedReport{}, fmt.Errorf("select pending artworks: %w", err)
	}
	if len(pending) == 0 {
		p.logger.InfoContext(ctx, "no artworks pending embedding")
		return EmbedReport{}, nil
	}

	p.logger.InfoContext(ctx, "starting embedding run",
		slog.Int("pending", len(pending)),
		slog.Int("batch_size", p.cfg.BatchSize()),
	)

	start := time.Now()
	var succeeded, failed, batches int

	for offset := 0; offset < len(pending); offset += p.cfg.BatchSize() {
		end := offset + p.cfg.BatchSize()
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[offset:end]

		updates, batchFailed := p.processBatch(ctx, batch)
		failed += batchFailed

		if len(updates) > 0 {
			if err := p.store.SaveEmbeddings(ctx, updates); err != nil {
				report := NewEmbedReport(len(pending), succeeded, failed, batches, time.Since(start))
				return report, fmt.Errorf("commit batch: %w", err)
			}
			succeeded += len(updates)
			batches++
		}

		p.logger.InfoContext(ctx, "batch finished",
			slog.Int("batch", batches),
			slog.Int("committed", len(updates)),
			slog.Int("failed", batchFailed),
			slog.Int("progress", end),
			slog.Int("total", len(pending)),
		)

		if end < len(pending) && p.cfg.BatchPause() > 0 {
			select {
			case <-ctx.Done():
				report := NewEmbedReport(len(pending), succeeded, failed, batches, time.Since(start))
				return report, ctx.Err()
			case <-time.After(p.cfg.BatchPause()):
			}
		}
	}

	report := NewEmbedReport(len(pending), succeeded, failed, batches, time.Since(start))
	p.logger.LogAttrs(ctx, slog.LevelInfo, "embedding run finished", report.LogAttrs()...)
	return report, nil
}

// processBatch embeds one batch with bounded fan-out. Record failures
// are logged and counted; the rest of the batch proceeds.
func (p *EmbeddingPipeline) processBatch(ctx context.Context, batch []artwork.Artwork) ([]artwork.EmbeddingUpdate, int) {
	type outcome struct {
		update artwork.EmbeddingUpdate
		ok     bool
	}
	outcomes := make([]outcome, len(batch))

	g := &errgroup.Group{}
	g.SetLimit(p.cfg.Workers())
	for i, art := range batch {
		i, art := i, art
		g.Go(func() error {
			update, err := p.processOne(ctx, art)
			if err != nil {
				p.logger.WarnContext(ctx, "artwork failed",
					slog.Int64("artwork_id", art.ID()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			outcomes[i] = outcome{update: update, ok: true}
			return nil
		})
	}
	_ = g.Wait()

	var updates []artwork.EmbeddingUpdate
	failed := 0
	for _, o := range outcomes {
		if o.ok {
			updates = append(updates, o.update)
		} else {
			failed++
		}
	}
	return updates, failed
}

// processOne downloads, decodes, encodes and normalizes one artwork.
func (p *EmbeddingPipeline) processOne(ctx context.Context, art artwork.Artwork) (artwork.EmbeddingUpdate, error) {
	data, err := p.source.Fetch(ctx, art.ImageURL())
	if err != nil {
		return artwork.EmbeddingUpdate{}, err
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return artwork.EmbeddingUpdate{}, err
	}
	vec, err := p.encoder.Encode(ctx, img)
	if err != nil {
		return artwork.EmbeddingUpdate{}, err
	}
	if len(vec) == 0 {
		return artwork.EmbeddingUpdate{}, fmt.Errorf("encoder returned an empty vector")
	}
	normalized := artwork.NewVector(vec).Normalized()
	return artwork.NewEmbeddingUpdate(art.ID(), normalized), nil
}
