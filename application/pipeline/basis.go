package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/metgalaxy/artvec/domain/artwork"
	"github.com/metgalaxy/artvec/domain/basis"
	"github.com/metgalaxy/artvec/infrastructure/pca"
	"github.com/metgalaxy/artvec/internal/config"
)

// AccumulatorFactory builds the streaming reduction for k components.
type AccumulatorFactory func(k int) basis.Accumulator

// BasisPipeline streams embedded artworks in pages, row-normalizes
// them, feeds a streaming PCA accumulator, and writes the basis
// artifact. The artifact is written only after the whole run succeeds.
type BasisPipeline struct {
	store          artwork.Store
	newAccumulator AccumulatorFactory
	cfg            config.BasisConfig
	logger         *slog.Logger
}

// NewBasisPipeline creates a BasisPipeline. A nil factory uses the
// incremental PCA accumulator.
func NewBasisPipeline(
	store artwork.Store,
	factory AccumulatorFactory,
	cfg config.BasisConfig,
	logger *slog.Logger,
) *BasisPipeline {
	if factory == nil {
		factory = func(k int) basis.Accumulator { return pca.NewIncremental(k) }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BasisPipeline{
		store:          store,
		newAccumulator: factory,
		cfg:            cfg,
		logger:         logger,
	}
}

// Run executes one basis build and returns the written artifact.
func (p *BasisPipeline) Run(ctx context.Context) (basis.Artifact, error) {
	count, err := p.store.CountEmbedded(ctx)
	if err != nil {
		return basis.Artifact{}, fmt.Errorf("count embedded artworks: %w", err)
	}
	if count == 0 {
		return basis.Artifact{}, basis.ErrNoEmbeddings
	}

	p.logger.InfoContext(ctx, "starting basis build",
		slog.Int64("embedded", count),
		slog.Int("components", p.cfg.Components()),
		slog.Int("page_size", p.cfg.PageSize()),
	)

	acc := p.newAccumulator(p.cfg.Components())

	dim := 0
	observed := 0
	for offset := 0; ; offset += p.cfg.PageSize() {
		page, err := p.store.FindEmbeddedPage(ctx, p.cfg.PageSize(), offset)
		if err != nil {
			return basis.Artifact{}, fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}
		if page.Empty() {
			break
		}

		for _, rowErr := range page.RowErrors() {
			p.logger.WarnContext(ctx, "skipping unparseable embedding",
				slog.Int64("artwork_id", rowErr.ID()),
				slog.String("error", rowErr.Err().Error()),
			)
		}

		rows := p.collectRows(ctx, page.Artworks(), &dim)
		if len(rows) > 0 {
			artwork.NormalizeRows(rows)
			if err := acc.Observe(rows); err != nil {
				return basis.Artifact{}, fmt.Errorf("observe page at offset %d: %w", offset, err)
			}
			observed += len(rows)
		}

		p.logger.InfoContext(ctx, "page observed",
			slog.Int("offset", offset),
			slog.Int("rows", len(rows)),
			slog.Int("observed", observed),
		)

		fetched := len(page.Artworks()) + len(page.RowErrors())
		if fetched < p.cfg.PageSize() {
			break
		}
	}

	result, err := acc.Finalize()
	if err != nil {
		return basis.Artifact{}, fmt.Errorf("finalize basis: %w", err)
	}

	// The accumulator's components are already near unit norm; a final
	// renormalization removes accumulated floating-point drift.
	components := result.Components()
	artwork.NormalizeRows(components)

	artifact := basis.Artifact{
		Basis:                  components,
		ExplainedVarianceRatio: result.VarianceRatios(),
		NSamples:               result.Samples(),
		NComponents:            p.cfg.Components(),
		EmbeddingDim:           dim,
	}
	if err := artifact.Validate(); err != nil {
		return basis.Artifact{}, fmt.Errorf("validate basis artifact: %w", err)
	}
	if err := artifact.WriteFile(p.cfg.OutputPath()); err != nil {
		return basis.Artifact{}, err
	}

	p.logger.InfoContext(ctx, "basis artifact written",
		slog.String("path", p.cfg.OutputPath()),
		slog.Int("n_samples", artifact.NSamples),
		slog.Int("embedding_dim", artifact.EmbeddingDim),
	)
	return artifact, nil
}

// collectRows extracts embedding rows from one page, fixing the corpus
// dimensionality on the first row and skipping rows that disagree.
func (p *BasisPipeline) collectRows(ctx context.Context, artworks []artwork.Artwork, dim *int) [][]float64 {
	rows := make([][]float64, 0, len(artworks))
	for _, art := range artworks {
		floats := art.Embedding().Floats()
		if len(floats) == 0 {
			p.logger.WarnContext(ctx, "skipping empty embedding",
				slog.Int64("artwork_id", art.ID()),
			)
			continue
		}
		if *dim == 0 {
			*dim = len(floats)
		}
		if len(floats) != *dim {
			p.logger.WarnContext(ctx, "skipping embedding with mismatched dimension",
				slog.Int64("artwork_id", art.ID()),
				slog.Int("dimension", len(floats)),
				slog.Int("expected", *dim),
			)
			continue
		}
		rows = append(rows, floats)
	}
	return rows
}
