// Package basis defines the low-rank basis artifact and the accumulator
// contract the basis-builder pipeline drives.
package basis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNoEmbeddings indicates the corpus has no embedded artworks, so a
// basis cannot be computed. This is a precondition failure, not a crash.
var ErrNoEmbeddings = errors.New("no embeddings found: run the embedding pipeline first")

// Artifact is the serialized basis consumed by the downstream
// visualization component. The field names and types are a
// cross-process contract and must not change.
type Artifact struct {
	// Basis holds the k basis row-vectors, each of length EmbeddingDim
	// and unit norm.
	Basis [][]float64 `json:"basis"`

	// ExplainedVarianceRatio holds the per-component fraction of total
	// variance, each in [0, 1].
	ExplainedVarianceRatio []float64 `json:"explained_variance_ratio"`

	// NSamples is the number of vectors the basis was computed from.
	NSamples int `json:"n_samples"`

	// NComponents is the number of basis vectors k.
	NComponents int `json:"n_components"`

	// EmbeddingDim is the vector dimensionality D.
	EmbeddingDim int `json:"embedding_dim"`
}

// Validate checks the artifact's structural invariants.
func (a Artifact) Validate() error {
	if len(a.Basis) != a.NComponents {
		return fmt.Errorf("basis has %d rows, expected n_components=%d", len(a.Basis), a.NComponents)
	}
	for i, row := range a.Basis {
		if len(row) != a.EmbeddingDim {
			return fmt.Errorf("basis row %d has length %d, expected embedding_dim=%d", i, len(row), a.EmbeddingDim)
		}
	}
	if len(a.ExplainedVarianceRatio) != a.NComponents {
		return fmt.Errorf("explained_variance_ratio has %d entries, expected %d", len(a.ExplainedVarianceRatio), a.NComponents)
	}
	for i, r := range a.ExplainedVarianceRatio {
		if r < 0 || r > 1 {
			return fmt.Errorf("explained_variance_ratio[%d] = %v outside [0, 1]", i, r)
		}
	}
	if a.NSamples <= 0 {
		return fmt.Errorf("n_samples = %d, expected > 0", a.NSamples)
	}
	return nil
}

// WriteFile fully overwrites path with the artifact. There is no
// versioning; each run produces a fresh, complete replacement.
func (a Artifact) WriteFile(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal basis artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write basis artifact: %w", err)
	}
	return nil
}

// ReadFile loads an artifact from path.
func ReadFile(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("read basis artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("parse basis artifact: %w", err)
	}
	return a, nil
}
