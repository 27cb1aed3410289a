package basis

// Result is a finalized reduction: k basis row-vectors and the fraction
// of total variance each explains.
type Result struct {
	components     [][]float64
	varianceRatios []float64
	samples        int
}

// NewResult creates a Result.
func NewResult(components [][]float64, varianceRatios []float64, samples int) Result {
	return Result{
		components:     components,
		varianceRatios: varianceRatios,
		samples:        samples,
	}
}

// Components returns the basis row-vectors.
func (r Result) Components() [][]float64 { return r.components }

// VarianceRatios returns the per-component explained-variance ratios.
func (r Result) VarianceRatios() []float64 { return r.varianceRatios }

// Samples returns the number of vectors observed.
func (r Result) Samples() int { return r.samples }

// Accumulator is a streaming dimensionality-reduction strategy. The
// pipeline feeds normalized pages through Observe without retaining
// prior pages, then calls Finalize once. Implementations may bound
// memory by corpus-independent state only.
type Accumulator interface {
	// Observe folds one page (rows = records, columns = D) into the
	// running reduction.
	Observe(page [][]float64) error

	// Finalize extracts the reduction after all pages were observed.
	Finalize() (Result, error)
}
