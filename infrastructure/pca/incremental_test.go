package pca

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// syntheticRows draws rows whose variance is concentrated on the first
// axis, with progressively smaller spread on later axes.
func syntheticRows(rng *rand.Rand, n, dim int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		row := make([]float64, dim)
		scale := 8.0
		for j := 0; j < dim && j < 4; j++ {
			row[j] = rng.NormFloat64() * scale
			scale /= 2
		}
		for j := 4; j < dim; j++ {
			row[j] = rng.NormFloat64() * 0.01
		}
		rows[i] = row
	}
	return rows
}

func norm(row []float64) float64 {
	var sum float64
	for _, f := range row {
		sum += f * f
	}
	return math.Sqrt(sum)
}

func TestObserveFinalizeShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	acc := NewIncremental(4)

	for page := 0; page < 3; page++ {
		require.NoError(t, acc.Observe(syntheticRows(rng, 100, 16)))
	}

	result, err := acc.Finalize()
	require.NoError(t, err)
	require.Equal(t, 300, result.Samples())
	require.Len(t, result.Components(), 4)
	for _, row := range result.Components() {
		require.Len(t, row, 16)
		require.InDelta(t, 1.0, norm(row), 1e-6)
	}
}

func TestVarianceRatiosBoundedAndOrdered(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	acc := NewIncremental(4)
	for page := 0; page < 4; page++ {
		require.NoError(t, acc.Observe(syntheticRows(rng, 200, 8)))
	}

	result, err := acc.Finalize()
	require.NoError(t, err)

	ratios := result.VarianceRatios()
	require.Len(t, ratios, 4)
	var sum float64
	for i, r := range ratios {
		require.GreaterOrEqual(t, r, 0.0)
		require.LessOrEqual(t, r, 1.0)
		if i > 0 {
			require.LessOrEqual(t, r, ratios[i-1]+1e-9)
		}
		sum += r
	}
	require.LessOrEqual(t, sum, 1.0+1e-9)
	// The four seeded axes carry almost all variance.
	require.Greater(t, sum, 0.9)
}

func TestDominantDirectionRecovered(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	acc := NewIncremental(2)

	// Variance overwhelmingly along axis 0.
	for page := 0; page < 3; page++ {
		rows := make([][]float64, 150)
		for i := range rows {
			rows[i] = []float64{rng.NormFloat64() * 20, rng.NormFloat64() * 0.1, rng.NormFloat64() * 0.1}
		}
		require.NoError(t, acc.Observe(rows))
	}

	result, err := acc.Finalize()
	require.NoError(t, err)

	first := result.Components()[0]
	require.Greater(t, math.Abs(first[0]), 0.99)
}

func TestDeterministicSign(t *testing.T) {
	run := func(seed int64) [][]float64 {
		rng := rand.New(rand.NewSource(seed))
		acc := NewIncremental(2)
		require.NoError(t, acc.Observe(syntheticRows(rng, 100, 6)))
		result, err := acc.Finalize()
		require.NoError(t, err)
		return result.Components()
	}

	a := run(21)
	b := run(21)
	require.Equal(t, a, b)
}

func TestObserveErrors(t *testing.T) {
	acc := NewIncremental(4)
	require.Error(t, acc.Observe(nil))
	require.Error(t, acc.Observe([][]float64{{1, 2}, {3, 4}}))       // dim < k
	require.Error(t, acc.Observe([][]float64{{1, 2, 3, 4, 5}}))     // rows < k
	_, err := acc.Finalize()
	require.ErrorIs(t, err, ErrNoData)

	require.NoError(t, acc.Observe([][]float64{
		{1, 0, 0, 0, 0}, {0, 1, 0, 0, 0}, {0, 0, 1, 0, 0}, {0, 0, 0, 1, 0},
	}))
	require.Error(t, acc.Observe([][]float64{{1, 2, 3}})) // dim mismatch
}

func TestSingleObserveMatchesBatchDirection(t *testing.T) {
	// Feeding one corpus as a single page or as two pages should find
	// similar leading directions for well-separated spectra.
	rng := rand.New(rand.NewSource(5))
	corpus := syntheticRows(rng, 400, 6)

	whole := NewIncremental(1)
	require.NoError(t, whole.Observe(corpus))
	wr, err := whole.Finalize()
	require.NoError(t, err)

	split := NewIncremental(1)
	require.NoError(t, split.Observe(corpus[:200]))
	require.NoError(t, split.Observe(corpus[200:]))
	sr, err := split.Finalize()
	require.NoError(t, err)

	var dot float64
	for j := range wr.Components()[0] {
		dot += wr.Components()[0][j] * sr.Components()[0][j]
	}
	require.Greater(t, math.Abs(dot), 0.98)
}
