// Package pca implements a streaming principal-component accumulator.
package pca

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/metgalaxy/artvec/domain/basis"
)

// ErrNoData indicates Finalize was called before any page was observed.
var ErrNoData = errors.New("no data observed")

// Incremental accumulates a low-rank basis over successive pages
// without retaining prior pages. Per page it stacks the scaled previous
// components, the centered page, and a mean-correction row, then takes
// a thin SVD of the stack — so memory is bounded by the page size, not
// the corpus. Mean and variance are tracked with the pairwise update of
// Chan et al., giving explained-variance ratios over the full corpus.
type Incremental struct {
	k   int
	dim int

	n          int
	mean       []float64
	sqDev      []float64 // per-column sum of squared deviations
	components *mat.Dense
	singular   []float64
}

// NewIncremental creates an accumulator for k components.
func NewIncremental(k int) *Incremental {
	if k < 1 {
		k = 1
	}
	return &Incremental{k: k}
}

// Observe folds one page into the running reduction.
func (p *Incremental) Observe(page [][]float64) error {
	if len(page) == 0 {
		return errors.New("observe: empty page")
	}
	if p.n == 0 {
		p.dim = len(page[0])
		if p.dim == 0 {
			return errors.New("observe: zero-dimensional rows")
		}
		if p.dim < p.k {
			return fmt.Errorf("observe: %d components requested but rows have only %d dimensions", p.k, p.dim)
		}
		if len(page) < p.k {
			return fmt.Errorf("observe: first page has %d rows, need at least %d for %d components", len(page), p.k, p.k)
		}
	}
	for i, row := range page {
		if len(row) != p.dim {
			return fmt.Errorf("observe: row %d has dimension %d, expected %d", i, len(row), p.dim)
		}
	}

	nNew := len(page)
	colMean, colSqDev := meanAndSqDev(page, p.dim)

	var stack *mat.Dense
	if p.n == 0 {
		stack = mat.NewDense(nNew, p.dim, nil)
		for i, row := range page {
			for j, v := range row {
				stack.Set(i, j, v-colMean[j])
			}
		}
		p.mean = colMean
		p.sqDev = colSqDev
		p.n = nNew
	} else {
		updated := p.n + nNew
		rows := p.k + nNew + 1
		stack = mat.NewDense(rows, p.dim, nil)

		for i := 0; i < p.k; i++ {
			for j := 0; j < p.dim; j++ {
				stack.Set(i, j, p.singular[i]*p.components.At(i, j))
			}
		}
		for i, row := range page {
			for j, v := range row {
				stack.Set(p.k+i, j, v-colMean[j])
			}
		}
		corr := math.Sqrt(float64(p.n) * float64(nNew) / float64(updated))
		for j := 0; j < p.dim; j++ {
			stack.Set(rows-1, j, corr*(p.mean[j]-colMean[j]))
		}

		for j := 0; j < p.dim; j++ {
			delta := colMean[j] - p.mean[j]
			p.mean[j] += delta * float64(nNew) / float64(updated)
			p.sqDev[j] += colSqDev[j] + delta*delta*float64(p.n)*float64(nNew)/float64(updated)
		}
		p.n = updated
	}

	var svd mat.SVD
	if !svd.Factorize(stack, mat.SVDThin) {
		return errors.New("observe: SVD failed to converge")
	}

	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	kept := p.k
	if len(values) < kept {
		kept = len(values)
	}

	components := mat.NewDense(p.k, p.dim, nil)
	singular := make([]float64, p.k)
	for i := 0; i < kept; i++ {
		flip := signFlip(&v, i, p.dim)
		for j := 0; j < p.dim; j++ {
			components.Set(i, j, flip*v.At(j, i))
		}
		singular[i] = values[i]
	}

	p.components = components
	p.singular = singular
	return nil
}

// Finalize extracts the k components and their explained-variance
// ratios over all observed samples.
func (p *Incremental) Finalize() (basis.Result, error) {
	if p.n == 0 {
		return basis.Result{}, ErrNoData
	}

	components := make([][]float64, p.k)
	for i := range components {
		row := make([]float64, p.dim)
		for j := 0; j < p.dim; j++ {
			row[j] = p.components.At(i, j)
		}
		components[i] = row
	}

	ratios := make([]float64, p.k)
	if p.n > 1 {
		var totalVar float64
		for _, s := range p.sqDev {
			totalVar += s / float64(p.n-1)
		}
		if totalVar > 0 {
			for i, s := range p.singular {
				explained := s * s / float64(p.n-1)
				ratios[i] = clamp01(explained / totalVar)
			}
		}
	}

	return basis.NewResult(components, ratios, p.n), nil
}

func meanAndSqDev(page [][]float64, dim int) ([]float64, []float64) {
	n := float64(len(page))
	mean := make([]float64, dim)
	for _, row := range page {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}

	sqDev := make([]float64, dim)
	for _, row := range page {
		for j, v := range row {
			d := v - mean[j]
			sqDev[j] += d * d
		}
	}
	return mean, sqDev
}

// signFlip returns -1 when the largest-magnitude element of component i
// is negative, making the component's sign deterministic across runs.
func signFlip(v *mat.Dense, i, dim int) float64 {
	var maxAbs, at float64
	for j := 0; j < dim; j++ {
		e := v.At(j, i)
		if a := math.Abs(e); a > maxAbs {
			maxAbs = a
			at = e
		}
	}
	if at < 0 {
		return -1
	}
	return 1
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
