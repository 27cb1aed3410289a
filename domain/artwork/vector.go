package artwork

import "math"

// NormEpsilon is added to the denominator when normalizing so a
// degenerate zero vector normalizes to a zero vector instead of
// dividing by zero.
const NormEpsilon = 1e-12

// Vector is an embedding vector. The zero value is an absent embedding.
type Vector struct {
	floats []float64
}

// NewVector creates a Vector. The input is defensively copied.
func NewVector(floats []float64) Vector {
	cp := make([]float64, len(floats))
	copy(cp, floats)
	return Vector{floats: cp}
}

// Floats returns a defensive copy of the components. Nil for an absent
// embedding.
func (v Vector) Floats() []float64 {
	if v.floats == nil {
		return nil
	}
	cp := make([]float64, len(v.floats))
	copy(cp, v.floats)
	return cp
}

// Dimension returns the number of components.
func (v Vector) Dimension() int { return len(v.floats) }

// Norm returns the Euclidean norm.
func (v Vector) Norm() float64 {
	var sum float64
	for _, f := range v.floats {
		sum += f * f
	}
	return math.Sqrt(sum)
}

// Normalized returns a unit-norm copy of the vector. The epsilon guard
// maps a zero vector to a zero vector.
func (v Vector) Normalized() Vector {
	norm := v.Norm() + NormEpsilon
	floats := make([]float64, len(v.floats))
	for i, f := range v.floats {
		floats[i] = f / norm
	}
	return Vector{floats: floats}
}

// NormalizeRows L2-normalizes every row of a page in place, with the
// epsilon guard per row.
func NormalizeRows(rows [][]float64) {
	for _, row := range rows {
		var sum float64
		for _, f := range row {
			sum += f * f
		}
		norm := math.Sqrt(sum) + NormEpsilon
		for i := range row {
			row[i] /= norm
		}
	}
}
