package index

import (
	"iter"
	"math"
)

// Vector is a sparse weight vector over vocabulary indices.
// Indices are strictly ascending and weights are non-negative.
// The zero value is the zero vector.
type Vector struct {
	indices []int
	weights []float64
}

// Len returns the number of non-zero components.
func (v Vector) Len() int {
	return len(v.indices)
}

// IsZero reports whether the vector has no components.
func (v Vector) IsZero() bool {
	return len(v.indices) == 0
}

// Entries iterates over (index, weight) pairs in ascending index order.
func (v Vector) Entries() iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		for i, idx := range v.indices {
			if !yield(idx, v.weights[i]) {
				return
			}
		}
	}
}

// Weight returns the component at vocabulary index i, or 0.
func (v Vector) Weight(i int) float64 {
	lo, hi := 0, len(v.indices)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch {
		case v.indices[mid] == i:
			return v.weights[mid]
		case v.indices[mid] < i:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0
}

// Norm returns the Euclidean norm, summed in ascending index order.
func (v Vector) Norm() float64 {
	var sum float64
	for _, w := range v.weights {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of two vectors using a merge join over
// their sorted indices.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.indices) && j < len(o.indices) {
		switch {
		case v.indices[i] == o.indices[j]:
			sum += v.weights[i] * o.weights[j]
			i++
			j++
		case v.indices[i] < o.indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Equal reports whether both vectors have identical indices and
// bit-identical weights.
func (v Vector) Equal(o Vector) bool {
	if len(v.indices) != len(o.indices) {
		return false
	}
	for i := range v.indices {
		if v.indices[i] != o.indices[i] {
			return false
		}
		if math.Float64bits(v.weights[i]) != math.Float64bits(o.weights[i]) {
			return false
		}
	}
	return true
}

// normalize divides every component by the vector's norm in place.
// A vector with zero norm becomes the zero vector.
func (v Vector) normalize() Vector {
	norm := v.Norm()
	if norm == 0 {
		return Vector{}
	}
	for i := range v.weights {
		v.weights[i] /= norm
	}
	return v
}
