// Package vector provides similarity and encoding helpers for normalized embeddings.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two vectors that must be compared have different lengths.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
// Returns 0 when the lengths differ or the vectors are empty; use Dot when the caller must know.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// Dot is InnerProduct with an explicit error for mismatched or empty vectors.
func Dot(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	return InnerProduct(a, b), nil
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// IsNormalized reports whether x has unit L2 norm within tol.
func IsNormalized(x []float32, tol float64) bool {
	return math.Abs(L2Norm(x)-1) <= tol
}
