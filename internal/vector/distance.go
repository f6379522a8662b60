package vector

import "math"

// normalizedTolerance is the allowed deviation of a unit vector's norm from 1.
const normalizedTolerance = 1e-4

// InnerProduct returns the dot product of two vectors of equal length.
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

// SquaredL2 returns the squared Euclidean distance between two vectors of equal length.
func SquaredL2(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v. The input is not modified.
func Normalize(v []float32) ([]float32, error) {
	norm := L2Norm(v)
	if norm == 0 || math.IsNaN(norm) {
		return nil, ErrZeroVector
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

// IsNormalized reports whether v has unit length within a small tolerance.
func IsNormalized(v []float32) bool {
	return math.Abs(L2Norm(v)-1) <= normalizedTolerance
}
