package normalize

import (
	"fmt"
	"math"
)

// L2Normalize scales the vector to unit length. Zero vectors pass
// through unchanged.
func L2Normalize(vector []float32) []float32 {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vector
	}
	length := math.Sqrt(sum)

	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(float64(v) / length)
	}
	return out
}

// validateVector rejects empty vectors, non-finite components and
// zero-norm vectors.
func validateVector(vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("empty embedding")
	}
	var sum float64
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("non-finite component at index %d", i)
		}
		sum += f * f
	}
	if sum == 0 {
		return fmt.Errorf("zero-norm embedding")
	}
	return nil
}
