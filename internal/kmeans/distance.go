package kmeans

import "gonum.org/v1/gonum/floats"

// Distance returns the Euclidean distance between a and b.
// Both vectors must have the same length.
func Distance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}
