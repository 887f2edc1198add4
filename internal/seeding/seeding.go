// Package seeding picks initial centroids for package kmeans using k-means++.
package seeding

import (
	"fmt"
	"math/rand/v2"

	"github.com/oho/kmeansd/internal/kmeans"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultSeed makes runs reproducible when the caller does not choose a seed.
const DefaultSeed uint64 = 1234

// Seeds are the chosen initial centroids.
type Seeds struct {
	Centroids *mat.Dense
	// Indices[i] is the lowest data row nearest to centroid i.
	Indices []int
}

// KMeansPP draws k distinct rows of data as initial centroids. The first is
// uniform; each next one is drawn from the remaining rows with probability
// proportional to its distance to the nearest centroid chosen so far.
func KMeansPP(data *mat.Dense, k int, seed uint64) (*Seeds, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: nil matrix", kmeans.ErrInvalidArgument)
	}
	n, d := data.Dims()
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: k=%d must be in [1, %d]", kmeans.ErrInvalidArgument, k, n)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	centroids := mat.NewDense(k, d, nil)

	// pool holds the row indices not chosen yet; minDist the distance of each
	// pool entry to its nearest chosen centroid.
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	minDist := make([]float64, n)

	first := rng.IntN(n)
	centroids.SetRow(0, data.RawRowView(first))
	pool = remove(pool, first)
	minDist = minDist[:len(pool)]
	for j, row := range pool {
		minDist[j] = kmeans.Distance(data.RawRowView(row), centroids.RawRowView(0))
	}

	for c := 1; c < k; c++ {
		pick := weightedPick(rng, minDist)
		chosen := pool[pick]
		centroids.SetRow(c, data.RawRowView(chosen))

		pool = remove(pool, pick)
		minDist = remove(minDist, pick)
		center := centroids.RawRowView(c)
		for j, row := range pool {
			if dist := kmeans.Distance(data.RawRowView(row), center); dist < minDist[j] {
				minDist[j] = dist
			}
		}
	}

	return &Seeds{Centroids: centroids, Indices: nearestRows(data, centroids)}, nil
}

// weightedPick returns an index into weights drawn proportionally to its
// weight, or uniformly when every weight is zero.
func weightedPick(rng *rand.Rand, weights []float64) int {
	total := floats.Sum(weights)
	if total <= 0 {
		return rng.IntN(len(weights))
	}
	threshold := rng.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if cum > threshold {
			return i
		}
	}
	// Rounding left threshold at the very top; take the last positive weight.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return len(weights) - 1
}

func nearestRows(data, centroids *mat.Dense) []int {
	n, _ := data.Dims()
	k, _ := centroids.Dims()
	out := make([]int, k)
	for c := 0; c < k; c++ {
		center := centroids.RawRowView(c)
		best := 0
		bestDist := kmeans.Distance(data.RawRowView(0), center)
		for i := 1; i < n; i++ {
			if dist := kmeans.Distance(data.RawRowView(i), center); dist < bestDist {
				best, bestDist = i, dist
			}
		}
		out[c] = best
	}
	return out
}

func remove[T any](s []T, i int) []T {
	return append(s[:i], s[i+1:]...)
}
