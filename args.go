package main

import (
	"math"
	"strconv"
	"strings"
)

const (
	errClusters   usageError = "Invalid number of clusters!"
	errIterations usageError = "Invalid maximum iteration!"
	errEpsilon    usageError = "Invalid epsilon!"

	// errLegacyIterations is the stdin mode's wording for the iteration check.
	errLegacyIterations usageError = "Invalid number of iterations!"
)

// parseCount accepts only plain decimal digits, no sign or exponent.
func parseCount(s string) (int, bool) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

// parseClusters requires lo <= k < n, or lo <= k <= n when inclusive.
func parseClusters(s string, lo, n int, inclusive bool) (int, error) {
	k, ok := parseCount(s)
	if !ok || k < lo || k > n || (!inclusive && k == n) {
		return 0, errClusters
	}
	return k, nil
}

// parseIterations requires 1 < iter < 1000 and returns invalid otherwise.
func parseIterations(s string, invalid usageError) (int, error) {
	it, ok := parseCount(s)
	if !ok || it <= 1 || it >= 1000 {
		return 0, invalid
	}
	return it, nil
}

// parseEpsilon requires a finite, non-negative decimal.
func parseEpsilon(s string) (float64, error) {
	digits := strings.NewReplacer(".", "", "-", "").Replace(s)
	if _, ok := parseCount(digits); !ok {
		return 0, errEpsilon
	}
	eps, err := strconv.ParseFloat(s, 64)
	if err != nil || eps < 0 || math.IsInf(eps, 0) {
		return 0, errEpsilon
	}
	return eps, nil
}
