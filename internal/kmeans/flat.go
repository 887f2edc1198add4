package kmeans

// FitFlat is the row-slice entry point: it clusters n vectors of width d from
// k initial centroids and returns the final centroids flattened row-major
// (length k*d). The per-point assignment is not returned; use Labels to
// recompute it. The input slices are not modified.
func FitFlat(centroids, vectors [][]float64, k, maxIter int, eps float64, n, d int, opts ...Option) ([]float64, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := validateCounts(n, d, k, maxIter, eps); err != nil {
		return nil, err
	}
	if len(centroids) != k {
		return nil, invalidf("got %d centroids, want k=%d", len(centroids), k)
	}
	if len(vectors) != n {
		return nil, invalidf("got %d vectors, want n=%d", len(vectors), n)
	}
	if err := checkCells(n, d, o.maxCells); err != nil {
		return nil, err
	}
	if err := checkCells(k, d, o.maxCells); err != nil {
		return nil, err
	}

	cm, err := NewMatrix(centroids, d)
	if err != nil {
		return nil, err
	}
	dm, err := NewMatrix(vectors, d)
	if err != nil {
		return nil, err
	}
	if _, err := Fit(cm, dm, k, maxIter, eps, opts...); err != nil {
		return nil, err
	}
	return Flatten(cm), nil
}
