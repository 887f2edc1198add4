package kmeans

import (
	"gonum.org/v1/gonum/mat"
)

// State is the terminal state of a run.
type State int

const (
	Running State = iota
	Converged
	IterationCapReached
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case IterationCapReached:
		return "iteration_cap_reached"
	default:
		return "unknown"
	}
}

// Result describes how a run ended. Centroids are returned through the
// matrix passed to Fit.
type Result struct {
	State      State
	Iterations int
	// Labels and Sizes come from the last assignment step. They match the
	// returned centroids only when the run converged without committing.
	Labels []int
	Sizes  []int
}

type options struct {
	commitOnConvergence bool
	maxCells            int
}

// Option configures Fit and FitFlat.
type Option func(*options)

// WithCommitOnConvergence commits the candidate centroids of the converging
// iteration instead of returning the centroids that iteration started from.
func WithCommitOnConvergence() Option {
	return func(o *options) { o.commitOnConvergence = true }
}

// WithMaxCells limits the number of float64 cells any single buffer may hold.
func WithMaxCells(n int) Option {
	return func(o *options) { o.maxCells = n }
}

// Fit runs Lloyd's algorithm on data (n×d) starting from centroids (k×d),
// which are overwritten in place. At most maxIter iterations run.
func Fit(centroids, data *mat.Dense, k, maxIter int, eps float64, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if centroids == nil || data == nil {
		return nil, invalidf("nil matrix")
	}
	n, d := data.Dims()
	if err := validateCounts(n, d, k, maxIter, eps); err != nil {
		return nil, err
	}
	if r, c := centroids.Dims(); r != k || c != d {
		return nil, invalidf("centroids are %d×%d, want %d×%d", r, c, k, d)
	}
	if err := checkCells(k, d, o.maxCells); err != nil {
		return nil, err
	}
	if err := checkCells(n, 1, o.maxCells); err != nil {
		return nil, err
	}

	w := newWorkspace(n, k, d)
	res := &Result{State: Running}
	for it := 0; it < maxIter; it++ {
		w.reset()
		w.assign(data, centroids)
		w.update(data, centroids)
		res.Iterations = it + 1

		if converged(centroids, w.next, eps) {
			if o.commitOnConvergence {
				centroids.Copy(w.next)
			}
			res.State = Converged
			break
		}
		centroids.Copy(w.next)
	}
	if res.State == Running {
		res.State = IterationCapReached
	}
	res.Labels = w.labels
	res.Sizes = w.sizes
	return res, nil
}
