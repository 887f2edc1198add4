package kmeans

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidArgument is returned when counts, shapes or eps are inconsistent.
	ErrInvalidArgument = errors.New("kmeans: invalid argument")

	// ErrAllocation is returned when a buffer would overflow int or exceed the cell budget.
	ErrAllocation = errors.New("kmeans: allocation failure")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// validateCounts checks the scalar preconditions shared by every entry point.
func validateCounts(n, d, k, maxIter int, eps float64) error {
	switch {
	case n < 1:
		return invalidf("n must be positive, got %d", n)
	case d < 1:
		return invalidf("d must be positive, got %d", d)
	case k < 1:
		return invalidf("k must be positive, got %d", k)
	case k > n:
		return invalidf("k=%d exceeds n=%d", k, n)
	case maxIter < 1:
		return invalidf("iter must be positive, got %d", maxIter)
	case math.IsNaN(eps) || eps < 0:
		return invalidf("eps must be a non-negative number, got %v", eps)
	}
	return nil
}

// checkCells reports whether a rows×cols buffer can be allocated within budget.
// A budget of zero or less means unlimited.
func checkCells(rows, cols, budget int) error {
	if rows > 0 && cols > math.MaxInt/rows {
		return fmt.Errorf("%w: %d×%d cells overflow int", ErrAllocation, rows, cols)
	}
	if budget > 0 && rows*cols > budget {
		return fmt.Errorf("%w: %d×%d cells exceed budget of %d", ErrAllocation, rows, cols, budget)
	}
	return nil
}
