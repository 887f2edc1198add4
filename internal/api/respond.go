package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/oho/kmeansd/internal/kmeans"
	"github.com/oho/kmeansd/internal/pipeline"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps err onto a status code: bad input is 400, oversized
// input 413, unknown ids 404 and everything else 500.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, kmeans.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, kmeans.ErrAllocation):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, pipeline.ErrNotFound):
		status = http.StatusNotFound
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

// JSON bytes allowed per matrix cell, and the allowance for everything else
// in a request body.
const (
	bytesPerCell  = 32
	bodyOverhead  = 4 << 10
	matricesInFit = 2
)

// bodyLimit bounds a request body carrying up to two maxCells matrices.
// A budget of zero or less means unlimited.
func bodyLimit(maxCells int) int64 {
	if maxCells <= 0 {
		return 0
	}
	cells := int64(maxCells)
	if cells > (math.MaxInt64-bodyOverhead)/(bytesPerCell*matricesInFit) {
		return 0
	}
	return cells*bytesPerCell*matricesInFit + bodyOverhead
}

// decodeBody decodes a JSON body of at most limit bytes; limit <= 0 is unlimited.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("%v: request body exceeds %d bytes", kmeans.ErrAllocation, tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
