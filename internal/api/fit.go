package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oho/kmeansd/internal/config"
	"github.com/oho/kmeansd/internal/kmeans"
)

// FitRequest carries the arguments of kmeans.FitFlat.
type FitRequest struct {
	Centroids [][]float64 `json:"centroids"`
	Vectors   [][]float64 `json:"vectors"`
	K         int         `json:"k"`
	Iter      int         `json:"iter"`
	Eps       float64     `json:"eps"`
	N         int         `json:"n"`
	D         int         `json:"d"`
}

// FitRouter exposes the stateless clustering entry point. The response holds
// only the flattened final centroids.
func FitRouter(cfg config.ClusteringConfig) chi.Router {
	r := chi.NewRouter()

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var req FitRequest
		if !decodeBody(w, r, bodyLimit(cfg.MaxCells), &req) {
			return
		}

		opts := []kmeans.Option{kmeans.WithMaxCells(cfg.MaxCells)}
		if cfg.CommitOnConvergence {
			opts = append(opts, kmeans.WithCommitOnConvergence())
		}
		centroids, err := kmeans.FitFlat(req.Centroids, req.Vectors, req.K, req.Iter, req.Eps, req.N, req.D, opts...)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"centroids": centroids})
	})

	return r
}
