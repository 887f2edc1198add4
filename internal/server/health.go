package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/oho/kmeansd/internal/config"
	"github.com/oho/kmeansd/internal/storage"
)

type HealthResponse struct {
	Status         string  `json:"status"`
	Embedding      string  `json:"embedding"`
	EmbeddingURL   string  `json:"embedding_url,omitempty"`
	EmbeddingModel *string `json:"embedding_model"`
	DB             string  `json:"db"`
	Datasets       int     `json:"datasets"`
	Runs           int     `json:"runs"`
	DataDir        string  `json:"data_dir"`
	Port           int     `json:"port"`
}

// EmbeddingStatus is the part of the embeddings client the health check needs.
type EmbeddingStatus interface {
	BaseURL() string
	HealthCheck(ctx context.Context) bool
	EmbeddingModel(ctx context.Context) *string
}

// HealthHandler returns a handler for GET /health.
func HealthHandler(cfg config.Config, db *storage.Database, emb EmbeddingStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:    "ok",
			Embedding: "unavailable",
			DB:        "connected",
			DataDir:   cfg.DataDir,
			Port:      cfg.Port,
		}

		if emb != nil {
			resp.EmbeddingURL = emb.BaseURL()
		}
		if emb != nil && emb.HealthCheck(r.Context()) {
			resp.Embedding = "connected"
			resp.EmbeddingModel = emb.EmbeddingModel(r.Context())
		}

		if db == nil {
			resp.DB = "unavailable"
		} else {
			datasets, err := db.CountDatasets()
			if err != nil {
				resp.DB = "error"
			}
			runs, err := db.CountRuns()
			if err != nil {
				resp.DB = "error"
			}
			resp.Datasets, resp.Runs = datasets, runs
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
