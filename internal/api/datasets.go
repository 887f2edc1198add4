package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oho/kmeansd/internal/pipeline"
	"github.com/oho/kmeansd/internal/storage"
)

type addDatasetRequest struct {
	Name    string      `json:"name"`
	Vectors [][]float64 `json:"vectors"`
	Texts   []string    `json:"texts"`
	Embed   bool        `json:"embed"`
}

func DatasetsRouter(runner *pipeline.Runner, db *storage.Database) chi.Router {
	r := chi.NewRouter()
	limit := bodyLimit(runner.Config().MaxCells)

	r.Post("/add", func(w http.ResponseWriter, r *http.Request) {
		var req addDatasetRequest
		if !decodeBody(w, r, limit, &req) {
			return
		}
		if (len(req.Vectors) == 0) == (len(req.Texts) == 0) {
			writeError(w, http.StatusBadRequest, "exactly one of vectors or texts is required")
			return
		}

		var ds *storage.Dataset
		var err error
		if len(req.Texts) > 0 {
			ds, err = runner.AddTextDataset(r.Context(), req.Name, req.Texts, req.Embed)
		} else {
			ds, err = runner.AddDataset(req.Name, req.Vectors)
		}
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, storage.DatasetSummary{
			ID: ds.ID, Name: ds.Name, Source: ds.Source, N: ds.N, D: ds.D, CreatedAt: ds.CreatedAt,
		})
	})

	r.Get("/list", func(w http.ResponseWriter, r *http.Request) {
		list, err := db.ListDatasets()
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		if list == nil {
			list = []storage.DatasetSummary{}
		}
		writeJSON(w, http.StatusOK, list)
	})

	r.Get("/{dataset_id}", func(w http.ResponseWriter, r *http.Request) {
		ds, err := db.GetDataset(chi.URLParam(r, "dataset_id"))
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		if ds == nil {
			writeError(w, http.StatusNotFound, "Dataset not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":         ds.ID,
			"name":       ds.Name,
			"source":     ds.Source,
			"n":          ds.N,
			"d":          ds.D,
			"vectors":    ds.Rows(),
			"texts":      ds.Texts,
			"created_at": ds.CreatedAt,
		})
	})

	r.Delete("/{dataset_id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "dataset_id")
		ok, err := db.DeleteDataset(id)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "Dataset not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
	})

	return r
}
