package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oho/kmeansd/internal/pipeline"
	"github.com/oho/kmeansd/internal/storage"
)

func RunsRouter(runner *pipeline.Runner, db *storage.Database) chi.Router {
	r := chi.NewRouter()
	limit := bodyLimit(runner.Config().MaxCells)

	r.Post("/create", func(w http.ResponseWriter, r *http.Request) {
		var req pipeline.RunRequest
		if !decodeBody(w, r, limit, &req) {
			return
		}
		run, err := runner.Run(req)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	r.Get("/list", func(w http.ResponseWriter, r *http.Request) {
		var datasetID *string
		if id := r.URL.Query().Get("dataset_id"); id != "" {
			datasetID = &id
		}
		runs, err := db.ListRuns(datasetID)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		if runs == nil {
			runs = []storage.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/{run_id}", func(w http.ResponseWriter, r *http.Request) {
		run, err := db.GetRun(chi.URLParam(r, "run_id"))
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		if run == nil {
			writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	r.Delete("/{run_id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "run_id")
		ok, err := db.DeleteRun(id)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
	})

	return r
}
