package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oho/kmeansd/internal/config"
	"github.com/oho/kmeansd/internal/pipeline"
	"github.com/oho/kmeansd/internal/storage"
	"github.com/oho/kmeansd/internal/textvec"
)

func setupRouter(t *testing.T) chi.Router {
	t.Helper()
	return setupRouterWith(t, config.DefaultConfig().Clustering)
}

func setupRouterWith(t *testing.T, cfg config.ClusteringConfig) chi.Router {
	t.Helper()
	db, err := storage.NewDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })

	runner := pipeline.NewRunner(db, textvec.New(8), nil, cfg)

	r := chi.NewRouter()
	r.Mount("/fit", FitRouter(cfg))
	r.Mount("/datasets", DatasetsRouter(runner, db))
	r.Mount("/runs", RunsRouter(runner, db))
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFitEndpoint(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, "POST", "/fit", FitRequest{
		Centroids: [][]float64{{0}, {10}},
		Vectors:   [][]float64{{0}, {1}, {10}, {11}},
		K:         2, Iter: 10, Eps: 0.0001, N: 4, D: 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Centroids []float64 `json:"centroids"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDeltaSlice(t, []float64{0.5, 10.5}, resp.Centroids, 1e-9)
}

func TestFitEndpointRejectsBadInput(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, "POST", "/fit", FitRequest{
		Centroids: [][]float64{{0}, {1}, {2}},
		Vectors:   [][]float64{{0}, {1}},
		K:         3, Iter: 10, Eps: 0.1, N: 2, D: 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest("POST", "/fit", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetAndRunLifecycle(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, "POST", "/datasets/add", map[string]any{
		"name":    "line",
		"vectors": [][]float64{{0}, {1}, {10}, {11}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ds storage.DatasetSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ds))
	assert.Equal(t, 4, ds.N)

	w = do(t, r, "GET", "/datasets/list", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []storage.DatasetSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = do(t, r, "GET", "/datasets/"+ds.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Len(t, detail["vectors"], 4)

	w = do(t, r, "POST", "/runs/create", map[string]any{"dataset_id": ds.ID, "k": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var run storage.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, storage.RunConverged, run.State)
	assert.Len(t, run.Centroids, 2)
	assert.Len(t, run.Labels, 4)

	w = do(t, r, "GET", "/runs/"+run.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, "GET", "/runs/list?dataset_id="+ds.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var runs []storage.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	assert.Len(t, runs, 1)

	w = do(t, r, "DELETE", "/datasets/"+ds.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, "GET", "/runs/"+run.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTextDataset(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, "POST", "/datasets/add", map[string]any{
		"name":  "notes",
		"texts": []string{"red apples", "green apples", "fast cars"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ds storage.DatasetSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ds))
	assert.Equal(t, storage.SourceTokens, ds.Source)
	assert.Equal(t, 8, ds.D)

	// No embedding service is configured.
	w = do(t, r, "POST", "/datasets/add", map[string]any{"texts": []string{"a"}, "embed": true})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDatasetAddValidation(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, "POST", "/datasets/add", map[string]any{"name": "none"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, "POST", "/datasets/add", map[string]any{"vectors": [][]float64{{0, 1}, {2}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotFound(t *testing.T) {
	r := setupRouter(t)

	assert.Equal(t, http.StatusNotFound, do(t, r, "GET", "/datasets/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, "DELETE", "/datasets/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, "GET", "/runs/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, "DELETE", "/runs/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, "POST", "/runs/create", map[string]any{"dataset_id": "nope", "k": 1}).Code)

	w := do(t, r, "GET", "/runs/list", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

type countingReader struct {
	r    io.Reader
	read int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += n
	return n, err
}

func TestBodyLimit(t *testing.T) {
	assert.Equal(t, int64(0), bodyLimit(0))
	assert.Equal(t, int64(0), bodyLimit(-1))
	assert.Equal(t, int64(4*bytesPerCell*matricesInFit+bodyOverhead), bodyLimit(4))
	assert.Equal(t, int64(0), bodyLimit(math.MaxInt))
}

func TestOversizedBodiesStopAtLimit(t *testing.T) {
	cfg := config.DefaultConfig().Clustering
	cfg.MaxCells = 4
	r := setupRouterWith(t, cfg)

	vectors := make([][]float64, 200001)
	for i := range vectors {
		vectors[i] = []float64{1}
	}
	payload, err := json.Marshal(map[string]any{
		"centroids": [][]float64{{0}, {1}},
		"vectors":   vectors,
		"k":         2, "iter": 10, "eps": 0.01, "n": len(vectors), "d": 1,
	})
	require.NoError(t, err)
	limit := bodyLimit(cfg.MaxCells)
	require.Greater(t, int64(len(payload)), limit)

	for _, path := range []string{"/fit", "/datasets/add", "/runs/create"} {
		t.Run(path, func(t *testing.T) {
			body := &countingReader{r: bytes.NewReader(payload)}
			req := httptest.NewRequest("POST", path, body)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), "allocation failure")
			assert.LessOrEqual(t, int64(body.read), limit+1)
		})
	}

	// Small requests still fit under the same budget.
	w := do(t, r, "POST", "/fit", FitRequest{
		Centroids: [][]float64{{0}, {10}},
		Vectors:   [][]float64{{0}, {1}, {10}, {11}},
		K:         2, Iter: 10, Eps: 0.0001, N: 4, D: 1,
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
