package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/oho/kmeansd/internal/config"
	"github.com/oho/kmeansd/internal/kmeans"
	"github.com/oho/kmeansd/internal/seeding"
	"github.com/oho/kmeansd/internal/storage"
	"github.com/oho/kmeansd/internal/textvec"
)

// ErrNotFound is returned when a referenced dataset does not exist.
var ErrNotFound = errors.New("not found")

// Embedder produces one vector per text.
type Embedder interface {
	Embed(ctx context.Context, texts []string, model *string) ([][]float64, error)
}

// Runner stores datasets and clusters them.
type Runner struct {
	db         *storage.Database
	vectorizer *textvec.Vectorizer
	embedder   Embedder
	cfg        config.ClusteringConfig
}

func NewRunner(db *storage.Database, vectorizer *textvec.Vectorizer, embedder Embedder, cfg config.ClusteringConfig) *Runner {
	return &Runner{db: db, vectorizer: vectorizer, embedder: embedder, cfg: cfg}
}

// Config returns the clustering defaults the runner was built with.
func (r *Runner) Config() config.ClusteringConfig { return r.cfg }

// RunRequest selects a dataset and overrides the configured clustering defaults.
type RunRequest struct {
	DatasetID           string   `json:"dataset_id"`
	K                   int      `json:"k"`
	MaxIter             *int     `json:"iter,omitempty"`
	Epsilon             *float64 `json:"eps,omitempty"`
	Seed                *uint64  `json:"seed,omitempty"`
	CommitOnConvergence *bool    `json:"commit_on_convergence,omitempty"`
}

// AddDataset validates and stores a rectangular set of vectors.
func (r *Runner) AddDataset(name string, vectors [][]float64) (*storage.Dataset, error) {
	return r.addDataset(name, storage.SourceVectors, vectors, nil)
}

// AddTextDataset vectorizes texts, either through the embeddings service or
// by token hashing, and stores the result together with the texts.
func (r *Runner) AddTextDataset(ctx context.Context, name string, texts []string, useEmbeddings bool) (*storage.Dataset, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts", kmeans.ErrInvalidArgument)
	}
	if !useEmbeddings {
		return r.addDataset(name, storage.SourceTokens, r.vectorizer.Vectorize(texts), texts)
	}
	if r.embedder == nil {
		return nil, errors.New("no embedding service configured")
	}
	vectors, err := r.embedder.Embed(ctx, texts, nil)
	if err != nil {
		return nil, fmt.Errorf("embed texts: %w", err)
	}
	return r.addDataset(name, storage.SourceEmbeddings, vectors, texts)
}

func (r *Runner) addDataset(name string, source storage.DatasetSource, vectors [][]float64, texts []string) (*storage.Dataset, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no vectors", kmeans.ErrInvalidArgument)
	}
	m, err := kmeans.NewMatrix(vectors, len(vectors[0]))
	if err != nil {
		return nil, err
	}
	n, d := m.Dims()
	ds := storage.Dataset{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    source,
		N:         n,
		D:         d,
		Vectors:   kmeans.Flatten(m),
		Texts:     texts,
		CreatedAt: storage.NowISO(),
	}
	if err := r.db.InsertDataset(ds); err != nil {
		return nil, fmt.Errorf("store dataset: %w", err)
	}
	slog.Info("Dataset stored", "id", ds.ID, "name", name, "source", source, "n", n, "d", d)
	return &ds, nil
}

// Run seeds k centroids with k-means++, runs Lloyd's algorithm and stores
// the result. Stored labels are recomputed against the returned centroids.
func (r *Runner) Run(req RunRequest) (*storage.Run, error) {
	ds, err := r.db.GetDataset(req.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if ds == nil {
		return nil, fmt.Errorf("dataset %q: %w", req.DatasetID, ErrNotFound)
	}

	maxIter := r.cfg.MaxIter
	if req.MaxIter != nil {
		maxIter = *req.MaxIter
	}
	eps := r.cfg.Epsilon
	if req.Epsilon != nil {
		eps = *req.Epsilon
	}
	seed := r.cfg.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	commit := r.cfg.CommitOnConvergence
	if req.CommitOnConvergence != nil {
		commit = *req.CommitOnConvergence
	}

	opts := []kmeans.Option{kmeans.WithMaxCells(r.cfg.MaxCells)}
	if commit {
		opts = append(opts, kmeans.WithCommitOnConvergence())
	}

	data := mat.NewDense(ds.N, ds.D, ds.Vectors)
	seeds, err := seeding.KMeansPP(data, req.K, seed)
	if err != nil {
		return nil, err
	}
	res, err := kmeans.Fit(seeds.Centroids, data, req.K, maxIter, eps, opts...)
	if err != nil {
		return nil, err
	}

	state := storage.RunIterationCapReached
	if res.State == kmeans.Converged {
		state = storage.RunConverged
	}
	run := storage.Run{
		ID:                  uuid.NewString(),
		DatasetID:           ds.ID,
		K:                   req.K,
		MaxIter:             maxIter,
		Epsilon:             eps,
		Seed:                seed,
		CommitOnConvergence: commit,
		State:               state,
		Iterations:          res.Iterations,
		SeedIndices:         seeds.Indices,
		Centroids:           kmeans.Flatten(seeds.Centroids),
		Labels:              kmeans.Labels(data, seeds.Centroids),
		CreatedAt:           storage.NowISO(),
	}
	if err := r.db.InsertRun(run); err != nil {
		return nil, fmt.Errorf("store run: %w", err)
	}
	slog.Info("Clustering finished", "run", run.ID, "dataset", ds.ID, "k", req.K,
		"state", state, "iterations", res.Iterations)
	return &run, nil
}
