package storage

import (
	"time"
)

// DatasetSource records how a dataset's vectors were produced.
type DatasetSource string

const (
	SourceVectors    DatasetSource = "vectors"
	SourceTokens     DatasetSource = "tokens"
	SourceEmbeddings DatasetSource = "embeddings"
)

// RunState mirrors kmeans.State for persisted runs.
type RunState string

const (
	RunConverged           RunState = "converged"
	RunIterationCapReached RunState = "iteration_cap_reached"
)

// NowISO is the current UTC time in RFC 3339.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Dataset is a stored n×d matrix of points.
type Dataset struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Source    DatasetSource `json:"source"`
	N         int           `json:"n"`
	D         int           `json:"d"`
	Vectors   []float64     `json:"-"` // row-major, n*d
	Texts     []string      `json:"texts,omitempty"`
	CreatedAt string        `json:"created_at"`
}

// Row returns row i of the dataset without copying.
func (ds *Dataset) Row(i int) []float64 {
	return ds.Vectors[i*ds.D : (i+1)*ds.D]
}

// Rows splits Vectors into n rows without copying.
func (ds *Dataset) Rows() [][]float64 {
	rows := make([][]float64, ds.N)
	for i := range rows {
		rows[i] = ds.Row(i)
	}
	return rows
}

// Run is one clustering of a dataset.
type Run struct {
	ID                  string    `json:"id"`
	DatasetID           string    `json:"dataset_id"`
	K                   int       `json:"k"`
	MaxIter             int       `json:"max_iter"`
	Epsilon             float64   `json:"eps"`
	Seed                uint64    `json:"seed"`
	CommitOnConvergence bool      `json:"commit_on_convergence"`
	State               RunState  `json:"state"`
	Iterations          int       `json:"iterations"`
	SeedIndices         []int     `json:"seed_indices"`
	Centroids           []float64 `json:"centroids"` // row-major, k*d
	Labels              []int     `json:"labels"`
	CreatedAt           string    `json:"created_at"`
}

// DatasetSummary is a Dataset without its vectors.
type DatasetSummary struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Source    DatasetSource `json:"source"`
	N         int           `json:"n"`
	D         int           `json:"d"`
	CreatedAt string        `json:"created_at"`
}
