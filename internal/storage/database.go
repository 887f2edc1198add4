package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS datasets (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    source TEXT NOT NULL,
    n INTEGER NOT NULL,
    d INTEGER NOT NULL,
    vectors BLOB NOT NULL,
    texts_json TEXT,
    created_at TEXT
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
    k INTEGER NOT NULL,
    max_iter INTEGER NOT NULL,
    eps REAL NOT NULL,
    seed INTEGER NOT NULL,
    commit_on_convergence INTEGER NOT NULL DEFAULT 0,
    state TEXT NOT NULL,
    iterations INTEGER NOT NULL,
    seed_indices_json TEXT NOT NULL,
    centroids BLOB NOT NULL,
    labels_json TEXT NOT NULL,
    created_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset_id);
`

// Database provides thread-safe SQLite operations.
type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas are per connection, and a pooled :memory: connection would get
	// its own empty database, so all access goes through one connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=10000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %s: %w", pragma, err)
		}
	}
	return &Database{db: db}, nil
}

func (d *Database) Initialize() error {
	_, err := d.db.Exec(schemaDDL)
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}

// -- Dataset operations --

func (d *Database) InsertDataset(ds Dataset) error {
	if len(ds.Vectors) != ds.N*ds.D {
		return fmt.Errorf("dataset %s: %d values for %d×%d", ds.ID, len(ds.Vectors), ds.N, ds.D)
	}
	var texts *string
	if len(ds.Texts) > 0 {
		b, err := json.Marshal(ds.Texts)
		if err != nil {
			return fmt.Errorf("encode texts: %w", err)
		}
		s := string(b)
		texts = &s
	}
	if ds.CreatedAt == "" {
		ds.CreatedAt = NowISO()
	}
	_, err := d.db.Exec(`
		INSERT INTO datasets (id, name, source, n, d, vectors, texts_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ds.ID, ds.Name, string(ds.Source), ds.N, ds.D, float64ToBlob(ds.Vectors), texts, ds.CreatedAt,
	)
	return err
}

func (d *Database) GetDataset(id string) (*Dataset, error) {
	var ds Dataset
	var source string
	var blob []byte
	var texts *string
	err := d.db.QueryRow(
		"SELECT id, name, source, n, d, vectors, texts_json, created_at FROM datasets WHERE id=?", id,
	).Scan(&ds.ID, &ds.Name, &source, &ds.N, &ds.D, &blob, &texts, &ds.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ds.Source = DatasetSource(source)
	if ds.Vectors, err = blobToFloat64(blob); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", id, err)
	}
	if texts != nil {
		if err := json.Unmarshal([]byte(*texts), &ds.Texts); err != nil {
			return nil, fmt.Errorf("dataset %s texts: %w", id, err)
		}
	}
	return &ds, nil
}

func (d *Database) ListDatasets() ([]DatasetSummary, error) {
	rows, err := d.db.Query("SELECT id, name, source, n, d, created_at FROM datasets ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DatasetSummary
	for rows.Next() {
		var s DatasetSummary
		var source string
		if err := rows.Scan(&s.ID, &s.Name, &source, &s.N, &s.D, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Source = DatasetSource(source)
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteDataset removes a dataset and its runs. It reports whether the dataset existed.
func (d *Database) DeleteDataset(id string) (bool, error) {
	res, err := d.db.Exec("DELETE FROM datasets WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (d *Database) CountDatasets() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM datasets").Scan(&n)
	return n, err
}

// -- Run operations --

func (d *Database) InsertRun(r Run) error {
	indices, err := json.Marshal(r.SeedIndices)
	if err != nil {
		return fmt.Errorf("encode seed indices: %w", err)
	}
	labels, err := json.Marshal(r.Labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	if r.CreatedAt == "" {
		r.CreatedAt = NowISO()
	}
	_, err = d.db.Exec(`
		INSERT INTO runs (id, dataset_id, k, max_iter, eps, seed, commit_on_convergence,
			state, iterations, seed_indices_json, centroids, labels_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.DatasetID, r.K, r.MaxIter, r.Epsilon, int64(r.Seed), r.CommitOnConvergence,
		string(r.State), r.Iterations, string(indices), float64ToBlob(r.Centroids), string(labels), r.CreatedAt,
	)
	return err
}

const runColumns = `id, dataset_id, k, max_iter, eps, seed, commit_on_convergence,
	state, iterations, seed_indices_json, centroids, labels_json, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var seed int64
	var state, indices, labels string
	var blob []byte
	err := row.Scan(&r.ID, &r.DatasetID, &r.K, &r.MaxIter, &r.Epsilon, &seed, &r.CommitOnConvergence,
		&state, &r.Iterations, &indices, &blob, &labels, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Seed = uint64(seed)
	r.State = RunState(state)
	if r.Centroids, err = blobToFloat64(blob); err != nil {
		return nil, fmt.Errorf("run %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(indices), &r.SeedIndices); err != nil {
		return nil, fmt.Errorf("run %s seed indices: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(labels), &r.Labels); err != nil {
		return nil, fmt.Errorf("run %s labels: %w", r.ID, err)
	}
	return &r, nil
}

func (d *Database) GetRun(id string) (*Run, error) {
	r, err := scanRun(d.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE id=?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// ListRuns returns runs oldest first, optionally restricted to one dataset.
func (d *Database) ListRuns(datasetID *string) ([]Run, error) {
	var rows *sql.Rows
	var err error
	if datasetID != nil {
		rows, err = d.db.Query("SELECT "+runColumns+" FROM runs WHERE dataset_id=? ORDER BY created_at, id", *datasetID)
	} else {
		rows, err = d.db.Query("SELECT " + runColumns + " FROM runs ORDER BY created_at, id")
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// DeleteRun reports whether the run existed.
func (d *Database) DeleteRun(id string) (bool, error) {
	res, err := d.db.Exec("DELETE FROM runs WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (d *Database) CountRuns() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n)
	return n, err
}
