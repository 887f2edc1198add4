package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type EmbeddingConfig struct {
	BaseURL string  `json:"base_url" yaml:"base_url"`
	Timeout float64 `json:"timeout" yaml:"timeout"`
	Model   string  `json:"model" yaml:"model"`
}

type ClusteringConfig struct {
	MaxIter             int     `json:"max_iter" yaml:"max_iter"`
	Epsilon             float64 `json:"eps" yaml:"eps"`
	Seed                uint64  `json:"seed" yaml:"seed"`
	CommitOnConvergence bool    `json:"commit_on_convergence" yaml:"commit_on_convergence"`
	MaxCells            int     `json:"max_cells" yaml:"max_cells"`
	TextDimension       int     `json:"text_dimension" yaml:"text_dimension"`
}

type Config struct {
	DataDir    string           `json:"data_dir" yaml:"data_dir"`
	DBPath     string           `json:"db_path" yaml:"db_path"`
	Host       string           `json:"host" yaml:"host"`
	Port       int              `json:"port" yaml:"port"`
	LogLevel   string           `json:"log_level" yaml:"log_level"`
	Embedding  EmbeddingConfig  `json:"embedding" yaml:"embedding"`
	Clustering ClusteringConfig `json:"clustering" yaml:"clustering"`
}

func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".kmeansd")
	return Config{
		DataDir:  dataDir,
		DBPath:   filepath.Join(dataDir, "kmeansd.db"),
		Host:     "127.0.0.1",
		Port:     8743,
		LogLevel: "info",
		Embedding: EmbeddingConfig{
			BaseURL: "http://127.0.0.1:1234/v1",
			Timeout: 120.0,
		},
		Clustering: ClusteringConfig{
			MaxIter:       300,
			Epsilon:       0.001,
			Seed:          1234,
			MaxCells:      1 << 28,
			TextDimension: 256,
		},
	}
}

// LoadConfig layers defaults, an optional YAML file and environment variables.
// The file is KM_CONFIG when set, otherwise config.yaml in the data directory
// if it exists.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if dataDir := os.Getenv("KM_DATA_DIR"); dataDir != "" {
		cfg.SetDataDir(dataDir)
	}

	path := os.Getenv("KM_CONFIG")
	if path == "" {
		candidate := filepath.Join(cfg.DataDir, "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SetDataDir moves the data directory and the database inside it.
func (c *Config) SetDataDir(dir string) {
	c.DataDir = dir
	c.DBPath = filepath.Join(dir, "kmeansd.db")
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dataDir, dbPath := c.DataDir, c.DBPath
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	// A data_dir in the file relocates the database unless db_path is also set.
	if c.DataDir != dataDir && c.DBPath == dbPath {
		c.DBPath = filepath.Join(c.DataDir, "kmeansd.db")
	}
	return nil
}

func (c *Config) applyEnv() error {
	if dataDir := os.Getenv("KM_DATA_DIR"); dataDir != "" {
		c.SetDataDir(dataDir)
	}
	if host := os.Getenv("KM_HOST"); host != "" {
		c.Host = host
	}
	if url := os.Getenv("KM_EMBEDDING_URL"); url != "" {
		c.Embedding.BaseURL = url
	}
	if level := os.Getenv("KM_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if port := os.Getenv("KM_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("KM_PORT: %w", err)
		}
		c.Port = p
	}
	if v := os.Getenv("KM_MAX_ITER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("KM_MAX_ITER: %w", err)
		}
		c.Clustering.MaxIter = n
	}
	if v := os.Getenv("KM_EPS"); v != "" {
		eps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("KM_EPS: %w", err)
		}
		c.Clustering.Epsilon = eps
	}
	if v := os.Getenv("KM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("KM_SEED: %w", err)
		}
		c.Clustering.Seed = seed
	}
	return nil
}

func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}
