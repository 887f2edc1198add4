package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oho/kmeansd/internal/api"
	"github.com/oho/kmeansd/internal/config"
	"github.com/oho/kmeansd/internal/embedding"
	"github.com/oho/kmeansd/internal/pipeline"
	"github.com/oho/kmeansd/internal/server"
	"github.com/oho/kmeansd/internal/storage"
	"github.com/oho/kmeansd/internal/textvec"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the clustering daemon",
		RunE:  runServe,
	}
	cmd.Flags().String("host", "", "Listen host (overrides config)")
	cmd.Flags().Int("port", 0, "Listen port (overrides config)")
	cmd.Flags().String("data-dir", "", "Data directory (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.SetDataDir(dir)
		if err := cfg.EnsureDirs(); err != nil {
			return err
		}
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}

	slog.SetDefault(newLogger(os.Stdout, cfg.LogLevel))
	slog.Info("Configuration loaded", "data_dir", cfg.DataDir, "port", cfg.Port)

	db, err := storage.NewDatabase(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	emb := embedding.NewClient(cfg.Embedding.BaseURL, cfg.Embedding.Timeout, cfg.Embedding.Model)
	if emb.HealthCheck(cmd.Context()) {
		var ids []string
		for _, m := range emb.ListModels(cmd.Context()) {
			ids = append(ids, m.ID)
		}
		slog.Info("Embedding service connected", "url", emb.BaseURL(), "models", strings.Join(ids, ", "))
	} else {
		slog.Warn("Embedding service not available - text datasets fall back to token hashing", "url", emb.BaseURL())
	}

	runner := pipeline.NewRunner(db, textvec.New(cfg.Clustering.TextDimension), emb, cfg.Clustering)

	r := server.NewRouter()
	r.Get("/health", server.HealthHandler(cfg, db, emb))
	r.Mount("/fit", api.FitRouter(cfg.Clustering))
	r.Mount("/datasets", api.DatasetsRouter(runner, db))
	r.Mount("/runs", api.RunsRouter(runner, db))

	pidPath := filepath.Join(cfg.DataDir, "kmeansd.pid")
	if err := os.WriteFile(pidPath, []byte(fmt.Sprintf("%d", os.Getpid())), 0o644); err != nil {
		slog.Warn("Failed to write PID file", "path", pidPath, "error", err)
	}
	defer os.Remove(pidPath)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Daemon ready", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Daemon stopped")
	return nil
}
