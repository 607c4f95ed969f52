package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmcdole/foodpin/internal/adapter"
	"github.com/mmcdole/foodpin/internal/cloudserver"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("foodpin-cloud %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env when present; the real environment wins
	envErr := godotenv.Load()

	cfg, err := cloudserver.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := adapter.NewConsoleLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("failed to read .env", "error", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	var assets cloudserver.AssetStore
	if cfg.MinIO.Endpoint != "" {
		minioAssets, err := cloudserver.NewMinIOAssets(ctx, cfg.MinIO, logger)
		if err != nil {
			return err
		}
		assets = minioAssets
	} else {
		logger.Warn("no MinIO endpoint configured, asset URLs are served as stored")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           cloudserver.NewServer(repo, assets, cfg.Tokens, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting foodpin-cloud", "version", Version, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func openRepository(ctx context.Context, cfg cloudserver.Config, logger *slog.Logger) (cloudserver.Repository, error) {
	if cfg.DatabaseURL == cloudserver.MemoryDatabase {
		logger.Warn("using in-memory record storage, data is lost on exit")
		return cloudserver.NewMemoryRepository(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	repo, err := cloudserver.OpenPostgres(connectCtx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
