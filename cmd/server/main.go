package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chess99/BookDistill/internal/api"
	"github.com/chess99/BookDistill/internal/config"
	"github.com/chess99/BookDistill/internal/document"
	"github.com/chess99/BookDistill/internal/health"
	"github.com/chess99/BookDistill/internal/logging"
	"github.com/chess99/BookDistill/internal/parser"
	"github.com/chess99/BookDistill/internal/storage"
	"github.com/chess99/BookDistill/pkg/types"
	"go.uber.org/zap"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Path to configuration file (defaults plus BD_* environment when empty)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *types.Config, log *zap.Logger) error {
	log.Info("starting BookDistill server", zap.String("version", version))

	storageAdapter, err := storage.NewAdapter(cfg.Storage, log.Named("storage"))
	if err != nil {
		return fmt.Errorf("failed to create storage adapter: %w", err)
	}
	defer storageAdapter.Close()
	log.Info("storage adapter initialized", zap.String("adapter", cfg.Storage.Adapter))

	repo := document.NewRepository(storageAdapter)

	registry := parser.NewDefaultRegistry(log.Named("parser"),
		parser.WithMaxEntrySize(int64(cfg.Parser.MaxEntryMB)<<20))
	log.Info("parser registry initialized", zap.String("accept", registry.SupportedFormats().Accept))

	healthHandler := health.NewHandler(version)
	healthHandler.Register("storage", health.StorageCheck(storageAdapter))
	healthHandler.Register("parsers", health.ParserCheck(registry))

	mux := http.NewServeMux()

	mux.HandleFunc("/health/live", healthHandler.LivenessHandler())
	mux.HandleFunc("/health/ready", healthHandler.ReadinessHandler())
	mux.HandleFunc("/health", healthHandler.HealthHandler())

	mux.HandleFunc("/api/v1/info", infoHandler(version, cfg))

	documentHandler := api.NewDocumentHandler(repo, registry, cfg.Server, log.Named("api"))
	documentHandler.Register(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Let in-flight parses record their outcome before storage closes
	documentHandler.Wait()

	log.Info("server stopped")
	return nil
}

// infoHandler returns basic server information
func infoHandler(version string, cfg *types.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"version":"%s","storage_adapter":"%s"}`, version, cfg.Storage.Adapter)
	}
}
