package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"diagramador-collab-server/analysis"
	"diagramador-collab-server/api"
	"diagramador-collab-server/backup"
	"diagramador-collab-server/config"
	"diagramador-collab-server/hub"
	"diagramador-collab-server/protocol"
	ws "diagramador-collab-server/websocket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg.SlogLevel())

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		slog.Info("closing backup store")
		_ = store.Close()
	}()

	if cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY is not set, analysis requests will fail")
	}
	gemini := analysis.NewGeminiClient(cfg.GeminiURL, cfg.GeminiAPIKey, &http.Client{Timeout: cfg.AnalysisTimeout})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := hub.New()
	router := api.NewRouter(&api.Server{
		Registry: registry,
		Canvas:   protocol.NewCanvasRelay(registry),
		Analysis: analysis.NewGateway(gemini, cfg.AnalysisTimeout),
		Diagrams: analysis.NewDiagramService(gemini),
		Backups:  store,
		Upgrader: ws.NewUpgrader(cfg.Origins()),
		ConnOpts: ws.Options{
			SendBufferSize: cfg.SendBufferSize,
			MaxMessageSize: int64(cfg.MaxMessageSize),
		},
		BaseCtx: ctx,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "backup", cfg.BackupBackend)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

func openStore(cfg *config.Config) (backup.Store, error) {
	switch cfg.BackupBackend {
	case config.BackendRedis:
		return backup.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), slog.Default())
	default:
		return backup.OpenBadger(cfg.BadgerFilepath, slog.Default())
	}
}

func setupLogger(level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
