// Command replicator runs the authoritative server, a client, or both
// (loopback, for local testing) side of the snapshot replication engine,
// selected by REPLICATOR_ROLE: load config, build logger/metrics, start
// the protocol loops, serve /health and /metrics, shut down on signal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	"odin-replicator/internal/config"
	"odin-replicator/internal/logging"
	"odin-replicator/internal/metrics"
	"odin-replicator/internal/scene"
	"odin-replicator/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	metricsRegistry := metrics.NewRegistry()
	sampler := metrics.NewSystemSampler()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sceneAdapter := scene.NewReference()

	var srv *server.Server
	var cli *server.Client

	switch cfg.Role {
	case config.RoleServer:
		srv = server.NewServer(cfg, logger, metricsRegistry, sceneAdapter)
		if err := srv.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("server start failed")
		}
	case config.RoleClient:
		cli = server.NewClient(cfg, logger, metricsRegistry, sceneAdapter)
		if err := cli.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("client start failed")
		}
	case config.RoleBoth:
		srv = server.NewServer(cfg, logger, metricsRegistry, sceneAdapter)
		if err := srv.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("server start failed")
		}
		clientScene := scene.NewReference()
		cli = server.NewClient(cfg, logger, metricsRegistry, clientScene)
		if err := cli.Start(ctx); err != nil {
			logger.Fatal().Err(err).Msg("client start failed")
		}
	default:
		logger.Fatal().Str("role", string(cfg.Role)).Msg("unknown role")
	}

	stopSampler := make(chan struct{})
	go sampler.RunLoop(5*time.Second, stopSampler)

	httpErrCh := make(chan error, 1)
	go func() {
		httpErrCh <- runHTTPServer(ctx, cfg, metricsRegistry, sampler, logger.With().Str("component", "http").Logger())
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-httpErrCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server error")
		}
		stop()
	}

	close(stopSampler)
	if srv != nil {
		srv.Stop()
	}
	if cli != nil {
		cli.Stop()
	}
	logger.Info().Msg("shutdown complete")
}

func runHTTPServer(ctx context.Context, cfg *config.Config, metricsRegistry *metrics.Registry, sampler *metrics.SystemSampler, logger zerolog.Logger) error {
	if !cfg.MetricsEnabled {
		<-ctx.Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		cpuPct, memMB := sampler.Snapshot()
		writeJSON(w, map[string]any{
			"status":      "healthy",
			"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
			"cpu_percent": cpuPct,
			"mem_used_mb": memMB,
		})
	})
	mux.Handle("/metrics", metricsRegistry.Handler())

	httpServer := &http.Server{
		Addr:         cfg.MetricsListenAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("metrics http server starting")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
