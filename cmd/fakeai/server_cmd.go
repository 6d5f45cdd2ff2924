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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/fakeai-dev/fakeai/internal/auth"
	"github.com/fakeai-dev/fakeai/internal/bus"
	"github.com/fakeai-dev/fakeai/internal/chatcore"
	"github.com/fakeai-dev/fakeai/internal/config"
	"github.com/fakeai-dev/fakeai/internal/kvcache"
	"github.com/fakeai-dev/fakeai/internal/latency"
	"github.com/fakeai-dev/fakeai/internal/models"
	"github.com/fakeai-dev/fakeai/internal/ratelimit"
	"github.com/fakeai-dev/fakeai/internal/server"
	"github.com/fakeai-dev/fakeai/internal/streaming"
	"github.com/fakeai-dev/fakeai/internal/subscribers"
	"github.com/fakeai-dev/fakeai/internal/telemetry"
	"github.com/fakeai-dev/fakeai/internal/tokengen"
)

func newServerCmd() *cobra.Command {
	var (
		configFile     string
		host           string
		port           int
		ttftMs         float64
		itlMs          float64
		apiKeys        []string
		enableSecurity bool
		enableTracing  bool
		tracingEndpoint string
	)

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the fakeai HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Defaults()
			if configFile != "" {
				if err := config.LoadFile(cfg, configFile); err != nil {
					return configError{err}
				}
			}
			config.LoadEnv(cfg)

			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("ttft") {
				cfg.Latency.TTFTMs = ttftMs
			}
			if cmd.Flags().Changed("itl") {
				cfg.Latency.ITLMs = itlMs
			}
			if len(apiKeys) > 0 {
				cfg.Auth.APIKeys = apiKeys
			}
			if enableSecurity {
				cfg.Auth.RequireAPIKey = true
			}

			return runServer(cfg, enableTracing, tracingEndpoint)
		},
	}

	cmd.Flags().StringVar(&configFile, "config-file", "", "optional YAML config overlay")
	cmd.Flags().StringVar(&host, "host", "", "bind host (overrides config/env)")
	cmd.Flags().IntVar(&port, "port", 0, "bind port (overrides config/env)")
	cmd.Flags().Float64Var(&ttftMs, "ttft", 0, "mean time-to-first-token in ms")
	cmd.Flags().Float64Var(&itlMs, "itl", 0, "mean inter-token latency in ms")
	cmd.Flags().StringArrayVar(&apiKeys, "api-key", nil, "accepted API key (repeatable)")
	cmd.Flags().BoolVar(&enableSecurity, "enable-security", false, "require a valid API key on every request")
	cmd.Flags().BoolVar(&enableTracing, "enable-tracing", false, "enable OpenTelemetry tracing")
	cmd.Flags().StringVar(&tracingEndpoint, "tracing-endpoint", "localhost:4317", "OTLP gRPC collector endpoint")

	return cmd
}

func runServer(cfg *config.Config, enableTracing bool, tracingEndpoint string) error {
	slog.Info("starting fakeai", "version", version, "addr", cfg.Server.Addr())

	// Domain services.
	modelRegistry := models.NewRegistry()
	sampler := latency.NewSampler(cfg.Latency.TTFTMs, cfg.Latency.ITLMs, cfg.Latency.TTFTVariancePct, cfg.Latency.ITLVariancePct)

	var router *kvcache.Router
	if cfg.KVCache.Enabled {
		router = kvcache.New(cfg.KVCache.BlockSize, cfg.KVCache.OverlapWeight, kvcache.DefaultMaxBlocksPerWorker)
		for i := 0; i < cfg.KVCache.NumWorkers; i++ {
			router.RegisterWorker(i, 0)
		}
		slog.Info("kv-cache router enabled", "block_size", cfg.KVCache.BlockSize, "workers", cfg.KVCache.NumWorkers)
	}

	eventBus := bus.New(slog.Default(), 4096, 2*time.Second)
	trackerBundle := subscribers.NewTrackers()
	subscribers.Register(eventBus, trackerBundle)

	engine := streaming.NewEngine(sampler, tokengen.NewGenerator(), eventBus)
	engine.KeepaliveInterval = cfg.Streaming.KeepaliveInterval()
	engine.StreamTimeout = cfg.Streaming.StreamTimeout()

	chatSvc := chatcore.NewService(modelRegistry, sampler, router, engine, eventBus)

	// Auth.
	var authenticator *auth.AllowlistAuth
	if cfg.Auth.RequireAPIKey || len(cfg.Auth.APIKeys) > 0 {
		authenticator = auth.NewAllowlistAuth(cfg.Auth.RequireAPIKey, cfg.Auth.APIKeys)
	}

	// Rate limiting.
	var rateLimitRegistry *ratelimit.Registry
	if cfg.RateLimit.Enabled {
		rateLimitRegistry = ratelimit.NewRegistry()
		slog.Info("rate limiting enabled", "tier", cfg.RateLimit.Tier)
	}

	// Prometheus metrics.
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promRegistry.MustRegister(collectors.NewGoCollector())
	metrics := telemetry.NewMetrics(promRegistry)

	dcgmRegistry := prometheus.NewRegistry()
	dcgmGauges := telemetry.NewDCGMGauges(dcgmRegistry)

	// OpenTelemetry tracing.
	var tracer trace.Tracer
	var tracingShutdown func(context.Context) error
	if enableTracing {
		shutdown, err := telemetry.SetupTracing(context.Background(), tracingEndpoint, 0.1)
		if err != nil {
			slog.Warn("tracing setup failed, continuing without tracing", "error", err)
		} else {
			tracingShutdown = shutdown
			tracer = telemetry.Tracer("fakeai/server")
			slog.Info("opentelemetry tracing enabled", "endpoint", tracingEndpoint)
		}
	}

	handler := server.New(server.Deps{
		Auth:       authenticator,
		Chat:       chatSvc,
		Models:     modelRegistry,
		Trackers:   trackerBundle,
		Bus:        eventBus,
		RateLimit:  rateLimitRegistry,
		Tier:       cfg.RateLimit.Tier,
		Metrics:    metrics,
		DCGM:       dcgmGauges,
		MetricsReg: promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
		DCGMReg:    promhttp.HandlerFor(dcgmRegistry, promhttp.HandlerOpts{}),
		Tracer:     tracer,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Streaming.StreamTimeout() + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())

	// Event bus dispatcher; drains the queue once workerCtx is cancelled.
	go func() { _ = eventBus.Run(workerCtx) }()

	// Periodic DCGM gauge refresh from KV-cache occupancy.
	go func() {
		t := time.NewTicker(5 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-t.C:
				if router != nil {
					for _, stat := range router.StatsAll() {
						dcgmGauges.Sample(fmt.Sprintf("%d", stat.WorkerID), stat.BlockCount)
					}
				}
			}
		}
	}()

	// Periodic eviction of stale rate limiters.
	if rateLimitRegistry != nil {
		go func() {
			t := time.NewTicker(10 * time.Minute)
			defer t.Stop()
			for {
				select {
				case <-workerCtx.Done():
					return
				case <-t.C:
					if n := rateLimitRegistry.EvictStale(time.Now().Add(-1 * time.Hour)); n > 0 {
						slog.Info("rate limiter eviction", "evicted", n)
					}
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("fakeai ready", "addr", cfg.Server.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig)
	case err := <-errCh:
		workerCancel()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		workerCancel()
		return err
	}
	workerCancel()

	if tracingShutdown != nil {
		if err := tracingShutdown(shutdownCtx); err != nil {
			slog.Error("tracing shutdown error", "error", err)
		}
	}

	slog.Info("fakeai stopped")
	return nil
}
