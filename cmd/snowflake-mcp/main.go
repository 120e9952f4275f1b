// snowflake-mcp serves Snowflake tools over the Model Context Protocol on
// stdio. Logs go to stderr so stdout stays clean for the protocol stream.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JailtonJunior94/snowflake-mcp/pkg/executor"
	"github.com/JailtonJunior94/snowflake-mcp/pkg/mcpserver"
	"github.com/JailtonJunior94/snowflake-mcp/pkg/registry"
	"github.com/JailtonJunior94/snowflake-mcp/pkg/snowflake"
)

const version = "1.0.0"

func main() {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	provider, err := snowflake.NewProvider(cfg.Snowflake, logger)
	if err != nil {
		logger.Fatal("snowflake provider setup failed", zap.Error(err))
	}

	exec := executor.New(executor.WithWorkers(cfg.Workers))

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	reg := registry.New(provider, exec,
		registry.WithLogger(logger),
		registry.WithMetricsRegisterer(promReg),
		registry.WithDefaultPollInterval(cfg.PollInterval),
		registry.WithDefaultMaxInlineRows(cfg.MaxInlineRows),
		registry.WithTTL(cfg.QueryTTL),
		registry.WithMaxQueryTimeout(cfg.MaxQueryTimeout),
	)

	client := snowflake.NewClient(provider, logger)
	srv := mcpserver.New(client, reg, logger, mcpserver.Config{
		Version:        version,
		AllowWrite:     cfg.AllowWrite,
		ExecuteTimeout: cfg.ExecuteTimeout,
	})

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, promReg, logger)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ServeStdio() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("stdio server stopped", zap.Error(err))
		}
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Registry first so pollers join before their workers and sessions go.
	reg.Close(shutdownCtx)
	exec.Close()
	if err := provider.Close(); err != nil {
		logger.Warn("closing snowflake pool", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newLogger() *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		zap.InfoLevel,
	)
	return zap.New(core)
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Warn("metrics endpoint stopped", zap.Error(err))
	}
}
