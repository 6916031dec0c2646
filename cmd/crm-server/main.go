package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/platinummonkey/crm/pkg/api"
	"github.com/platinummonkey/crm/pkg/app"
	"github.com/platinummonkey/crm/pkg/config"
	"github.com/platinummonkey/crm/pkg/observability"
	"github.com/platinummonkey/crm/pkg/seed"
	"github.com/platinummonkey/crm/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "crm-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	logger.WithFields(logrus.Fields{"version": version, "storage": cfg.Storage.Type}).Info("Starting CRM server")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage, metrics)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Storage.Type, err)
	}

	var seedFile *seed.File
	if cfg.SeedFile != "" {
		if seedFile, err = seed.LoadFile(cfg.SeedFile); err != nil {
			store.Close()
			return err
		}
	}
	sink, err := cfg.Export.OpenSink(ctx)
	if err != nil {
		store.Close()
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		store.Close()
		return err
	}
	trail, err := cfg.Observability.OpenAudit(logger)
	if err != nil {
		store.Close()
		return err
	}

	crm, err := app.New(ctx, app.Options{
		Store:    store,
		Metrics:  metrics,
		Logger:   logger,
		Location: loc,
		Sink:     sink,
		Seed:     seedFile,
		Audit:    trail,
	})
	if err != nil {
		trail.Close()
		store.Close()
		return err
	}

	server := api.NewServer(crm, api.Options{
		Logger:   logger,
		Metrics:  metrics,
		Location: loc,
		Version:  version,
	})
	server.StartCleanup(ctx)

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	metricsMux := http.NewServeMux()
	observability.RegisterHealthRoutes(metricsMux, server.Health())
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(metricsMux, registry)
	}
	metricsServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:     metricsMux,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	// Registered in reverse of the shutdown order: servers stop before the store closes
	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
	shutdown.Register("store", func(context.Context) error { return crm.Close() })
	shutdown.Register("metrics-server", metricsServer.Shutdown)
	shutdown.Register("api-server", apiServer.Shutdown)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("API server listening")
		return serve(apiServer)
	})
	g.Go(func() error {
		logger.WithField("addr", metricsServer.Addr).Info("Metrics server listening")
		return serve(metricsServer)
	})
	g.Go(func() error {
		defer observability.RecoverPanic(logger, "shutdown")
		<-gctx.Done()
		logger.Info("Shutting down gracefully")
		return shutdown.Shutdown()
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("CRM server stopped")
	return nil
}

// serve runs srv until it is shut down
func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", srv.Addr, err)
	}
	return nil
}
