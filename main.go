package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cloudhut/kdeploy/kafka"
	"github.com/cloudhut/kdeploy/logging"
	"github.com/cloudhut/kdeploy/pipeline"
	"github.com/cloudhut/kdeploy/prometheus"
	"github.com/cloudhut/kdeploy/registry"
)

func main() {
	startupLogger, err := zap.NewProduction()
	if err != nil {
		panic("failed to create startup logger: " + err.Error())
	}

	cfg, err := newConfig(startupLogger)
	if err != nil {
		startupLogger.Fatal("failed to parse config", zap.Error(err))
	}

	runID := uuid.New().String()
	reg := promclient.NewRegistry()
	logger := logging.NewLogger(cfg.Logger, os.Stdout, reg, cfg.Exporter.Namespace).With(zap.String("run_id", runID))
	logger.Info("starting deployment run",
		zap.String("topics_dir", cfg.Pipeline.TopicsDir),
		zap.String("schema_registry_url", cfg.Registry.URL),
		zap.Strings("seed_brokers", cfg.Kafka.Brokers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kafkaSvc, err := kafka.NewService(cfg.Kafka, logger)
	if err != nil {
		logger.Fatal("failed to setup kafka service", zap.Error(err))
	}

	registryClient := registry.NewClient(cfg.Registry, logger)

	pipelineSvc, err := pipeline.NewService(cfg.Pipeline, logger, kafkaSvc, registryClient, reg, cfg.Exporter.Namespace)
	if err != nil {
		logger.Fatal("failed to setup pipeline service", zap.Error(err))
	}

	exporter := prometheus.NewExporter(cfg.Exporter, logger, pipelineSvc, runID)
	reg.MustRegister(exporter)

	summary := pipelineSvc.Run(ctx)
	if ctx.Err() != nil {
		logger.Warn("deployment run was interrupted, remaining requests have been cancelled")
	}

	// The run context may already be cancelled, metrics are still exported.
	exportCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := exporter.Export(exportCtx, reg); err != nil {
		logger.Warn("failed to export run metrics", zap.Error(err))
	}
	cancel()

	pipelineSvc.Close()
	kafkaSvc.Close()
	_ = logger.Sync()
	stop()

	os.Exit(summary.ExitCode)
}
