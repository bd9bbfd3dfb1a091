package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudhut/kexporter/exporter"
	"github.com/cloudhut/kexporter/kafka"
	"github.com/cloudhut/kexporter/logging"
	"github.com/cloudhut/kexporter/prometheus"
	"github.com/cloudhut/kexporter/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	startupLogger := zap.NewExample()
	cfg, err := newConfig(startupLogger)
	if err != nil {
		startupLogger.Fatal("failed to parse config", zap.Error(err))
	}
	logger := logging.NewLogger(cfg.Logger, cfg.Metrics.Namespace)

	logger.Info("started kafka consumer group offset exporter",
		zap.String("version", version),
		zap.String("instance_id", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kafkaSvc, err := kafka.NewService(cfg.Kafka, logger, exporter.ConsumerClientOpts(cfg.Exporter))
	if err != nil {
		logger.Fatal("failed to create kafka service", zap.Error(err))
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err = kafkaSvc.TestConnection(connectCtx)
	cancel()
	if err != nil {
		logger.Fatal("failed to test connectivity to kafka cluster", zap.Error(err))
	}

	store := storage.NewStore(logger)
	exporterSvc := exporter.NewService(cfg.Exporter, logger, kafkaSvc, store, cfg.Metrics.Namespace)
	metricsExporter := prometheus.NewExporter(cfg.Metrics, logger, store, exporterSvc.IsReady)

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return exporterSvc.Start(grpCtx)
	})
	grp.Go(func() error {
		return metricsExporter.ListenAndServe(grpCtx)
	})

	if err := grp.Wait(); err != nil {
		logger.Fatal("offset exporter stopped with an error", zap.Error(err))
	}

	// Reached after a termination signal only.
	logger.Info("shutting down")
	os.Exit(1)
}
