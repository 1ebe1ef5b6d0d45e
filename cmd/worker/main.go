package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"studyflow/internal/activities"
	"studyflow/internal/config"
	"studyflow/internal/storage"
	"studyflow/internal/workflows"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	logger := newLogger(cfg.Debug)
	defer func() { _ = logger.Sync() }()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		logger.Fatal("connect temporal", zap.Error(err))
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	cancel()
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	a, err := activities.New(cfg, db, logger)
	if err != nil {
		logger.Fatal("build activities", zap.Error(err))
	}

	// PDFs process concurrently; media stays sequential because a single
	// transcription already saturates the box.
	pdfWorker := worker.New(c, cfg.PDFTaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: cfg.MaxPDFWorkers,
	})
	mediaWorker := worker.New(c, cfg.MediaTaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 1,
	})
	for _, w := range []worker.Worker{pdfWorker, mediaWorker} {
		workflows.Register(w)
		activities.Register(w, a)
	}

	if err := pdfWorker.Start(); err != nil {
		logger.Fatal("start pdf worker", zap.Error(err))
	}
	if err := mediaWorker.Start(); err != nil {
		logger.Fatal("start media worker", zap.Error(err))
	}
	logger.Info("workers listening",
		zap.String("temporal", cfg.TemporalAddress),
		zap.String("pdf_queue", cfg.PDFTaskQueue),
		zap.String("media_queue", cfg.MediaTaskQueue),
		zap.Int("pdf_concurrency", cfg.MaxPDFWorkers),
		zap.String("embed_providers", cfg.EmbedProviders),
	)

	<-worker.InterruptCh()
	pdfWorker.Stop()
	mediaWorker.Stop()
	logger.Info("workers stopped")
}

func newLogger(debug bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	return logger
}
