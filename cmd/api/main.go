package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"studyflow/internal/api"
	"studyflow/internal/config"
	"studyflow/internal/features"
	"studyflow/internal/providers"
	"studyflow/internal/queue"
	"studyflow/internal/storage"
	"studyflow/internal/vector"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	logger := newLogger(cfg.Debug)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	cancel()
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	pm, err := providers.NewManager(cfg)
	if err != nil {
		logger.Fatal("build providers", zap.Error(err))
	}

	tc, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		logger.Fatal("connect temporal", zap.Error(err))
	}
	defer tc.Close()

	docRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)
	searcher := vector.NewSearcher(db.Pool)
	feats := features.NewService(docRepo, chunkRepo, searcher, pm, cfg.TopK, cfg.EmbedDim, cfg.CooldownSecs, logger)
	estimator := queue.NewEstimator(docRepo, cfg.MaxPDFWorkers)
	starter := api.NewTemporalStarter(tc, cfg, pm.EmbedCount())

	srv := api.NewServer(cfg, api.Deps{
		DB:        db,
		Documents: docRepo,
		Features:  feats,
		Queue:     estimator,
		Workflows: starter,
		Logger:    logger,
	})

	go func() {
		logger.Info("api listening",
			zap.String("addr", cfg.APIAddr),
			zap.String("llm_providers", cfg.LLMProviders),
			zap.String("embed_providers", cfg.EmbedProviders),
		)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("api stopped")
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
