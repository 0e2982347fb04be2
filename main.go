package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/korjavin/docquizbot/ai"
	"github.com/korjavin/docquizbot/bot"
	"github.com/korjavin/docquizbot/config"
	"github.com/korjavin/docquizbot/database"
	"github.com/korjavin/docquizbot/extractor"
	"github.com/korjavin/docquizbot/health"
	"github.com/korjavin/docquizbot/logger"
	"github.com/korjavin/docquizbot/observability"
	"github.com/korjavin/docquizbot/quiz"
	"github.com/korjavin/docquizbot/worker"
)

func main() {
	// Load config
	cfg, cfgErr := config.Load()
	mode := "development"
	if cfgErr == nil {
		mode = cfg.LogMode
	}

	log, err := logger.New(mode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfgErr != nil {
		log.Fatal("Failed to load configuration", "error", cfgErr)
	}
	log.Info("Starting DocQuizBot...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open database", "path", cfg.DatabasePath, "error", err)
	}
	defer db.Close()

	var model quiz.Model
	switch cfg.ModelBackend {
	case config.BackendDeepseek:
		model = ai.NewDeepseekClient(cfg.DeepseekAPIKey, log)
	default:
		model = ai.NewHuggingFaceClient(cfg.HFAPIToken, cfg.HFModel, log)
	}
	log.Info("Question model selected", "backend", cfg.ModelBackend)

	generator := quiz.NewGenerator(model, log,
		quiz.WithChunkWords(cfg.Limits.ChunkWords),
		quiz.WithModelTimeout(cfg.ModelTimeout),
	)
	engine := quiz.NewEngine(cfg.Limits, generator, log)
	pool := worker.NewPool(cfg.WorkerConcurrency, cfg.WorkerQueue, log)

	b, err := bot.New(cfg, engine, extractor.New(log), db, pool, log)
	if err != nil {
		log.Fatal("Failed to initialize bot", "error", err)
	}
	log.Info("Bot initialized successfully")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pool.Run(gctx) })
	g.Go(func() error {
		b.Start(gctx)
		return nil
	})
	if cfg.HealthAddr != "" {
		g.Go(func() error {
			return health.Serve(gctx, cfg.HealthAddr, health.Routes(b, db), log)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("Bot stopped with error", "error", err)
		return
	}
	log.Info("Bot stopped")
}
