package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dshalev/slide-explainer/internal/common"
	repo "github.com/dshalev/slide-explainer/internal/repository"
	"github.com/dshalev/slide-explainer/internal/summarizer/gemini"
	"github.com/dshalev/slide-explainer/internal/worker"
)

func main() {
	_ = godotenv.Load()

	// Setup structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbResult, err := repo.InitDatabase(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, false, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbResult.Cleanup()

	// Ping DB to ensure connectivity
	if err := dbResult.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	jobsRepo := repo.NewJobRepository(dbResult.Client, logger)

	geminiClient := gemini.NewClient(gemini.Config{
		Model:   cfg.Summarizer.Model,
		APIKey:  cfg.Summarizer.APIKey,
		BaseURL: cfg.Summarizer.BaseURL,
		Timeout: cfg.Summarizer.Timeout,
	}, logger)
	logger.Info("gemini client initialized", "model", cfg.Summarizer.Model)

	w := worker.NewWorker(worker.Config{
		PollInterval:     cfg.Worker.PollInterval,
		JobConcurrency:   cfg.Worker.JobConcurrency,
		SlideConcurrency: cfg.Worker.SlideConcurrency,
		MaxAttempts:      cfg.Worker.MaxAttempts,
		RetryBackoff:     cfg.Worker.RetryBackoff,
		CallTimeout:      cfg.Summarizer.Timeout,
		RequeueStale:     cfg.Worker.RequeueStale,
		StaleAfter:       cfg.Worker.StaleAfter,
	}, jobsRepo, geminiClient, logger)

	if err := w.Run(ctx); err != nil {
		logger.Error("worker exited", "error", err)
		os.Exit(1)
	}
}
