package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/dshalev/slide-explainer/constants"
	"github.com/dshalev/slide-explainer/internal/common"
	"github.com/dshalev/slide-explainer/internal/entity"
	"github.com/dshalev/slide-explainer/internal/export"
	"github.com/dshalev/slide-explainer/internal/filestore"
	"github.com/dshalev/slide-explainer/internal/intake"
	repo "github.com/dshalev/slide-explainer/internal/repository"
	"github.com/dshalev/slide-explainer/internal/status"
	"github.com/dshalev/slide-explainer/internal/summarizer/gemini"
	"github.com/dshalev/slide-explainer/internal/worker"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem    = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir      = flag.String("dir", "", "directory to process presentations from (required)")
		out      = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		styleStr = flag.String("style", "", "summary style: beginner, comprehensive, or executive")
		langStr  = flag.String("lang", "", "summary language: en, he, ru, or es")
		email    = flag.String("email", "batch@localhost", "owner email for the submitted jobs")
		watch    = flag.Bool("watch", false, "keep running and submit presentations as they appear")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if _, ok := constants.NormalizeStyle(*styleStr); !ok {
		printError("Error: unknown style %q (choose one of %s)\n", *styleStr, strings.Join(constants.StyleStrings(), ", "))
		os.Exit(1)
	}
	if _, ok := constants.NormalizeLanguage(*langStr); !ok {
		printError("Error: unknown language %q (choose one of %s)\n", *langStr, strings.Join(constants.LanguageStrings(), ", "))
		os.Exit(1)
	}

	// If output file not specified, use parent directory with default filename
	if *out == "" {
		parentDir := filepath.Dir(*dir)
		*out = filepath.Join(parentDir, "history.xlsx")
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	if cfg.Summarizer.APIKey == "" {
		printError("Error: GEMINI_API_KEY env var is required\n")
		os.Exit(1)
	}

	dbResult, err := repo.InitDatabase(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbResult.Cleanup()

	store, err := filestore.New(cfg.Files.UploadsDir, logger)
	if err != nil {
		logger.Error("failed to prepare uploads directory", "dir", cfg.Files.UploadsDir, "error", err)
		os.Exit(1)
	}

	jobsRepo := repo.NewJobRepository(dbResult.Client, logger)
	usersRepo := repo.NewUserRepository(dbResult.Client, logger)

	intakeService := intake.NewService(jobsRepo, usersRepo, store, logger)
	statusService := status.NewService(jobsRepo, usersRepo, logger)
	exportService := export.NewService(statusService, logger)
	ingestor := intake.NewFSIngestor(intakeService, logger)

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
	}, jobsRepo, geminiClient, logger)

	if *watch {
		runWatch(ctx, logger, cfg, ingestor, statusService, w, *dir, *styleStr, *langStr, *email)
	} else {
		runOnce(ctx, logger, ingestor, statusService, w, *dir, *styleStr, *langStr, *email)
	}

	// Export job history to XLSX
	logger.Info("exporting history to XLSX", "output", *out)
	xlsxBytes, err := exportService.ExportHistoryXLSX(context.Background(), *email)
	if err != nil {
		logger.Error("failed to export history", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}
	fmt.Printf("History exported to %s\n", *out)
}

// runOnce ingests the directory, drains the queue, and writes one JSON per
// completed presentation next to its source file.
func runOnce(ctx context.Context, logger *slog.Logger, ingestor *intake.FSIngestor,
	statusService *status.Service, w *worker.Worker, dir, style, lang, email string) {
	logger.Info("starting ingestion", "dir", dir)
	results, stats, err := ingestor.IngestDirectory(ctx, dir, style, lang, email, true)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)

	w.RunOnce(ctx)

	completed := 0
	failed := 0
	for _, r := range results {
		if r.Err != "" || r.JobID == "" {
			continue
		}
		job, err := fetchJob(ctx, statusService, r.JobID)
		if err != nil {
			logger.Error("failed to fetch job", "job_id", r.JobID, "error", err)
			failed++
			continue
		}
		switch job.Status {
		case constants.JobStatusCompleted:
			if err := writeSummaries(r.SourcePath, job.Summaries); err != nil {
				logger.Error("failed to write summaries", "path", r.SourcePath, "error", err)
				failed++
				continue
			}
			completed++
		case constants.JobStatusFailed:
			failed++
		}
	}

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Presentations submitted: %d\n", stats.Succeeded)
	fmt.Printf("- Completed: %d\n", completed)
	fmt.Printf("- Failed: %d\n", failed+stats.Failed)
}

// runWatch keeps the worker polling and submits presentations as they land
// in the directory, writing each JSON as its job completes.
func runWatch(ctx context.Context, logger *slog.Logger, cfg *common.Config, ingestor *intake.FSIngestor,
	statusService *status.Service, w *worker.Worker, dir, style, lang, email string) {
	go func() {
		_ = w.Run(ctx)
	}()

	evCh, errCh, err := intake.Watch(ctx, intake.WatchConfig{
		Root:        dir,
		InitialScan: true,
		Debounce:    2 * time.Second,
	}, logger)
	if err != nil {
		logger.Error("failed to watch directory", "dir", dir, "error", err)
		os.Exit(1)
	}
	logger.Info("watching for presentations", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok {
				logger.Error("watch error", "error", err)
			}
		case path, ok := <-evCh:
			if !ok {
				return
			}
			r, err := ingestor.IngestPath(ctx, path, style, lang, email)
			if err != nil {
				logger.Error("failed to submit presentation", "path", path, "error", err)
				continue
			}
			if r.Deduplicated {
				continue
			}
			go awaitAndWrite(ctx, logger, statusService, cfg.Worker.PollInterval, r)
		}
	}
}

// awaitAndWrite polls one job until it is terminal, then writes its JSON.
func awaitAndWrite(ctx context.Context, logger *slog.Logger, statusService *status.Service,
	pollInterval time.Duration, r intake.IngestionResult) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		job, err := fetchJob(ctx, statusService, r.JobID)
		if err != nil {
			logger.Error("failed to poll job", "job_id", r.JobID, "error", err)
			return
		}
		switch job.Status {
		case constants.JobStatusCompleted:
			if err := writeSummaries(r.SourcePath, job.Summaries); err != nil {
				logger.Error("failed to write summaries", "path", r.SourcePath, "error", err)
			}
			return
		case constants.JobStatusFailed:
			logger.Warn("presentation failed", "path", r.SourcePath, "job_id", r.JobID)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func fetchJob(ctx context.Context, statusService *status.Service, jobID string) (*entity.Job, error) {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return nil, err
	}
	return statusService.Get(ctx, id)
}

func writeSummaries(sourcePath string, summaries []entity.SlideSummary) error {
	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return err
	}
	outPath := strings.TrimSuffix(sourcePath, ".pptx") + ".json"
	return os.WriteFile(outPath, data, 0644)
}
