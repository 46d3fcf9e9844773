package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshalev/slide-explainer/constants"
	"github.com/dshalev/slide-explainer/internal/common"
	"github.com/dshalev/slide-explainer/internal/entity"
	"github.com/dshalev/slide-explainer/internal/pptx"
	"github.com/dshalev/slide-explainer/internal/repository"
	"github.com/dshalev/slide-explainer/internal/summarizer"
)

// Config tunes the worker loop.
type Config struct {
	PollInterval     time.Duration // discovery cadence
	JobConcurrency   int           // jobs in flight at once
	SlideConcurrency int           // summarize calls in flight per job
	MaxAttempts      int           // per-slide attempts before degrading
	RetryBackoff     time.Duration // first retry delay, doubles per attempt
	CallTimeout      time.Duration // bound on a single summarize call
	RequeueStale     bool          // reset abandoned processing jobs
	StaleAfter       time.Duration // claim age that counts as abandoned
}

// Worker turns uploaded jobs into terminal ones: it discovers claimable
// rows, wins them with a conditional update, summarizes every slide, and
// writes exactly one terminal status per claim.
type Worker struct {
	cfg        Config
	jobs       repository.JobRepository
	summarizer summarizer.Summarizer
	parse      func(path string) ([]pptx.Slide, error)
	logger     *slog.Logger

	sem chan struct{}
	wg  sync.WaitGroup
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.JobConcurrency <= 0 {
		c.JobConcurrency = 2
	}
	if c.SlideConcurrency <= 0 {
		c.SlideConcurrency = 3
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 30 * time.Second
	}
	return c
}

func NewWorker(cfg Config, jobs repository.JobRepository, s summarizer.Summarizer, logger *slog.Logger) *Worker {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		cfg:        cfg,
		jobs:       jobs,
		summarizer: s,
		parse:      pptx.ParseFile,
		logger:     logger,
		sem:        make(chan struct{}, cfg.JobConcurrency),
	}
}

// Run polls until ctx is canceled, then drains in-flight jobs.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started",
		"poll_interval", w.cfg.PollInterval,
		"job_concurrency", w.cfg.JobConcurrency,
		"slide_concurrency", w.cfg.SlideConcurrency,
	)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker draining")
			w.wg.Wait()
			w.logger.Info("worker stopped")
			return nil
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// RunOnce does a single discovery pass and waits for the dispatched jobs.
func (w *Worker) RunOnce(ctx context.Context) {
	w.sweep(ctx)
	w.wg.Wait()
}

// sweep lists claimable jobs oldest-first and dispatches every claim it
// wins. A full executor pool blocks the sweep, which keeps arrival order.
func (w *Worker) sweep(ctx context.Context) {
	if w.cfg.RequeueStale && w.cfg.StaleAfter > 0 {
		if _, err := w.jobs.RequeueStale(ctx, time.Now().Add(-w.cfg.StaleAfter)); err != nil {
			w.logger.Error("stale sweep failed", "error", err)
		}
	}

	candidates, err := w.jobs.ListUploaded(ctx, 0)
	if err != nil {
		w.logger.Error("job discovery failed", "error", err)
		return
	}

	for _, job := range candidates {
		select {
		case w.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		claimed, err := w.jobs.TryClaim(ctx, job.ID)
		if err != nil {
			<-w.sem
			w.logger.Error("claim failed", "job_id", job.ID, "error", err)
			continue
		}
		if !claimed {
			<-w.sem
			w.logger.Debug("job.claim.lost", "job_id", job.ID)
			continue
		}

		w.logger.Info("job.claimed", "job_id", job.ID, "filename", job.Filename)
		w.wg.Add(1)
		go func(job *entity.Job) {
			defer w.wg.Done()
			defer func() { <-w.sem }()
			// Execution outlives the polling context so shutdown drains
			// instead of abandoning claimed jobs mid-flight.
			w.execute(context.Background(), job)
		}(job)
	}
}

// execute takes a claimed job to its terminal status.
func (w *Worker) execute(ctx context.Context, job *entity.Job) {
	start := time.Now()

	slides, err := w.parse(job.SourcePath)
	if err != nil {
		w.fail(ctx, job, fmt.Sprintf("unable to parse presentation: %v", err))
		return
	}
	if len(slides) == 0 {
		w.fail(ctx, job, "presentation contains no readable text")
		return
	}

	results, degradedCount := SummarizeSlides(ctx, w.cfg, w.summarizer, slides,
		job.SummaryStyle, job.Language, w.logger.With("job_id", job.ID))
	if degradedCount == len(slides) {
		w.fail(ctx, job, "summarization unavailable")
		return
	}

	if err := w.jobs.MarkCompleted(ctx, job.ID, results); err != nil {
		w.logger.Error("failed to persist result", "job_id", job.ID, "error", err)
		return
	}
	w.logger.Info("job.completed",
		"job_id", job.ID,
		"slides", len(slides),
		"degraded", degradedCount,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// SummarizeSlides fans slides out to the summarizer with bounded concurrency
// and per-slide retry. A slide that exhausts its attempt budget gets a
// placeholder explanation instead of aborting the batch; the count of those
// comes back alongside the summaries.
func SummarizeSlides(ctx context.Context, cfg Config, s summarizer.Summarizer, slides []pptx.Slide,
	style constants.SummaryStyle, language constants.Language, logger *slog.Logger) ([]entity.SlideSummary, int) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]entity.SlideSummary, len(slides))
	degraded := make([]bool, len(slides))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.SlideConcurrency)
	for i, slide := range slides {
		eg.Go(func() error {
			text, ok := summarizeWithRetry(gctx, cfg, s, slide, style, language, logger)
			results[i] = entity.SlideSummary{SlideNumber: slide.Number, Explanation: text}
			degraded[i] = !ok
			// A degraded slide never aborts the batch.
			return nil
		})
	}
	_ = eg.Wait()

	degradedCount := 0
	for _, d := range degraded {
		if d {
			degradedCount++
		}
	}
	return results, degradedCount
}

// summarizeWithRetry returns the slide's explanation, or a placeholder
// and false once the attempt budget is spent.
func summarizeWithRetry(ctx context.Context, cfg Config, s summarizer.Summarizer, slide pptx.Slide,
	style constants.SummaryStyle, language constants.Language, logger *slog.Logger) (string, bool) {
	req := summarizer.Request{
		SlideText: slide.Text,
		Style:     style,
		Language:  language,
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		callCtx, cancel := common.WithTimeout(ctx, cfg.CallTimeout)
		text, err := s.Summarize(callCtx, req)
		cancel()
		if err == nil {
			logger.Debug("summarize.ok", "slide", slide.Number, "attempt", attempt)
			return text, true
		}
		lastErr = err
		logger.Warn("summarize.attempt_failed", "slide", slide.Number, "attempt", attempt, "error", err)

		if attempt < cfg.MaxAttempts {
			backoff := cfg.RetryBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return placeholder(slide, attempt, ctx.Err()), false
			case <-time.After(backoff):
			}
		}
	}
	return placeholder(slide, cfg.MaxAttempts, lastErr), false
}

func placeholder(slide pptx.Slide, attempts int, reason error) string {
	return fmt.Sprintf("Slide %d: summary unavailable after %d attempts: %v", slide.Number, attempts, reason)
}

func (w *Worker) fail(ctx context.Context, job *entity.Job, message string) {
	if err := w.jobs.MarkFailed(ctx, job.ID, message); err != nil {
		w.logger.Error("failed to fail job", "job_id", job.ID, "error", err)
	}
}
