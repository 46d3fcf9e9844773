package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dshalev/slide-explainer/constants"
	"github.com/dshalev/slide-explainer/internal/common"
	"github.com/dshalev/slide-explainer/internal/pptx"
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
		styleStr = flag.String("style", "", "summary style: beginner, comprehensive, or executive")
		langStr  = flag.String("lang", "", "summary language: en, he, ru, or es")
		out      = flag.String("out", "", "output JSON path (defaults to the input path with a .json extension)")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		printError("usage: explain [flags] <presentation.pptx>\n")
		os.Exit(2)
	}
	path := flag.Arg(0)
	if _, err := os.Stat(path); err != nil {
		printError("Error: cannot read %s: %v\n", path, err)
		os.Exit(1)
	}

	style, ok := constants.NormalizeStyle(*styleStr)
	if !ok {
		printError("Error: unknown style %q (choose one of %s)\n", *styleStr, strings.Join(constants.StyleStrings(), ", "))
		os.Exit(2)
	}
	language, ok := constants.NormalizeLanguage(*langStr)
	if !ok {
		printError("Error: unknown language %q (choose one of %s)\n", *langStr, strings.Join(constants.LanguageStrings(), ", "))
		os.Exit(2)
	}

	if *out == "" {
		base := strings.TrimSuffix(path, ".pptx")
		*out = base + ".json"
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if cfg.Summarizer.APIKey == "" {
		printError("Error: GEMINI_API_KEY env var is required\n")
		os.Exit(1)
	}

	ctx := context.Background()

	fmt.Printf("Parsing presentation: %s\n", path)
	slides, err := pptx.ParseFile(path)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if len(slides) == 0 {
		fmt.Println("No slides with text found in the presentation.")
		return
	}
	fmt.Printf("Found %d slides with text. Processing...\n", len(slides))

	geminiClient := gemini.NewClient(gemini.Config{
		Model:   cfg.Summarizer.Model,
		APIKey:  cfg.Summarizer.APIKey,
		BaseURL: cfg.Summarizer.BaseURL,
		Timeout: cfg.Summarizer.Timeout,
	}, logger)

	start := time.Now()
	summaries, degraded := worker.SummarizeSlides(ctx, worker.Config{
		SlideConcurrency: cfg.Worker.SlideConcurrency,
		MaxAttempts:      cfg.Worker.MaxAttempts,
		RetryBackoff:     cfg.Worker.RetryBackoff,
		CallTimeout:      cfg.Summarizer.Timeout,
	}, geminiClient, slides, style, language, logger)

	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		printError("Error: encoding summaries: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		printError("Error: writing %s: %v\n", *out, err)
		os.Exit(1)
	}

	fmt.Printf("Explanations saved to %s\n", *out)
	fmt.Printf("- Slides summarized: %d\n", len(summaries)-degraded)
	fmt.Printf("- Degraded: %d\n", degraded)
	fmt.Printf("- Elapsed: %s\n", time.Since(start).Round(time.Millisecond))
}
