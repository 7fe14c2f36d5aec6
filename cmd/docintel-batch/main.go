package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/app"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/core/async"
	"github.com/joseph-ayodele/docintel/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	cfg := common.LoadConfig()

	// Parse CLI flags
	var (
		inmem      = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir        = flag.String("dir", "", "directory to process documents from (required)")
		out        = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		profileStr = flag.String("profile", string(cfg.Pipeline.Profile), "fast | thorough")
		workers    = flag.Int("workers", cfg.Queue.Workers, "documents processed in parallel")
		hidden     = flag.Bool("hidden", false, "include hidden files and directories")
	)
	flag.Parse()

	// Validate required flags
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	profile, ok := constants.ParseProfile(*profileStr)
	if !ok {
		printError("Error: unknown profile %q\n", *profileStr)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	// If output file not specified, use parent directory with default filename
	if *out == "" {
		parentDir := filepath.Dir(filepath.Clean(*dir))
		*out = filepath.Join(parentDir, "docintel.xlsx")
	}

	logger := common.NewLogger(os.Stdout, cfg.LogLevel)
	ctx := context.Background()

	store, err := app.InitDatabase(ctx, cfg, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	pipeline := app.NewPipeline(ctx, cfg, logger)
	queue := async.NewProcessorQueue(pipeline.Processor(profile), store.Jobs, logger,
		async.WithWorkers(*workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Pipeline.Timeout),
	)

	logger.Info("starting batch", "dir", *dir, "profile", profile, "workers", *workers)
	results, stats, err := ingest.SubmitDirectory(ctx, queue, *dir, !*hidden, logger)
	if err != nil {
		logger.Error("failed to scan directory", "error", err)
		queue.Shutdown(ctx)
		os.Exit(1)
	}

	// Wait for all queued documents
	queue.Shutdown(ctx)

	xlsx, err := store.Export.ExportJobsXLSX(ctx, 0)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("failed to write output", "path", *out, "error", err)
		os.Exit(1)
	}

	failed := 0
	for _, r := range results {
		if r.Err != "" {
			failed++
		}
	}
	logger.Info("batch complete",
		"matched", stats.Matched,
		"submitted", stats.Submitted,
		"submit_failed", failed,
		"out", *out,
	)
	fmt.Printf("Processed %d documents, wrote %s\n", stats.Submitted, *out)
}
