package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/app"
	"github.com/joseph-ayodele/docintel/internal/common"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	cfg := common.LoadConfig()

	var (
		profileStr  = flag.String("profile", string(cfg.Pipeline.Profile), "fast | thorough")
		concurrency = flag.Int("concurrency", cfg.Pipeline.Concurrency, "pages extracted in parallel")
		strict      = flag.Bool("strict", cfg.Pipeline.StrictStatus, "report status=failed when no page succeeds")
	)
	flag.Usage = func() {
		printError("usage: docintel [-profile fast|thorough] <file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	profile, ok := constants.ParseProfile(*profileStr)
	if !ok {
		printError("Error: unknown profile %q\n", *profileStr)
		os.Exit(2)
	}
	cfg.Pipeline.Profile = profile
	cfg.Pipeline.Concurrency = *concurrency
	cfg.Pipeline.StrictStatus = *strict
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	// stdout carries the result
	logger := common.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := common.WithTimeout(ctx, cfg.Pipeline.Timeout)
	defer cancel()
	ctx, _ = common.EnsureRequestID(ctx)

	pipeline := app.NewPipeline(ctx, cfg, logger)
	res, err := pipeline.Processor(profile).ProcessFile(ctx, flag.Arg(0))
	if err != nil {
		logger.Error("processing failed", "path", flag.Arg(0), "error", err)
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		printError("Error: encode result: %v\n", err)
		os.Exit(1)
	}
}
