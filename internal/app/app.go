// Package app wires configuration into the pipeline, job store and export
// services shared by the binaries.
package app

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/core"
	"github.com/joseph-ayodele/docintel/internal/document"
	"github.com/joseph-ayodele/docintel/internal/export"
	"github.com/joseph-ayodele/docintel/internal/extract"
	"github.com/joseph-ayodele/docintel/internal/llm/openai"
	"github.com/joseph-ayodele/docintel/internal/repository"
)

// InMemoryDSN is a shared-cache sqlite database that lives as long as the process.
const InMemoryDSN = "file:docintel?mode=memory&cache=shared&_pragma=busy_timeout(5000)"

// Pipeline holds one processor per profile over a shared gateway and loader.
type Pipeline struct {
	Gateway    *openai.Client
	Loader     *document.Loader
	Processors map[constants.Profile]*core.Processor
}

// Processor returns the processor for p, falling back to the fast profile.
func (p *Pipeline) Processor(profile constants.Profile) *core.Processor {
	if proc, ok := p.Processors[profile]; ok {
		return proc
	}
	return p.Processors[constants.ProfileFast]
}

// NewPipeline builds the gateway, the document loader and both profile processors.
func NewPipeline(ctx context.Context, cfg *common.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	gw := openai.NewClient(openai.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)
	logger.Info("llm gateway initialized", "base_url", cfg.LLM.BaseURL, "model", gw.Model())

	opts := []document.Option{}
	if fetcher, err := document.NewS3FetcherFromEnv(ctx, cfg.Document.AWSRegion, logger); err != nil {
		logger.Warn("s3 sources disabled", "error", err)
	} else {
		opts = append(opts, document.WithFetcher(fetcher))
	}
	loader := document.NewLoader(document.Config{
		Pdftoppm:         cfg.Document.Pdftoppm,
		Pdfinfo:          cfg.Document.Pdfinfo,
		DPI:              cfg.Document.DPI,
		HeicConverter:    cfg.Document.HeicConverter,
		ArtifactCacheDir: cfg.Document.ArtifactCacheDir,
		MaxImageMB:       cfg.Document.MaxImageMB,
	}, logger, opts...)

	procCfg := core.Config{
		Concurrency:  cfg.Pipeline.Concurrency,
		StrictStatus: cfg.Pipeline.StrictStatus,
	}
	procs := make(map[constants.Profile]*core.Processor, 2)
	for _, profile := range []constants.Profile{constants.ProfileFast, constants.ProfileThorough} {
		temp := cfg.LLM.Temperature
		ex := extract.NewExtractor(gw, extract.Config{
			Profile:     profile,
			Temperature: &temp,
		}, logger)
		procs[profile] = core.NewProcessor(loader, ex, procCfg, logger)
	}

	return &Pipeline{Gateway: gw, Loader: loader, Processors: procs}
}

// Store is the job repository plus the export service reading from it.
type Store struct {
	DB     *repository.DB
	Jobs   repository.JobRepository
	Export *export.Service
}

func (s *Store) Close() { s.DB.Close() }

// InitDatabase opens the job store; inmem forces a process-local sqlite database.
func InitDatabase(ctx context.Context, cfg *common.Config, inmem bool, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := cfg.Database.DSN
	if inmem {
		dsn = InMemoryDSN
	}
	db, err := repository.Open(ctx, repository.Config{
		DSN:             dsn,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "open job store", err)
	}
	jobs := repository.NewJobRepository(db, logger)
	return &Store{DB: db, Jobs: jobs, Export: export.NewService(jobs, logger)}, nil
}
