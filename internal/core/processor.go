package core

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/document"
	"github.com/joseph-ayodele/docintel/internal/extract"
	"github.com/joseph-ayodele/docintel/internal/llm"
)

// PageExtractor is the per-page stage.
type PageExtractor interface {
	ExtractPage(ctx context.Context, img image.Image, pageNumber int) extract.PageExtraction
	Profile() constants.Profile
}

// DocumentLoader supplies page rasters for a path.
type DocumentLoader interface {
	Load(ctx context.Context, path string, maxPages int) (document.Document, error)
}

type Config struct {
	// Concurrency is the number of pages extracted at once; <= 1 is sequential.
	Concurrency int
	// StrictStatus reports Status "failed" when no page succeeded.
	StrictStatus bool
}

// Processor bounds the page set, extracts each page and folds the results.
type Processor struct {
	loader    DocumentLoader
	extractor PageExtractor
	cfg       Config
	logger    *slog.Logger
}

func NewProcessor(loader DocumentLoader, extractor PageExtractor, cfg Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Processor{loader: loader, extractor: extractor, cfg: cfg, logger: logger}
}

func (p *Processor) Profile() constants.Profile { return p.extractor.Profile() }

// ProcessFile loads path and runs ProcessDocument on it. Only load failures are
// returned as errors.
func (p *Processor) ProcessFile(ctx context.Context, path string) (DocumentResult, error) {
	profile := p.extractor.Profile()
	doc, err := p.loader.Load(ctx, path, profile.PageLimit())
	if err != nil {
		p.logger.Error("processor.load.failed", "path", path, "error", err)
		return DocumentResult{}, fmt.Errorf("load %s: %w", path, err)
	}
	for _, w := range doc.Warnings {
		p.logger.Warn("processor.load.warning", "path", path, "warning", w)
	}
	return p.ProcessDocument(ctx, doc.Pages, doc.TotalPages), nil
}

// ProcessDocument extracts the first pages allowed by the profile and aggregates
// them. totalPages is the page count of the source; when it is smaller than
// len(pages), len(pages) is used.
func (p *Processor) ProcessDocument(ctx context.Context, pages []document.Page, totalPages int) DocumentResult {
	start := time.Now()
	profile := p.extractor.Profile()
	if totalPages < len(pages) {
		totalPages = len(pages)
	}

	n := BoundPages(len(pages), profile.PageLimit())
	bounded := pages[:n]
	p.logger.Info("processor.document.start",
		"profile", profile,
		"total_pages", totalPages,
		"processing", n,
		"concurrency", p.cfg.Concurrency,
	)

	results := p.extractAll(ctx, bounded)

	res := DocumentResult{
		DocumentType:     SelectDocumentType(results),
		TotalPages:       totalPages,
		ProcessedPages:   len(results),
		Confidence:       AggregateConfidence(results),
		ExtractedContent: ExtractedContent{Pages: results},
		Status:           constants.ResultStatusSuccess,
		Outcome:          ClassifyOutcome(results),
		Note:             ProfileNote(profile, totalPages > len(results)),
		Profile:          profile,
	}
	if p.cfg.StrictStatus && res.Outcome == constants.OutcomeFailed {
		res.Status = constants.ResultStatusFailed
	}

	p.logger.Info("processor.document.ok",
		"type", res.DocumentType,
		"confidence", res.Confidence,
		"outcome", res.Outcome,
		"succeeded", res.SucceededPages(),
		"processed_pages", res.ProcessedPages,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res
}

// extractAll returns one record per page, in page order, whatever the
// completion order.
func (p *Processor) extractAll(ctx context.Context, pages []document.Page) []extract.PageExtraction {
	out := make([]extract.PageExtraction, len(pages))

	if p.cfg.Concurrency <= 1 {
		for i, pg := range pages {
			out[i] = p.extractOne(ctx, pg, pageNumber(pg, i))
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, pg := range pages {
		g.Go(func() error {
			out[i] = p.extractOne(ctx, pg, pageNumber(pg, i))
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Processor) extractOne(ctx context.Context, pg document.Page, number int) extract.PageExtraction {
	// a page that times out fails on its own; a cancelled parent stops new pages
	if err := ctx.Err(); err != nil {
		return extract.PageExtraction{
			Page:      number,
			Type:      string(constants.Unknown),
			Error:     err.Error(),
			ErrorKind: llm.FailureCancelled,
		}
	}
	return p.extractor.ExtractPage(ctx, pg.Image, number)
}

func pageNumber(pg document.Page, idx int) int {
	if pg.Number > 0 {
		return pg.Number
	}
	return idx + 1
}
