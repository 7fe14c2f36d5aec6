// Package document turns a file path into an ordered list of page rasters.
// PDFs are rasterized with poppler's pdftoppm; images are decoded in-process.
package document

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docintel/constants"
)

// Page is one rendered page. Number is 1-based.
type Page struct {
	Number int
	Image  image.Image
}

// Document is what the loader hands to the pipeline.
type Document struct {
	Path       string
	Format     string // constants.PDF | constants.IMAGE
	Pages      []Page
	TotalPages int // pages in the source, even when fewer were rendered
	Duration   time.Duration
	Warnings   []string
}

type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	Pdfinfo  string // binary name or absolute path; if empty -> "pdfinfo"
	DPI      int    // rasterization DPI, default 100

	HeicConverter    string // heif-convert | magick | sips
	ArtifactCacheDir string
	MaxImageMB       int
}

type Loader struct {
	cfg    Config
	runner Runner
	s3     Fetcher
	logger *slog.Logger
}

// Option customizes a Loader.
type Option func(*Loader)

// WithRunner replaces the exec runner (tests).
func WithRunner(r Runner) Option {
	return func(l *Loader) {
		if r != nil {
			l.runner = r
		}
	}
}

// WithFetcher enables s3:// (or other remote) paths.
func WithFetcher(f Fetcher) Option {
	return func(l *Loader) { l.s3 = f }
}

func NewLoader(cfg Config, logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Pdfinfo == "" {
		cfg.Pdfinfo = "pdfinfo"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 100
	}
	if cfg.MaxImageMB <= 0 {
		cfg.MaxImageMB = constants.MaxImageMBDefault
	}
	if cfg.ArtifactCacheDir == "" {
		cfg.ArtifactCacheDir = "./tmp"
	}
	l := &Loader{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load renders path into page rasters. maxPages > 0 limits how many pages are
// rendered; TotalPages still reports the full source count.
func (l *Loader) Load(ctx context.Context, path string, maxPages int) (Document, error) {
	start := time.Now()
	source := path

	if IsRemote(path) {
		if l.s3 == nil {
			return Document{Path: source}, fmt.Errorf("remote path %q: no fetcher configured", path)
		}
		local, cleanup, err := l.s3.Fetch(ctx, path)
		if err != nil {
			return Document{Path: source}, fmt.Errorf("fetch %s: %w", path, err)
		}
		defer cleanup()
		path = local
	}

	format, err := DetectFormat(path)
	if err != nil {
		l.logger.Error("document.load.unsupported", "path", source, "error", err)
		return Document{Path: source}, err
	}
	l.logger.Debug("document.load.start", "path", source, "format", format, "max_pages", maxPages)

	var doc Document
	switch format {
	case constants.PDF:
		doc, err = l.loadPDF(ctx, path, maxPages)
	default:
		doc, err = l.loadImage(ctx, path)
	}
	doc.Path = source
	doc.Format = format
	doc.Duration = time.Since(start)
	if err != nil {
		return doc, err
	}

	l.logger.Info("document.load.ok",
		"path", source,
		"format", format,
		"total_pages", doc.TotalPages,
		"rendered_pages", len(doc.Pages),
		"duration_ms", doc.Duration.Milliseconds(),
	)
	return doc, nil
}
