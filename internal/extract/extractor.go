// Package extract turns one page raster into a PageExtraction by prompting the
// model gateway and recovering JSON from its reply.
package extract

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/llm"
)

// DefaultTemperature keeps sampling close to deterministic.
const DefaultTemperature float32 = 0.1

type Config struct {
	Profile constants.Profile
	// Temperature nil or negative means DefaultTemperature; zero is kept for greedy decoding.
	Temperature *float32
	// Options are passed through to the gateway unchanged.
	Options map[string]any
}

type Extractor struct {
	gateway     llm.Gateway
	cfg         Config
	temperature float32
	logger      *slog.Logger
}

func NewExtractor(gateway llm.Gateway, cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Profile == "" {
		cfg.Profile = constants.ProfileFast
	}
	temp := DefaultTemperature
	if cfg.Temperature != nil && *cfg.Temperature >= 0 {
		temp = *cfg.Temperature
	}
	return &Extractor{gateway: gateway, cfg: cfg, temperature: temp, logger: logger}
}

func (e *Extractor) Profile() constants.Profile { return e.cfg.Profile }

// ExtractPage queries the gateway for one page. It never returns an error; gateway
// failures become a PageExtraction with Success=false, type "unknown" and confidence 0.
func (e *Extractor) ExtractPage(ctx context.Context, img image.Image, pageNumber int) PageExtraction {
	start := time.Now()
	logger := e.logger
	if jobID := common.JobIDFromContext(ctx); jobID != "" {
		logger = logger.With("job_id", jobID)
	}
	req := llm.Request{
		Prompt:      llm.BuildPagePrompt(e.cfg.Profile, pageNumber),
		Images:      []image.Image{img},
		MaxTokens:   e.cfg.Profile.MaxTokens(),
		Temperature: e.temperature,
		Options:     e.cfg.Options,
	}

	resp := e.gateway.Query(ctx, req)
	if !resp.OK() {
		f := resp.Failure
		if f == nil {
			f = &llm.Failure{Kind: llm.FailureUnexpectedFormat, Reason: "gateway returned an empty response"}
		}
		logger.Warn("extract.page.failed",
			"page", pageNumber,
			"kind", f.Kind,
			"reason", f.Reason,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return PageExtraction{
			Page:       pageNumber,
			Success:    false,
			Type:       string(constants.Unknown),
			Confidence: 0,
			Error:      f.Reason,
			ErrorKind:  f.Kind,
		}
	}

	rec := llm.ParseResponse(resp.Success.Content)
	fields, _ := llm.NormalizePageFields(rec.Fields, logger)
	if err := llm.ValidatePageFields(fields); err != nil {
		logger.Warn("extract.page.schema", "page", pageNumber, "error", err)
	}

	out := PageExtraction{
		Page:       pageNumber,
		Success:    true,
		Type:       llm.StringOf(fields, "type"),
		Confidence: llm.ConfidenceOf(fields),
		Fields:     fields,
		Recovery:   rec.Kind,
	}
	if rec.Degraded() {
		out.Raw = llm.StringOf(fields, "raw")
		logger.Warn("extract.page.degraded", "page", pageNumber, "recovery", rec.Kind)
	} else if !constants.IsKnownDocType(out.Type) {
		logger.Debug("extract.page.unlisted_type", "page", pageNumber, "type", out.Type)
	}

	logger.Info("extract.page.ok",
		"page", pageNumber,
		"type", out.Type,
		"confidence", out.Confidence,
		"recovery", rec.Kind,
		"tokens", resp.Success.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out
}
