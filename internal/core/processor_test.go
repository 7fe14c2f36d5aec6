package core

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/document"
	"github.com/joseph-ayodele/docintel/internal/extract"
	"github.com/joseph-ayodele/docintel/internal/llm"
)

func whitePages(n int) []document.Page {
	pages := make([]document.Page, n)
	for i := range pages {
		img := image.NewRGBA(image.Rect(0, 0, 80, 40))
		draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
		pages[i] = document.Page{Number: i + 1, Image: img}
	}
	return pages
}

func newProcessor(gw llm.Gateway, profile constants.Profile, cfg Config) *Processor {
	ex := extract.NewExtractor(gw, extract.Config{Profile: profile}, nil)
	return NewProcessor(nil, ex, cfg, nil)
}

func TestProcessDocument_InvoiceScenario(t *testing.T) {
	gw := llm.GatewayFunc(func(ctx context.Context, req llm.Request) llm.Response {
		return llm.Succeeded(`{"type":"invoice","confidence":0.9,"main_content":"INVOICE #123 Total: $500", "amounts":{"total":"$500"}}`, "stub", llm.Usage{})
	})
	p := newProcessor(gw, constants.ProfileFast, Config{})

	got := p.ProcessDocument(context.Background(), whitePages(1), 1)

	if got.DocumentType != "invoice" {
		t.Errorf("DocumentType = %q, want invoice", got.DocumentType)
	}
	if got.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", got.Confidence)
	}
	if got.ProcessedPages != 1 || got.TotalPages != 1 {
		t.Errorf("pages = %d/%d, want 1/1", got.ProcessedPages, got.TotalPages)
	}
	if got.Status != constants.ResultStatusSuccess || got.Outcome != constants.OutcomeComplete {
		t.Errorf("status/outcome = %s/%s, want success/complete", got.Status, got.Outcome)
	}
	if got.Note != "Fast mode" {
		t.Errorf("Note = %q, want %q", got.Note, "Fast mode")
	}
	amounts, _ := got.ExtractedContent.Pages[0].Fields["amounts"].(map[string]any)
	if amounts["total"] != "$500" {
		t.Errorf("amounts.total = %v, want $500", amounts["total"])
	}
}

func TestProcessDocument_NonFiniteConfidenceStillEncodes(t *testing.T) {
	replies := []string{
		`{"type":"invoice","confidence":"NaN"}`,
		`{"type":"invoice","confidence":"Inf"}`,
		`{"type":"invoice","confidence":0.8}`,
	}
	var calls atomic.Int32
	gw := llm.GatewayFunc(func(ctx context.Context, req llm.Request) llm.Response {
		n := int(calls.Add(1)) - 1
		return llm.Succeeded(replies[n%len(replies)], "stub", llm.Usage{})
	})
	p := newProcessor(gw, constants.ProfileFast, Config{})

	got := p.ProcessDocument(context.Background(), whitePages(3), 3)

	for _, pg := range got.ExtractedContent.Pages {
		if pg.Confidence < 0 || pg.Confidence > 1 {
			t.Errorf("page %d confidence = %v, want within [0,1]", pg.Page, pg.Confidence)
		}
	}
	want := roundTo((llm.MissingConfidenceDefault*2+0.8)/3, 2)
	if got.Confidence != want {
		t.Errorf("Confidence = %v, want %v", got.Confidence, want)
	}

	b, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("json.Marshal(DocumentResult) error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if decoded["confidence"] != want {
		t.Errorf("encoded confidence = %v, want %v", decoded["confidence"], want)
	}
}

func TestProcessDocument_BoundedProfile(t *testing.T) {
	var calls atomic.Int32
	gw := llm.GatewayFunc(func(ctx context.Context, req llm.Request) llm.Response {
		calls.Add(1)
		return llm.Succeeded(`{"type":"report","confidence":0.8}`, "stub", llm.Usage{})
	})

	tests := []struct {
		name          string
		profile       constants.Profile
		pages         int
		totalPages    int
		wantProcessed int
		wantTotal     int
		wantNote      string
	}{
		{name: "fast truncates", profile: constants.ProfileFast, pages: 5, totalPages: 5, wantProcessed: 3, wantTotal: 5, wantNote: "Fast mode - first 3 pages only"},
		{name: "fast with pre-bounded pages", profile: constants.ProfileFast, pages: 3, totalPages: 12, wantProcessed: 3, wantTotal: 12, wantNote: "Fast mode - first 3 pages only"},
		{name: "fast under limit", profile: constants.ProfileFast, pages: 2, totalPages: 2, wantProcessed: 2, wantTotal: 2, wantNote: "Fast mode"},
		{name: "thorough all", profile: constants.ProfileThorough, pages: 5, totalPages: 5, wantProcessed: 5, wantTotal: 5, wantNote: "Thorough mode"},
		{name: "total below rendered", profile: constants.ProfileThorough, pages: 4, totalPages: 0, wantProcessed: 4, wantTotal: 4, wantNote: "Thorough mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls.Store(0)
			p := newProcessor(gw, tt.profile, Config{})
			got := p.ProcessDocument(context.Background(), whitePages(tt.pages), tt.totalPages)

			if got.ProcessedPages != tt.wantProcessed {
				t.Errorf("ProcessedPages = %d, want %d", got.ProcessedPages, tt.wantProcessed)
			}
			if got.TotalPages != tt.wantTotal {
				t.Errorf("TotalPages = %d, want %d", got.TotalPages, tt.wantTotal)
			}
			if int(calls.Load()) != tt.wantProcessed {
				t.Errorf("gateway calls = %d, want %d", calls.Load(), tt.wantProcessed)
			}
			if got.Note != tt.wantNote {
				t.Errorf("Note = %q, want %q", got.Note, tt.wantNote)
			}
			if len(got.ExtractedContent.Pages) != tt.wantProcessed {
				t.Errorf("ExtractedContent.Pages = %d, want %d", len(got.ExtractedContent.Pages), tt.wantProcessed)
			}
		})
	}
}

func TestProcessDocument_AllPagesTimeout(t *testing.T) {
	gw := llm.GatewayFunc(func(ctx context.Context, req llm.Request) llm.Response {
		return llm.Failed(llm.FailureTimeout, "Request timeout after 120s")
	})

	tests := []struct {
		name       string
		strict     bool
		wantStatus constants.ResultStatus
	}{
		{name: "compat status", strict: false, wantStatus: constants.ResultStatusSuccess},
		{name: "strict status", strict: true, wantStatus: constants.ResultStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProcessor(gw, constants.ProfileThorough, Config{StrictStatus: tt.strict})
			got := p.ProcessDocument(context.Background(), whitePages(3), 3)

			for _, pg := range got.ExtractedContent.Pages {
				if pg.Success {
					t.Errorf("page %d success = true, want false", pg.Page)
				}
				if pg.ErrorKind != llm.FailureTimeout {
					t.Errorf("page %d error kind = %q, want timeout", pg.Page, pg.ErrorKind)
				}
			}
			if got.Confidence != NeutralConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, NeutralConfidence)
			}
			if got.DocumentType != "document" {
				t.Errorf("DocumentType = %q, want document", got.DocumentType)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if got.Outcome != constants.OutcomeFailed {
				t.Errorf("Outcome = %q, want failed", got.Outcome)
			}
		})
	}
}

func TestProcessDocument_ConcurrentKeepsPageOrder(t *testing.T) {
	// later pages answer first
	gw := llm.GatewayFunc(func(ctx context.Context, req llm.Request) llm.Response {
		if req.Prompt == llm.BuildPagePrompt(constants.ProfileThorough, 1) {
			time.Sleep(30 * time.Millisecond)
			return llm.Succeeded(`{"type":"invoice","confidence":0.9}`, "stub", llm.Usage{})
		}
		return llm.Succeeded(`{"type":"table","confidence":0.7}`, "stub", llm.Usage{})
	})
	p := newProcessor(gw, constants.ProfileThorough, Config{Concurrency: 4})

	got := p.ProcessDocument(context.Background(), whitePages(4), 4)

	for i, pg := range got.ExtractedContent.Pages {
		if pg.Page != i+1 {
			t.Errorf("slot %d holds page %d", i, pg.Page)
		}
	}
	if got.DocumentType != "invoice" {
		t.Errorf("DocumentType = %q, want invoice (page order, not completion order)", got.DocumentType)
	}
	if got.Confidence != 0.75 {
		t.Errorf("Confidence = %v, want 0.75", got.Confidence)
	}
}

func TestProcessDocument_ConcurrencyLimit(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0
	gw := llm.GatewayFunc(func(ctx context.Context, req llm.Request) llm.Response {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return llm.Succeeded(`{"type":"form","confidence":0.5}`, "stub", llm.Usage{})
	})
	p := newProcessor(gw, constants.ProfileThorough, Config{Concurrency: 2})
	p.ProcessDocument(context.Background(), whitePages(6), 6)

	if peak > 2 {
		t.Errorf("peak concurrent calls = %d, want <= 2", peak)
	}
}

func TestProcessDocument_CancelledContext(t *testing.T) {
	var calls atomic.Int32
	gw := llm.GatewayFunc(func(ctx context.Context, req llm.Request) llm.Response {
		calls.Add(1)
		return llm.Succeeded(`{"type":"form","confidence":0.5}`, "stub", llm.Usage{})
	})
	p := newProcessor(gw, constants.ProfileThorough, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := p.ProcessDocument(ctx, whitePages(2), 2)

	if calls.Load() != 0 {
		t.Errorf("gateway calls = %d, want 0", calls.Load())
	}
	if got.ProcessedPages != 2 {
		t.Errorf("ProcessedPages = %d, want 2", got.ProcessedPages)
	}
	for _, pg := range got.ExtractedContent.Pages {
		if pg.Success || pg.ErrorKind != llm.FailureCancelled {
			t.Errorf("page %d = %+v, want cancelled failure", pg.Page, pg)
		}
	}
}

type stubLoader struct {
	doc      document.Document
	err      error
	maxPages int
}

func (s *stubLoader) Load(_ context.Context, path string, maxPages int) (document.Document, error) {
	s.maxPages = maxPages
	s.doc.Path = path
	return s.doc, s.err
}

func TestProcessFile(t *testing.T) {
	gw := llm.GatewayFunc(func(ctx context.Context, req llm.Request) llm.Response {
		return llm.Succeeded(`{"type":"receipt","confidence":0.66}`, "stub", llm.Usage{})
	})
	ex := extract.NewExtractor(gw, extract.Config{Profile: constants.ProfileFast}, nil)

	t.Run("ok", func(t *testing.T) {
		loader := &stubLoader{doc: document.Document{Pages: whitePages(3), TotalPages: 9}}
		p := NewProcessor(loader, ex, Config{}, nil)

		got, err := p.ProcessFile(context.Background(), "scan.pdf")
		if err != nil {
			t.Fatalf("ProcessFile() error = %v", err)
		}
		if loader.maxPages != constants.FastPageLimit {
			t.Errorf("loader maxPages = %d, want %d", loader.maxPages, constants.FastPageLimit)
		}
		if got.TotalPages != 9 || got.ProcessedPages != 3 {
			t.Errorf("pages = %d/%d, want 3/9", got.ProcessedPages, got.TotalPages)
		}
		if got.DocumentType != "receipt" || got.Confidence != 0.66 {
			t.Errorf("result = %s %v", got.DocumentType, got.Confidence)
		}
	})

	t.Run("load error", func(t *testing.T) {
		want := errors.New("pdftoppm: exit status 1")
		p := NewProcessor(&stubLoader{err: want}, ex, Config{}, nil)

		if _, err := p.ProcessFile(context.Background(), "broken.pdf"); !errors.Is(err, want) {
			t.Errorf("ProcessFile() error = %v, want %v", err, want)
		}
	})
}
