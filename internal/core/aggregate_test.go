package core

import (
	"testing"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/extract"
)

func page(n int, ok bool, typ string, conf float64) extract.PageExtraction {
	return extract.PageExtraction{Page: n, Success: ok, Type: typ, Confidence: conf}
}

func TestAggregateConfidence(t *testing.T) {
	tests := []struct {
		name  string
		pages []extract.PageExtraction
		want  float64
	}{
		{name: "single", pages: []extract.PageExtraction{page(1, true, "invoice", 0.9)}, want: 0.9},
		{name: "mean rounded", pages: []extract.PageExtraction{page(1, true, "a", 0.9), page(2, true, "a", 0.8), page(3, true, "a", 0.85)}, want: 0.85},
		{name: "rounded to two places", pages: []extract.PageExtraction{page(1, true, "a", 0.333), page(2, true, "a", 0.334)}, want: 0.33},
		{name: "failures ignored", pages: []extract.PageExtraction{page(1, false, "unknown", 0), page(2, true, "a", 0.7)}, want: 0.7},
		{name: "no successes", pages: []extract.PageExtraction{page(1, false, "unknown", 0), page(2, false, "unknown", 0)}, want: NeutralConfidence},
		{name: "no pages", pages: nil, want: NeutralConfidence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AggregateConfidence(tt.pages); got != tt.want {
				t.Errorf("AggregateConfidence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectDocumentType(t *testing.T) {
	tests := []struct {
		name  string
		pages []extract.PageExtraction
		want  string
	}{
		{name: "first success", pages: []extract.PageExtraction{page(1, true, "invoice", 0.9), page(2, true, "table", 0.9)}, want: "invoice"},
		{name: "skips failures", pages: []extract.PageExtraction{page(1, false, "unknown", 0), page(2, true, "receipt", 0.9)}, want: "receipt"},
		{name: "skips empty type", pages: []extract.PageExtraction{page(1, true, "", 0.9), page(2, true, "letter", 0.9)}, want: "letter"},
		{name: "all failed", pages: []extract.PageExtraction{page(1, false, "unknown", 0)}, want: "document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectDocumentType(tt.pages); got != tt.want {
				t.Errorf("SelectDocumentType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyOutcome(t *testing.T) {
	tests := []struct {
		name  string
		pages []extract.PageExtraction
		want  constants.Outcome
	}{
		{name: "complete", pages: []extract.PageExtraction{page(1, true, "a", 1)}, want: constants.OutcomeComplete},
		{name: "partial", pages: []extract.PageExtraction{page(1, true, "a", 1), page(2, false, "unknown", 0)}, want: constants.OutcomePartial},
		{name: "failed", pages: []extract.PageExtraction{page(1, false, "unknown", 0)}, want: constants.OutcomeFailed},
		{name: "empty", pages: nil, want: constants.OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyOutcome(tt.pages); got != tt.want {
				t.Errorf("ClassifyOutcome() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBoundPages(t *testing.T) {
	tests := []struct{ total, limit, want int }{
		{5, 3, 3},
		{2, 3, 2},
		{5, 0, 5},
		{0, 3, 0},
	}
	for _, tt := range tests {
		if got := BoundPages(tt.total, tt.limit); got != tt.want {
			t.Errorf("BoundPages(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}
