package core

import (
	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/extract"
)

// DocumentResult is the document-level record returned to callers.
type DocumentResult struct {
	DocumentType     string                 `json:"document_type"`
	TotalPages       int                    `json:"total_pages"`
	ProcessedPages   int                    `json:"processed_pages"`
	Confidence       float64                `json:"confidence"`
	ExtractedContent ExtractedContent       `json:"extracted_content"`
	Status           constants.ResultStatus `json:"status"`
	Outcome          constants.Outcome      `json:"outcome"`
	Note             string                 `json:"note,omitempty"`
	Profile          constants.Profile      `json:"profile,omitempty"`
}

type ExtractedContent struct {
	Pages []extract.PageExtraction `json:"pages"`
}

// SucceededPages counts pages with Success=true.
func (r DocumentResult) SucceededPages() int {
	n := 0
	for _, p := range r.ExtractedContent.Pages {
		if p.Success {
			n++
		}
	}
	return n
}
