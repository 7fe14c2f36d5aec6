package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/extract"
)

// NeutralConfidence is reported when no page succeeded.
const NeutralConfidence = 0.6

// confidencePrecision is the number of decimals kept in the aggregate.
const confidencePrecision = 2

// BoundPages returns how many of total pages the profile sends to the model.
func BoundPages(total, limit int) int {
	if limit > 0 && total > limit {
		return limit
	}
	return total
}

// SelectDocumentType picks the type of the first successful page in page order.
func SelectDocumentType(pages []extract.PageExtraction) string {
	for _, p := range pages {
		if p.Success && strings.TrimSpace(p.Type) != "" {
			return p.Type
		}
	}
	return string(constants.Document)
}

// AggregateConfidence is the mean confidence of successful pages, rounded.
func AggregateConfidence(pages []extract.PageExtraction) float64 {
	var sum float64
	n := 0
	for _, p := range pages {
		if !p.Success {
			continue
		}
		sum += p.Confidence
		n++
	}
	if n == 0 {
		return NeutralConfidence
	}
	return roundTo(sum/float64(n), confidencePrecision)
}

// ClassifyOutcome tells complete, partial and failed documents apart.
func ClassifyOutcome(pages []extract.PageExtraction) constants.Outcome {
	ok := 0
	for _, p := range pages {
		if p.Success {
			ok++
		}
	}
	switch {
	case ok == 0:
		return constants.OutcomeFailed
	case ok < len(pages):
		return constants.OutcomePartial
	default:
		return constants.OutcomeComplete
	}
}

// ProfileNote describes the profile and whether pages were dropped.
func ProfileNote(profile constants.Profile, truncated bool) string {
	if profile == constants.ProfileThorough {
		return "Thorough mode"
	}
	if truncated {
		return fmt.Sprintf("Fast mode - first %d pages only", profile.PageLimit())
	}
	return "Fast mode"
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
