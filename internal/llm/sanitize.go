package llm

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docintel/constants"
)

// NormalizePageFields coerces a recovered page map into the shape the extractor
// reads. It works on a copy and returns the list of adjustments it made.
//   - type: trimmed, lowercased, first choice of "a/b" answers; empty -> "document"
//   - confidence: numbers-as-strings parsed, out of range values clamped to 0..1,
//     unusable or non-finite values replaced by the missing-confidence default
//     ("85%" reads as 0.85)
//   - amounts: numeric values rendered as strings, nulls dropped
//   - dates: a single string is wrapped into a list
func NormalizePageFields(in map[string]any, logger *slog.Logger) (map[string]any, []string) {
	if logger == nil {
		logger = slog.Default()
	}
	m := maps.Clone(in)
	if m == nil {
		m = map[string]any{}
	}
	changed := make([]string, 0, 4)

	// 1) type
	t, _ := m["type"].(string)
	norm := constants.NormalizeDocType(t)
	if norm == "" {
		norm = string(constants.Document)
	}
	if norm != t {
		changed = append(changed, "type")
	}
	m["type"] = norm

	// 2) confidence
	c, ok := coerceFloat(m["confidence"])
	switch {
	case !ok:
		c = MissingConfidenceDefault
		changed = append(changed, "confidence(type)")
	case c < 0:
		c = 0
		changed = append(changed, "confidence(clamped)")
	case c > 1:
		c = 1
		changed = append(changed, "confidence(clamped)")
	}
	m["confidence"] = c

	// 3) amounts
	if am, ok := m["amounts"].(map[string]any); ok {
		am = maps.Clone(am)
		for k, v := range am {
			switch tv := v.(type) {
			case nil:
				delete(am, k)
				changed = append(changed, "amounts."+k+"(null)")
			case float64:
				am[k] = strconv.FormatFloat(tv, 'f', -1, 64)
				changed = append(changed, "amounts."+k)
			case string:
				am[k] = strings.TrimSpace(tv)
			}
		}
		m["amounts"] = am
	}

	// 4) dates
	if s, ok := m["dates"].(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			m["dates"] = []any{s}
		} else {
			m["dates"] = []any{}
		}
		changed = append(changed, "dates(wrapped)")
	}

	if len(changed) > 0 {
		logger.Debug("llm.normalize.page_fields", "changed", changed)
	}
	return m, changed
}

// coerceFloat reads a confidence-like value. NaN and infinities are rejected.
func coerceFloat(v any) (float64, bool) {
	f, ok := rawFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func rawFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		if strings.HasSuffix(strings.TrimSpace(t), "%") {
			f = f / 100
		}
		return f, true
	}
	return 0, false
}

// ConfidenceOf returns the confidence stored in a normalized page map.
func ConfidenceOf(m map[string]any) float64 {
	if c, ok := coerceFloat(m["confidence"]); ok {
		return c
	}
	return MissingConfidenceDefault
}

// StringOf returns m[key] as a string, formatting non-string scalars.
func StringOf(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
