package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/docintel/constants"
)

// RecoveryKind records how a page map was obtained from the model text.
type RecoveryKind string

const (
	RecoveryParsed      RecoveryKind = "parsed"       // JSON object found and decoded
	RecoveryNoJSON      RecoveryKind = "no_json"      // no brace span in the text
	RecoveryInvalidJSON RecoveryKind = "invalid_json" // brace span found but not valid JSON
)

// Degraded record policy.
const (
	ExcerptRunes             = 200
	NoJSONConfidence         = 0.6
	InvalidJSONConfidence    = 0.5
	MissingConfidenceDefault = 0.5
)

var (
	reThink = regexp.MustCompile(`(?s)<think>.*?</think>`)
	reFence = regexp.MustCompile("```json\\s*|\\s*```")
	// One level of nested braces only; {"a":{"b":{"c":1}}} does not match as a whole.
	reObject = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
)

// Recovered is the outcome of ParseResponse.
type Recovered struct {
	Fields map[string]any
	Kind   RecoveryKind
}

// Degraded reports whether Fields is a fallback record rather than model JSON.
func (r Recovered) Degraded() bool { return r.Kind != RecoveryParsed }

// StripThinking removes <think>...</think> reasoning blocks.
func StripThinking(s string) string {
	return reThink.ReplaceAllString(s, "")
}

// StripCodeFences removes Markdown fence markers (with or without a json tag).
func StripCodeFences(s string) string {
	return reFence.ReplaceAllString(s, "")
}

// FindJSONObject returns the first brace-delimited span with at most one level of
// nested objects. ok is false when there is none.
func FindJSONObject(s string) (string, bool) {
	loc := reObject.FindStringIndex(s)
	if loc == nil {
		return "", false
	}
	return s[loc[0]:loc[1]], true
}

// ParseResponse recovers a JSON object from free model text. It never fails: when
// no object can be recovered it returns a degraded record with a short excerpt.
// The returned map always carries "type" and "confidence".
func ParseResponse(raw string) Recovered {
	text := StripCodeFences(StripThinking(raw))

	span, ok := FindJSONObject(text)
	if !ok {
		return Recovered{
			Kind: RecoveryNoJSON,
			Fields: map[string]any{
				"type":         string(constants.Document),
				"confidence":   NoJSONConfidence,
				"main_content": Truncate(strings.TrimSpace(text), ExcerptRunes),
			},
		}
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(span), &m); err != nil || m == nil {
		return Recovered{
			Kind: RecoveryInvalidJSON,
			Fields: map[string]any{
				"type":       string(constants.Document),
				"confidence": InvalidJSONConfidence,
				"raw":        Truncate(strings.TrimSpace(text), ExcerptRunes),
			},
		}
	}

	if _, ok := m["type"]; !ok {
		// the verbose prompt of older deployments asked for document_type
		if dt, syn := m["document_type"].(string); syn && strings.TrimSpace(dt) != "" {
			m["type"] = dt
		} else {
			m["type"] = string(constants.Document)
		}
	}
	if _, ok := m["confidence"]; !ok {
		m["confidence"] = MissingConfidenceDefault
	}
	return Recovered{Fields: m, Kind: RecoveryParsed}
}
