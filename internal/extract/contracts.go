package extract

import (
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/docintel/internal/llm"
)

// PageExtraction is the per-page record handed to the aggregator.
// Fields holds whatever the model returned beyond the fixed keys.
type PageExtraction struct {
	Page       int
	Success    bool
	Type       string
	Confidence float64
	Fields     map[string]any
	Raw        string

	// failure detail, set when Success is false
	Error     string
	ErrorKind llm.FailureKind

	// how Fields were recovered from the model text, set when Success is true
	Recovery llm.RecoveryKind
}

// fixed keys always written by MarshalJSON; they win over same-named entries in Fields.
var fixedKeys = []string{"page", "success", "type", "confidence", "error", "error_kind", "raw", "recovery"}

// MarshalJSON writes one flat object: Fields first, fixed keys on top.
func (p PageExtraction) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+len(fixedKeys))
	for k, v := range p.Fields {
		out[k] = v
	}
	for _, k := range fixedKeys {
		delete(out, k)
	}
	out["page"] = p.Page
	out["success"] = p.Success
	out["type"] = p.Type
	out["confidence"] = p.Confidence
	if p.Error != "" {
		out["error"] = p.Error
	}
	if p.ErrorKind != "" {
		out["error_kind"] = string(p.ErrorKind)
	}
	if p.Raw != "" {
		out["raw"] = p.Raw
	}
	if p.Recovery != "" && p.Recovery != llm.RecoveryParsed {
		out["recovery"] = string(p.Recovery)
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON; unknown keys land in Fields.
func (p *PageExtraction) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("page extraction: %w", err)
	}
	var out PageExtraction
	if v, ok := m["page"].(float64); ok {
		out.Page = int(v)
	}
	out.Success, _ = m["success"].(bool)
	out.Type = llm.StringOf(m, "type")
	out.Confidence, _ = m["confidence"].(float64)
	out.Error = llm.StringOf(m, "error")
	out.ErrorKind = llm.FailureKind(llm.StringOf(m, "error_kind"))
	out.Raw = llm.StringOf(m, "raw")
	out.Recovery = llm.RecoveryKind(llm.StringOf(m, "recovery"))
	if out.Success && out.Recovery == "" {
		out.Recovery = llm.RecoveryParsed
	}
	for _, k := range fixedKeys {
		delete(m, k)
	}
	if len(m) > 0 {
		out.Fields = m
	}
	*p = out
	return nil
}
