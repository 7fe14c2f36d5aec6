package constants

import "strings"

// DocType is the label the model assigns to a page. The set is open: the model may
// answer with anything, these are just the ones the prompts ask for.
type DocType string

const (
	Invoice  DocType = "invoice"
	Receipt  DocType = "receipt"
	Form     DocType = "form"
	Table    DocType = "table"
	Report   DocType = "report"
	Letter   DocType = "letter"
	Other    DocType = "other"
	Document DocType = "document" // generic fallback when nothing better is known
	Unknown  DocType = "unknown"  // page extraction failed
)

var knownDocTypes = []DocType{
	Invoice,
	Receipt,
	Form,
	Table,
	Report,
	Letter,
	Other,
}

// DocTypesAsString returns the labels offered to the model, slash separated.
func DocTypesAsString() string {
	out := make([]string, len(knownDocTypes))
	for i, t := range knownDocTypes {
		out[i] = string(t)
	}
	return strings.Join(out, "/")
}

// NormalizeDocType lowercases and trims a model supplied label. Empty input stays empty.
func NormalizeDocType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	// "invoice/receipt" style answers copied from the prompt: keep the first choice
	if i := strings.IndexByte(s, '/'); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

// IsKnownDocType reports whether s is one of the labels offered in the prompt.
func IsKnownDocType(s string) bool {
	for _, t := range knownDocTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}
