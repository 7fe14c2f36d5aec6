package llm

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docintel/constants"
)

// BuildPagePrompt returns the per-page instruction for profile. The text only
// depends on the profile and the page number so repeated runs send identical prompts.
func BuildPagePrompt(profile constants.Profile, pageNumber int) string {
	if profile == constants.ProfileThorough {
		return buildThoroughPrompt(pageNumber)
	}
	return buildFastPrompt()
}

func buildFastPrompt() string {
	var b strings.Builder
	b.WriteString("Analyze this document. Return JSON only:\n\n")
	b.WriteString("{\n")
	b.WriteString(`  "type": "` + constants.DocTypesAsString() + `",` + "\n")
	b.WriteString(`  "confidence": 0.9,` + "\n")
	b.WriteString(`  "main_content": "brief summary",` + "\n")
	b.WriteString(`  "key_data": {"field": "value"},` + "\n")
	b.WriteString(`  "amounts": {"total": ""},` + "\n")
	b.WriteString(`  "dates": [""]` + "\n")
	b.WriteString("}\n\n")
	b.WriteString("Be concise. JSON only, no explanation.")
	return b.String()
}

func buildThoroughPrompt(pageNumber int) string {
	parts := []string{
		fmt.Sprintf("Analyze this document page %d and extract ALL information in JSON format.", pageNumber),
		"",
		"Provide:",
		"{",
		`  "type": "` + constants.DocTypesAsString() + `",`,
		`  "confidence": 0.0-1.0,`,
		`  "main_content": "all readable text, summarized",`,
		`  "key_data": {"field_name": "value"},`,
		`  "tables": [{"description": "table description", "data": []}],`,
		`  "amounts": {"subtotal": "", "tax": "", "total": ""},`,
		`  "dates": [],`,
		`  "important_info": []`,
		"}",
		"",
		"Use ISO-8601 dates (YYYY-MM-DD) when the date is unambiguous.",
		"Keep amounts as they appear on the page, including the currency symbol.",
		"Extract EVERYTHING you see. Return ONLY valid JSON, no explanation.",
	}
	return strings.Join(parts, "\n")
}
