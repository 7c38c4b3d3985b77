package prompt

import "strings"

// blockedTerms must never reach the image model. The scan is a hard stop, not
// a silent edit: rewriting the text could desynchronize the prompt from the
// stated scenario parameters.
var blockedTerms = []string{
	"explosion",
	"destruction",
	"casualties",
	"violence",
	"death",
	"people",
	"human",
	"person",
	"animal",
	"wildlife",
	"injury",
	"victim",
	"destroy",
	"devastation",
}

// scanBlockedTerms returns every blocked term present in the text,
// case-insensitively, in blocklist order.
func scanBlockedTerms(text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, term := range blockedTerms {
		if strings.Contains(lower, term) {
			matched = append(matched, term)
		}
	}
	return matched
}
