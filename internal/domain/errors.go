package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidScenario = errors.New("invalid scenario request")
	ErrJobNotTerminal  = errors.New("job not terminal")
	ErrProviderFailure = errors.New("provider failure")
)

// PromptSafetyError reports the blocked terms that caused prompt composition
// to fail. Composition is a hard stop on a match, never a silent rewrite.
type PromptSafetyError struct {
	Viewpoint Viewpoint
	Terms     []string
}

func (e *PromptSafetyError) Error() string {
	return fmt.Sprintf("prompt for %s viewpoint contains blocked terms: %s",
		e.Viewpoint, strings.Join(e.Terms, ", "))
}
