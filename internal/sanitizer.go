package internal

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// NewSanitizer returns the policy applied to all user-supplied text
// (question text, answer text, project names) before it is persisted.
func NewSanitizer() *bluemonday.Policy {
	return bluemonday.StrictPolicy()
}

func SanitizeText(p *bluemonday.Policy, s string) string {
	return strings.TrimSpace(p.Sanitize(s))
}
