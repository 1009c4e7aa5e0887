// Package sanitize cleans user supplied text before it is stored or anchored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// Sanitizer strips markup from free text and normalizes it to NFC so the same
// visible text always yields the same bytes on the ledger.
type Sanitizer interface {
	Text(s string) string
	Email(s string) string
}

type sanitizerImpl struct {
	policy *bluemonday.Policy
}

func NewSanitizer() Sanitizer {
	return &sanitizerImpl{policy: bluemonday.StrictPolicy()}
}

func (s *sanitizerImpl) Text(in string) string {
	if in == "" {
		return ""
	}
	// StrictPolicy escapes entities, undo that so "A & B" stays readable.
	out := html.UnescapeString(s.policy.Sanitize(in))
	return strings.TrimSpace(norm.NFC.String(out))
}

// Email lower-cases and trims an address. Authors are deduplicated on the
// result.
func (s *sanitizerImpl) Email(in string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(in)))
}
