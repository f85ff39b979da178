package entity

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText trims surrounding whitespace and applies NFC normalization.
// All user-entered text passes through here before storage so that string
// equality is stable across Unicode encoding forms.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// RequireText normalizes s and returns a VALIDATION_ERROR if the result is
// empty. field names the offending input in the error message.
func RequireText(field, s string) (string, error) {
	n := NormalizeText(s)
	if n == "" {
		return "", NewValidation(field + " must not be empty")
	}
	return n, nil
}
