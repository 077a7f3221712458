package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richText  = bluemonday.UGCPolicy()
	plainText = bluemonday.StrictPolicy()
)

// Sanitize cleans user supplied HTML, keeping safe formatting.
func Sanitize(input string) string {
	return strings.TrimSpace(richText.Sanitize(input))
}

// SanitizeText strips all markup, for single-line fields such as names and titles.
func SanitizeText(input string) string {
	return strings.TrimSpace(plainText.Sanitize(input))
}
