package meta

import (
	"regexp"
	"strings"
)

// Model output arrives in standard markdown; WhatsApp speaks its own dialect
// (single asterisks for bold, no headers).

var (
	boldPattern   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	headerPattern = regexp.MustCompile(`(?m)^#{1,6}\s*`)
)

// CleanForWhatsApp converts markdown bold to WhatsApp bold and strips header
// markers.
func CleanForWhatsApp(text string) string {
	text = boldPattern.ReplaceAllString(text, "*$1*")
	text = headerPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
