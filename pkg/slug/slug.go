// Package slug derives filesystem-safe filename fragments from free-form
// prompts.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxLen = 20

var stripAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FromPrompt turns the leading part of a prompt into a short lowercase slug.
// Accented letters are folded to ASCII first so prompts in any Latin script
// produce readable filenames. Empty or unusable prompts become "untitled".
func FromPrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if folded, _, err := transform.String(stripAccents, prompt); err == nil {
		prompt = folded
	}
	if len(prompt) > maxLen {
		prompt = prompt[:maxLen]
	}

	var b strings.Builder
	for _, r := range strings.ToLower(prompt) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "untitled"
	}
	return out
}
