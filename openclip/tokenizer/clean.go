package tokenizer

import (
	"html"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// cleanText entspricht der CLIP-Textbereinigung: HTML-Entities zweifach
// auflösen, NFC-Normalisierung, Whitespace zusammenfassen, Kleinschreibung
func cleanText(s string) string {
	s = html.UnescapeString(html.UnescapeString(s))
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}
