package sections

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	enumeration     = regexp.MustCompile(`^(?:\d+(?:\.\d+)*|[IVXLCDM]+)\s*[.)\-–—:]\s+`)
)

// StripAccents removes combining marks: "Fundamentação" -> "Fundamentacao"
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeKey folds a heading or identifier into a comparable key:
// accents stripped, lowercased, runs of non-alphanumerics collapsed to "_".
func NormalizeKey(s string) string {
	key := strings.ToLower(StripAccents(s))
	key = nonAlphanumeric.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}

// cleanHeading drops markdown emphasis and a leading enumeration from a heading title
func cleanHeading(title string) string {
	title = strings.TrimSpace(title)
	title = strings.Trim(title, "*_ ")
	title = enumeration.ReplaceAllString(title, "")
	return strings.TrimSpace(strings.Trim(title, "*_ "))
}
