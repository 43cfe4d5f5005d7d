// Package citations finds statutory-article references in generated text,
// checks them against legal research and marks each occurrence inline.
package citations

import (
	"regexp"
	"strings"

	"pecajuridica-backend/models"
)

const (
	MarkerConfirmed   = "[✔ confirmado]"
	MarkerUnconfirmed = "[⚠ não confirmado]"
)

var (
	articlePattern = regexp.MustCompile(`(?i:\bart(?:igo)?\.?)\s*(\d+(?:\.\d{3})*)(?:\s*[º°])?(?:-([A-Za-z])\b)?`)
	markerPattern  = regexp.MustCompile(` ?\[(?:✔ confirmado|⚠ não confirmado)\]`)
)

// Extract returns the distinct article citations in text, in order of first
// appearance. "Art. 5" and "art.5" are the same citation.
func Extract(text string) []models.ArticleCitation {
	text = StripMarkers(text)

	var found []models.ArticleCitation
	seen := make(map[string]bool)
	for _, m := range articlePattern.FindAllStringSubmatch(text, -1) {
		key, label := identify(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		found = append(found, models.ArticleCitation{Article: label, Key: key})
	}
	return found
}

// Annotate appends a verification marker after every occurrence of a cited
// article. Markers already present are replaced, never stacked.
func Annotate(text string, cites []models.ArticleCitation) string {
	text = StripMarkers(text)
	if len(cites) == 0 {
		return text
	}

	confirmed := make(map[string]bool, len(cites))
	for _, c := range cites {
		confirmed[c.Key] = c.Confirmed
	}

	return articlePattern.ReplaceAllStringFunc(text, func(match string) string {
		key, _ := identify(articlePattern.FindStringSubmatch(match))
		ok, known := confirmed[key]
		if !known {
			return match
		}
		if ok {
			return match + " " + MarkerConfirmed
		}
		return match + " " + MarkerUnconfirmed
	})
}

// StripMarkers removes verification markers added by Annotate
func StripMarkers(text string) string {
	return markerPattern.ReplaceAllString(text, "")
}

// Key returns the dedup key for a citation such as "Art. 319" -> "art319"
func Key(citation string) string {
	m := articlePattern.FindStringSubmatch(citation)
	if m == nil {
		return ""
	}
	key, _ := identify(m)
	return key
}

func identify(m []string) (key, label string) {
	number := m[1]
	suffix := ""
	if len(m) > 2 {
		suffix = m[2]
	}

	key = "art" + strings.ReplaceAll(number, ".", "") + strings.ToLower(suffix)
	label = "Art. " + number
	if suffix != "" {
		label += "-" + strings.ToUpper(suffix)
	}
	return key, label
}
