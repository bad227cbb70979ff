package articles

import (
	"regexp"
	"strings"
)

var (
	wordSeparatorRe   = regexp.MustCompile(`[\s_/]+`)
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	multipleDashRe    = regexp.MustCompile(`-+`)
)

// Slugify converts an article title to its public slug: lowercase, dashes for
// word separators, everything else stripped. Because the slug is derived from
// the globally unique title, the slug carries its own unique index as well.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = wordSeparatorRe.ReplaceAllString(s, "-")
	s = nonAlphanumericRe.ReplaceAllString(s, "")
	s = multipleDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
