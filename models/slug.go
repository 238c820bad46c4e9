package models

import (
	"regexp"
	"strings"
)

var (
	slugStrip    = regexp.MustCompile(`[^\w ]+`)
	slugSpaceRun = regexp.MustCompile(` +`)
)

// Slugify derives the URL token for a post title: lowercase, every
// character outside word characters and spaces removed, runs of spaces
// collapsed to single hyphens. Recomputed only when the title changes.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	return slugSpaceRun.ReplaceAllString(s, "-")
}
