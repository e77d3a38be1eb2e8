package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// StripTags removes every HTML element from input and returns plain text.
// bluemonday escapes what it keeps, so entities are decoded back; decoding can
// reveal escaped markup, so passes repeat until nothing changes.
func StripTags(input string) string {
	out := input
	for i := 0; i < 4; i++ {
		next := html.UnescapeString(strict.Sanitize(out))
		if next == out {
			break
		}
		out = next
	}
	return strings.TrimSpace(out)
}
