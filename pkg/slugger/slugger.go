// Package slugger derives URL slugs from titles and names.
package slugger

import (
	"strings"

	"github.com/gosimple/slug"
)

// Make lower-cases s and collapses every run of separators and punctuation
// into a single hyphen. The result is deterministic for a given input.
func Make(s string) string {
	return slug.Make(strings.ReplaceAll(strings.TrimSpace(s), "_", " "))
}
