// Package slug derives URL-safe snippet identifiers from titles.
package slug

import (
	"fmt"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// suffixLength is the number of random characters appended when a stem is
// already claimed. The first snippet titled "Hello World" gets
// "hello-world"; a later one whose stem collides gets "hello-world-x7fq".
const suffixLength = 4

// suffixAlphabet is lowercase alphanumeric so the suffix reads like the rest
// of the slug.
const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var (
	// Matches spaces, underscores, and slashes (replaced with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// Normalize converts a title to its canonical slug stem.
//
// Rules:
//  1. Trim whitespace and lowercase
//  2. Replace spaces, underscores, and slashes with dashes
//  3. Remove non-alphanumeric characters (except dashes)
//  4. Collapse consecutive dashes
//  5. Trim leading/trailing dashes
//
// Examples:
//
//	"Hello World"   → "hello-world"
//	"  FizzBuzz!! " → "fizzbuzz"
//	"a_b/c"         → "a-b-c"
func Normalize(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = wordSeparatorRe.ReplaceAllString(s, "-")
	s = nonAlphanumericRe.ReplaceAllString(s, "")
	s = multipleDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// WithSuffix disambiguates a claimed stem with a random 4-character
// suffix. An empty stem (a title of all emoji, say) yields just the
// suffix. The caller decides when a suffix is needed — the normalized stem
// alone is the preferred slug.
func WithSuffix(stem string) (string, error) {
	suffix, err := gonanoid.Generate(suffixAlphabet, suffixLength)
	if err != nil {
		return "", fmt.Errorf("slug: generating suffix: %w", err)
	}

	if stem == "" {
		return suffix, nil
	}
	return stem + "-" + suffix, nil
}
