package entity

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`\W+`)

const slugMaxLen = 30

// Slugify lowercases the seed, collapses every non-word run to a single
// dash, and truncates to 30 characters. Used for the human-readable
// part of entity file names.
func Slugify(seed string) string {
	slug := strings.Join(nonWord.Split(strings.ToLower(seed), -1), "-")
	if len(slug) > slugMaxLen {
		slug = slug[:slugMaxLen]
	}
	return strings.Trim(slug, "-")
}

// RandomColor picks a random background color and a readable foreground
// for it: white text on dark backgrounds, black on light ones.
func RandomColor() (fg, bg string) {
	r := rand.Intn(256)
	g := rand.Intn(256)
	b := rand.Intn(256)
	fg = "#000000"
	if (r+g+b)/3 < 150 {
		fg = "#ffffff"
	}
	return fg, fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
