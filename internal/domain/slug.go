package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid  = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s]+`)
)

// Slugify lowercases s, folds accented letters to ASCII, drops everything that is not a
// word character, space or hyphen and joins the remaining words with single hyphens.
// Text without any ASCII-representable letters yields "".
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range folded {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	out := slugInvalid.ReplaceAllString(strings.ToLower(b.String()), "")
	out = slugCollapse.ReplaceAllString(strings.TrimSpace(out), "-")
	return strings.Trim(out, "-_")
}

// UniqueSlug returns base, or base-1, base-2, ... whichever is the first one exists reports as free.
func UniqueSlug(base string, exists func(slug string) (bool, error)) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
