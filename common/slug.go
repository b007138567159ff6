package common

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrEmptySlug = errors.New("slug cannot be empty")
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify lowercases input and joins its alphanumeric runs with hyphens.
// fallback is used when nothing of input survives.
func Slugify(input, fallback string) (string, error) {
	slug := slugify(input)
	if slug == "" {
		slug = slugify(fallback)
	}
	if slug == "" {
		return "", ErrEmptySlug
	}
	return slug, nil
}

// ExportFilename names a download for entity, e.g. "acme-corp_mentions.csv".
func ExportFilename(entity, kind, ext string) string {
	slug, err := Slugify(entity, kind)
	if err != nil || slug == kind {
		return kind + "." + ext
	}
	return slug + "_" + kind + "." + ext
}

func slugify(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	slug := nonSlugChars.ReplaceAllString(lower, "-")
	return strings.Trim(slug, "-")
}
