package site

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9\-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

// MakeSlug turns a business name into a URL-safe slug.
// Example: "Blue Door Bakery" -> "blue-door-bakery"
func MakeSlug(name string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = strings.ReplaceAll(base, " ", "-")
	base = nonSlug.ReplaceAllString(base, "")
	base = multiDash.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if base == "" {
		base = "site"
	}
	return base
}

// UniqueSlug appends a short suffix of the site id so two sites with the
// same name never collide.
func UniqueSlug(name, siteID string) string {
	suffix := strings.ReplaceAll(siteID, "-", "")
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return fmt.Sprintf("%s-%s", MakeSlug(name), suffix)
}

// ValidSlug reports whether a user-chosen slug is acceptable as-is.
func ValidSlug(slug string) bool {
	return slug != "" && len(slug) <= 63 && MakeSlug(slug) == slug
}

// BuildPublicURL builds the public site URL from a slug.
func BuildPublicURL(appURL, slug string) string {
	return strings.TrimRight(appURL, "/") + "/s/" + slug
}
