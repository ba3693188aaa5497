package compose

import (
	"fmt"
	"regexp"
	"strings"
)

const maxSlugLen = 50

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
)

// Slugify derives a URL-safe slug from a title: lowercase, strip everything
// but letters, digits, spaces, and hyphens, collapse whitespace to single
// hyphens, trim edge hyphens, and cap at 50 characters.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugWhitespace.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// slugChecker reports whether a slug is taken by a post other than excludeID.
type slugChecker interface {
	SlugExists(slug, excludeID string) (bool, error)
}

// uniqueSlug returns base if free, otherwise appends -2, -3, ... trimming the
// base so the result stays within the length cap. The first writer keeps the
// bare slug.
func uniqueSlug(store slugChecker, base, postID string) (string, error) {
	taken, err := store.SlugExists(base, postID)
	if err != nil {
		return "", fmt.Errorf("checking slug %q: %w", base, err)
	}
	if !taken {
		return base, nil
	}

	for n := 2; ; n++ {
		suffix := fmt.Sprintf("-%d", n)
		trimmed := base
		if len(trimmed)+len(suffix) > maxSlugLen {
			trimmed = strings.TrimRight(trimmed[:maxSlugLen-len(suffix)], "-")
		}
		candidate := trimmed + suffix

		taken, err := store.SlugExists(candidate, postID)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
}
