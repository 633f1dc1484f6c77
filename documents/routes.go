package documents

import (
	"path"
	"strings"

	slug "github.com/goliatone/go-slug"

	"github.com/goliatone/go-docsite/internal/markdown"
)

// RouteForPath derives the site route and locale for a Markdown source path.
// Locale suffixes are stripped first ("graphs/intro.ru.md" shares the route of
// "graphs/intro.md"), "index" and "README" leaves collapse into their parent
// directory, and every remaining segment is slug-normalised. The empty route
// identifies the site home page.
func RouteForPath(sourcePath string, locales []string) (string, string) {
	cleaned := strings.TrimSpace(sourcePath)
	if cleaned == "" {
		return "", ""
	}
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	cleaned = path.Clean(cleaned)
	cleaned = strings.TrimPrefix(cleaned, "./")

	base, locale := markdown.SplitLocaleSuffix(cleaned, locales)

	ext := strings.ToLower(path.Ext(base))
	stem := base
	if ext == ".md" || ext == ".markdown" {
		stem = base[:len(base)-len(ext)]
	}

	segments := strings.Split(stem, "/")
	if len(segments) > 0 {
		leaf := strings.ToLower(segments[len(segments)-1])
		if leaf == "index" || leaf == "readme" {
			segments = segments[:len(segments)-1]
		}
	}

	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" || segment == "." {
			continue
		}
		parts = append(parts, slugSegment(segment))
	}
	return strings.Join(parts, "/"), locale
}

// SectionOf returns the top-level section a route belongs to. Top-level
// routes are their own section; the home page has none.
func SectionOf(route string) string {
	route = strings.Trim(strings.TrimSpace(route), "/")
	if route == "" {
		return ""
	}
	if idx := strings.Index(route, "/"); idx > 0 {
		return route[:idx]
	}
	return route
}

// TitleForRoute produces a readable fallback title from the last route
// segment when neither front matter nor the document body supply one.
func TitleForRoute(route string) string {
	route = strings.Trim(strings.TrimSpace(route), "/")
	if route == "" {
		return "Home"
	}
	leaf := route
	if idx := strings.LastIndex(route, "/"); idx >= 0 {
		leaf = route[idx+1:]
	}
	words := strings.FieldsFunc(leaf, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func slugSegment(segment string) string {
	normalized, err := slug.Normalize(segment)
	if err != nil || normalized == "" {
		return strings.ToLower(strings.TrimSpace(segment))
	}
	return normalized
}
