package builder

import (
	"path"
	"strings"
)

// outputPath maps a route and locale onto the file a page is written to.
// The default locale lives at the output root; other locales are prefixed
// with their code. Clean URLs place each page in its own directory so web
// servers resolve /guides/intro/; without them pages are flat .html files.
// The home page is always index.html.
func outputPath(route, locale, defaultLocale string, cleanURLs bool) string {
	clean := strings.Trim(strings.ReplaceAll(strings.TrimSpace(route), "\\", "/"), "/")

	prefix := ""
	if code := strings.ToLower(strings.TrimSpace(locale)); code != "" && !strings.EqualFold(code, strings.TrimSpace(defaultLocale)) {
		prefix = code
	}

	if clean == "" {
		return path.Join(prefix, "index.html")
	}
	if cleanURLs {
		return path.Join(prefix, clean, "index.html")
	}
	return path.Join(prefix, clean+".html")
}
