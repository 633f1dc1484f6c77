package nav

import "strings"

// ResolveRequest carries the context a URL resolver needs to build a node
// href.
type ResolveRequest struct {
	Route  string
	Locale string
}

// URLResolver allows callers to override how navigation hrefs are generated.
type URLResolver interface {
	Resolve(req ResolveRequest) (string, error)
}

// relativeURLResolver emits root-relative clean URLs. Non-default locales
// are prefixed with their lowercase code.
type relativeURLResolver struct {
	defaultLocale string
}

func (r relativeURLResolver) Resolve(req ResolveRequest) (string, error) {
	base := "/"
	locale := strings.ToLower(strings.TrimSpace(req.Locale))
	if locale != "" && !strings.EqualFold(locale, r.defaultLocale) {
		base += locale + "/"
	}
	if req.Route == "" {
		return base, nil
	}
	return base + req.Route + "/", nil
}
