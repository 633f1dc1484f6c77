package render

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/flosch/pongo2/v6"
)

const (
	defaultDateLayout    = "January 2, 2006"
	defaultExcerptLength = 160
)

func (r *Renderer) registerBuiltinFilters() error {
	filters := map[string]pongo2.FilterFunction{
		"relurl":  r.relurlFilter(),
		"datefmt": datefmtFilter,
		"excerpt": excerptFilter,
	}
	for name, fn := range filters {
		if err := registerOrReplaceFilter(name, fn); err != nil {
			return fmt.Errorf("render: register filter %s: %w", name, err)
		}
	}
	return nil
}

func registerOrReplaceFilter(name string, fn pongo2.FilterFunction) error {
	if err := pongo2.RegisterFilter(name, fn); err != nil {
		return pongo2.ReplaceFilter(name, fn)
	}
	return nil
}

func adaptFilter(fn func(input any, param any) (any, error)) pongo2.FilterFunction {
	return func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		out, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter", OrigError: err}
		}
		return pongo2.AsValue(out), nil
	}
}

// relurl turns a site-relative path into a servable URL: base URL prefix,
// then the locale segment when the parameter names a non-default locale.
//
//	{{ "/guides/install/" | relurl:page.Locale }}
func (r *Renderer) relurlFilter() pongo2.FilterFunction {
	return func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		target := strings.TrimSpace(in.String())
		if target == "" {
			return pongo2.AsValue(r.baseURL + "/"), nil
		}
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
			return pongo2.AsValue(target), nil
		}

		locale := ""
		if param != nil {
			locale = strings.TrimSpace(param.String())
		}
		prefix := ""
		if locale != "" && !strings.EqualFold(locale, r.defaultLocale) {
			prefix = "/" + locale
		}
		if !strings.HasPrefix(target, "/") {
			target = "/" + target
		}
		return pongo2.AsValue(r.baseURL + prefix + target), nil
	}
}

// datefmt formats time.Time values with a Go layout, defaulting to a long
// human date. Zero times render empty so missing dates stay invisible.
//
//	{{ page.Date | datefmt:"Jan 2, 2006" }}
func datefmtFilter(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	value, ok := in.Interface().(time.Time)
	if !ok {
		if ptr, isPtr := in.Interface().(*time.Time); isPtr && ptr != nil {
			value = *ptr
			ok = true
		}
	}
	if !ok {
		return nil, &pongo2.Error{
			Sender:    "filter:datefmt",
			OrigError: fmt.Errorf("expected time.Time, got %T", in.Interface()),
		}
	}
	if value.IsZero() {
		return pongo2.AsValue(""), nil
	}

	layout := defaultDateLayout
	if param != nil {
		if custom := strings.TrimSpace(param.String()); custom != "" {
			layout = custom
		}
	}
	return pongo2.AsValue(value.Format(layout)), nil
}

// excerpt truncates text at a word boundary, appending an ellipsis when the
// input was cut. Markup is stripped first so HTML bodies are safe inputs.
//
//	{{ page.Summary | excerpt:120 }}
func excerptFilter(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	text := collapseWhitespace(stripMarkup(in.String()))

	limit := defaultExcerptLength
	if param != nil && param.IsInteger() {
		if n := param.Integer(); n > 0 {
			limit = n
		}
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return pongo2.AsValue(text), nil
	}

	cut := string(runes[:limit])
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	return pongo2.AsValue(strings.TrimRight(cut, " ,;:.") + "..."), nil
}

func stripMarkup(input string) string {
	if !strings.ContainsRune(input, '<') {
		return input
	}
	var b strings.Builder
	b.Grow(len(input))
	inTag := false
	for _, r := range input {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
