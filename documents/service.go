package documents

import (
	"context"
	"strings"
)

// Service exposes the document corpus use cases.
type Service interface {
	// Scan walks the content directory and replaces the in-memory corpus.
	Scan(ctx context.Context) (*ScanSummary, error)
	// Get returns a document by route, preferring the requested locale and
	// falling back to the default locale translation.
	Get(ctx context.Context, route string, opts ...GetOption) (*Document, error)
	// GetByPath returns the document loaded from the given source path.
	GetByPath(ctx context.Context, sourcePath string) (*Document, error)
	// List returns documents matching the supplied filters, ordered by route.
	List(ctx context.Context, opts ...ListOption) ([]*Document, error)
	// Routes returns every distinct route in the corpus, sorted.
	Routes(ctx context.Context) ([]string, error)
	// Translations returns the locales available for a route, sorted.
	Translations(ctx context.Context, route string) ([]string, error)
}

// ListOption configures list behavior. It is an alias to string so call sites
// stay variadic-friendly and options serialise cleanly in config.
type ListOption = string

// GetOption configures get behavior. It reuses list option tokens.
type GetOption = ListOption

const (
	listIncludeDrafts ListOption = "documents:list:include_drafts"
	listLocalePrefix  ListOption = "documents:list:locale:"
	listSectionPrefix ListOption = "documents:list:section:"
	listTagPrefix     ListOption = "documents:list:tag:"
)

// WithDrafts includes draft documents in list results.
func WithDrafts() ListOption {
	return listIncludeDrafts
}

// InLocale restricts results to a single locale, or selects the preferred
// translation for Get calls.
func InLocale(locale string) ListOption {
	normalized := strings.ToLower(strings.TrimSpace(locale))
	if normalized == "" {
		return ""
	}
	return ListOption(string(listLocalePrefix) + normalized)
}

// InSection restricts results to routes under the given top-level section.
func InSection(section string) ListOption {
	normalized := strings.Trim(strings.TrimSpace(section), "/")
	if normalized == "" {
		return ""
	}
	return ListOption(string(listSectionPrefix) + normalized)
}

// WithTag restricts results to documents carrying the given front-matter tag.
func WithTag(tag string) ListOption {
	normalized := strings.TrimSpace(tag)
	if normalized == "" {
		return ""
	}
	return ListOption(string(listTagPrefix) + normalized)
}
