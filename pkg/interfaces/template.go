package interfaces

import (
	"context"
)

// TemplateRenderer renders named templates from the configured template set.
// Implementations must not write files; callers own persistence.
type TemplateRenderer interface {
	// Render executes the named template. Unknown names fall back to the
	// default page template so a thin theme never breaks a build.
	Render(ctx context.Context, name string, data any) (string, error)
	// RenderString executes an inline template, used for one-off snippets.
	RenderString(ctx context.Context, template string, data any) (string, error)
	// RegisterFilter exposes a custom filter to template authors.
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	// GlobalContext merges data into the context shared by every render.
	GlobalContext(data map[string]any) error
}
