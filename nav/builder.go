package nav

import (
	"context"

	"github.com/goliatone/go-docsite/site"
)

// Builder resolves a site definition's navigation entries against the
// document corpus.
type Builder interface {
	// Build resolves the definition's navigation tree. When the definition
	// declares no entries the tree is derived from the corpus instead.
	Build(ctx context.Context, def *site.Definition) (*Resolved, error)
	// AutoBuild derives a tree from the corpus alone: the home document
	// first, then one branch per section with documents ordered by route.
	AutoBuild(ctx context.Context, def *site.Definition) (*Resolved, error)
}
