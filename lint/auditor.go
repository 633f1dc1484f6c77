package lint

import (
	"context"

	"github.com/goliatone/go-docsite/nav"
)

// Auditor verifies link integrity across the scanned corpus and its
// resolved navigation.
type Auditor interface {
	// Audit checks navigation targets, in-document links, anchors, images,
	// orphaned documents and, when enabled, external URLs. The returned
	// report is ordered by source path, then target.
	Audit(ctx context.Context, resolved *nav.Resolved, opts Options) (*Report, error)
}
