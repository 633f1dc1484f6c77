package interfaces

import "context"

// ArtifactCategory classifies build outputs so publishers can route or audit
// writes without parsing paths.
type ArtifactCategory string

const (
	ArtifactPage     ArtifactCategory = "page"
	ArtifactAsset    ArtifactCategory = "asset"
	ArtifactSitemap  ArtifactCategory = "sitemap"
	ArtifactRobots   ArtifactCategory = "robots"
	ArtifactFeed     ArtifactCategory = "feed"
	ArtifactSearch   ArtifactCategory = "search"
	ArtifactManifest ArtifactCategory = "manifest"
)

// WriteRequest describes a single build artifact destined for the output tree.
// Path is always relative to the publisher's root.
type WriteRequest struct {
	Path        string
	Contents    []byte
	ContentType string
	Category    ArtifactCategory
}

// Publisher persists build artifacts. Implementations must reject paths that
// escape their configured root.
type Publisher interface {
	Write(ctx context.Context, req WriteRequest) error
	Remove(ctx context.Context, path string) error
}
