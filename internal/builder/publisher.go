package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// ErrPathEscapesRoot flags a write or remove aimed outside the output tree.
var ErrPathEscapesRoot = errors.New("builder: path escapes the output directory")

// ErrArtifactPathRequired indicates a publisher call without a target path.
var ErrArtifactPathRequired = errors.New("builder: artifact path is required")

// ManifestSource provides the previous build's manifest when the publisher
// keeps one. Publishers without history force full rebuilds.
type ManifestSource interface {
	Manifest(ctx context.Context) ([]byte, error)
}

// FSPublisher persists build artifacts onto an afero filesystem rooted at
// the output directory.
type FSPublisher struct {
	fs   afero.Fs
	root string
}

var (
	_ interfaces.Publisher = (*FSPublisher)(nil)
	_ ManifestSource       = (*FSPublisher)(nil)
)

// NewPublisher roots base at dir and returns a publisher over that view.
// Pass afero.NewOsFs() for real builds and afero.NewMemMapFs() in tests.
func NewPublisher(base afero.Fs, dir string) (*FSPublisher, error) {
	if base == nil {
		base = afero.NewOsFs()
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("builder: output directory is required")
	}
	if err := base.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("builder: create output directory: %w", err)
	}
	return &FSPublisher{
		fs:   afero.NewBasePathFs(base, dir),
		root: dir,
	}, nil
}

// Fs exposes the rooted output view. The preview server serves from it so
// builds and responses always agree on the tree.
func (p *FSPublisher) Fs() afero.Fs { return p.fs }

// Root returns the configured output directory.
func (p *FSPublisher) Root() string { return p.root }

// Write stores one artifact under the output root, creating parent
// directories as needed.
func (p *FSPublisher) Write(ctx context.Context, req interfaces.WriteRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := safeRelPath(req.Path)
	if err != nil {
		return err
	}
	if dir := path.Dir(rel); dir != "." {
		if err := p.fs.MkdirAll(filepath.FromSlash(dir), 0o755); err != nil {
			return fmt.Errorf("builder: create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(p.fs, filepath.FromSlash(rel), req.Contents, 0o644); err != nil {
		return fmt.Errorf("builder: write %s: %w", rel, err)
	}
	return nil
}

// Remove deletes an artifact. Missing targets are not an error; directories
// are removed with their contents.
func (p *FSPublisher) Remove(ctx context.Context, artifactPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := safeRelPath(artifactPath)
	if err != nil {
		return err
	}
	if err := p.fs.RemoveAll(filepath.FromSlash(rel)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("builder: remove %s: %w", rel, err)
	}
	return nil
}

// Manifest reads the manifest left by the previous build, nil when none
// exists yet.
func (p *FSPublisher) Manifest(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(p.fs, ManifestFileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("builder: read manifest: %w", err)
	}
	return data, nil
}

// safeRelPath normalises an artifact path and rejects anything that would
// land outside the output root.
func safeRelPath(p string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(strings.TrimSpace(p), "\\", "/"))
	if cleaned == "" || cleaned == "." {
		return "", ErrArtifactPathRequired
	}
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, p)
	}
	return cleaned, nil
}
