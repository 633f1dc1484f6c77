package builder

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/goliatone/go-docsite/internal/render"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

type assetSummary struct {
	copied  int
	skipped int
}

// copyFunc stages one asset: source names the origin group, assetPath the
// origin-relative file, dest the output-relative destination.
type copyFunc func(source, assetPath, dest string, data []byte) error

// copyAssets stages theme assets, the definition's static directories, and
// non-Markdown files sitting next to content. Unchanged files are skipped
// against the previous manifest.
func (b *Builder) copyAssets(ctx context.Context, bctx *buildContext, previous, next *manifest, force bool) (assetSummary, error) {
	summary := assetSummary{}

	copyOne := func(source, assetPath, dest string, data []byte) error {
		desc := fmt.Sprintf("%s asset %s", source, assetPath)
		if err := bctx.register(dest, desc); err != nil {
			return err
		}
		key := assetKey(source, dest)
		hash := contentHash(data)
		if !force && previous.shouldSkipAsset(key, hash, dest) {
			summary.skipped++
			if entry, ok := previous.lookupAsset(key); ok {
				next.setAsset(key, entry)
			}
			return nil
		}
		if err := b.deps.Publisher.Write(ctx, interfaces.WriteRequest{
			Path:        dest,
			Contents:    data,
			ContentType: assetContentType(dest),
			Category:    interfaces.ArtifactAsset,
		}); err != nil {
			return err
		}
		next.setAsset(key, manifestAsset{
			Path:     assetPath,
			Source:   source,
			Output:   dest,
			Hash:     hash,
			CopiedAt: bctx.generatedAt,
		})
		summary.copied++
		return nil
	}

	if err := b.copyThemeAssets(ctx, bctx, copyOne); err != nil {
		return summary, err
	}
	if err := b.copyStaticDirs(ctx, bctx, copyOne); err != nil {
		return summary, err
	}
	if err := b.copyContentFiles(ctx, copyOne); err != nil {
		return summary, err
	}
	return summary, nil
}

// copyThemeAssets copies every file the theme manifest declares. A declared
// but missing file fails the build; the manifest is the theme's contract.
func (b *Builder) copyThemeAssets(ctx context.Context, bctx *buildContext, copyOne copyFunc) error {
	if bctx.selection == nil {
		return nil
	}
	assets := render.ThemeAssets(bctx.selection)
	if len(assets) == 0 {
		return nil
	}
	fsys := b.themeAssetFS(bctx.themeDir)
	if fsys == nil {
		return fmt.Errorf("builder: theme %s declares assets but has no directory", bctx.selection.Theme)
	}
	for _, rel := range assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := fs.ReadFile(fsys, rel)
		if err != nil {
			return fmt.Errorf("builder: theme asset %s: %w", rel, err)
		}
		if err := copyOne("theme", rel, rel, data); err != nil {
			return err
		}
	}
	return nil
}

// copyStaticDirs copies the contents of each static directory to the output
// root. A missing directory is logged and skipped so half-provisioned sites
// still build.
func (b *Builder) copyStaticDirs(ctx context.Context, bctx *buildContext, copyOne copyFunc) error {
	if len(bctx.def.Static) == 0 {
		return nil
	}
	fsys := b.staticFS()

	for _, raw := range bctx.def.Static {
		dir := strings.Trim(path.Clean(strings.ReplaceAll(strings.TrimSpace(raw), "\\", "/")), "/")
		if dir == "" || dir == "." || strings.HasPrefix(dir, "..") {
			continue
		}
		info, err := fs.Stat(fsys, dir)
		if err != nil || !info.IsDir() {
			b.logger.Warn("static directory missing, skipping", "dir", raw)
			continue
		}

		err = fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			name := d.Name()
			if d.IsDir() {
				if p != dir && strings.HasPrefix(name, ".") {
					return fs.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(name, ".") {
				return nil
			}
			data, err := fs.ReadFile(fsys, p)
			if err != nil {
				return err
			}
			dest := strings.TrimPrefix(p, dir+"/")
			return copyOne("static", p, dest, data)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// copyContentFiles mirrors non-Markdown files from the content tree, so
// images referenced next to documents resolve in the built site. Hidden and
// underscore-prefixed entries stay private to the source tree.
func (b *Builder) copyContentFiles(ctx context.Context, copyOne copyFunc) error {
	fsys := b.contentFS()
	if fsys == nil {
		return nil
	}
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		name := d.Name()
		if d.IsDir() {
			if p != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			return nil
		}
		switch strings.ToLower(path.Ext(name)) {
		case ".md", ".markdown":
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		return copyOne("content", p, p, data)
	})
}

func assetContentType(asset string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(asset), "."))
	switch ext {
	case "css":
		return "text/css"
	case "js", "mjs":
		return "application/javascript"
	case "json", "map":
		return "application/json"
	case "html", "htm":
		return htmlContentType
	case "xml":
		return "application/xml"
	case "txt":
		return "text/plain; charset=utf-8"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "ico":
		return "image/x-icon"
	case "woff":
		return "font/woff"
	case "woff2":
		return "font/woff2"
	case "ttf":
		return "font/ttf"
	case "otf":
		return "font/otf"
	default:
		return "application/octet-stream"
	}
}
