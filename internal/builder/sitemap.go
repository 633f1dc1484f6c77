package builder

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

type sitemapEntry struct {
	Location   string
	LastMod    time.Time
	Alternates []sitemapAlternate
}

type sitemapAlternate struct {
	Hreflang string
	Href     string
}

func (b *Builder) writeSitemap(ctx context.Context, bctx *buildContext, next *manifest) error {
	content := renderSitemap(b.sitemapEntries(bctx), bctx.generatedAt)
	if err := b.deps.Publisher.Write(ctx, interfaces.WriteRequest{
		Path:        "sitemap.xml",
		Contents:    []byte(content),
		ContentType: "application/xml",
		Category:    interfaces.ArtifactSitemap,
	}); err != nil {
		return err
	}
	next.setAsset(assetKey("sitemap", "sitemap.xml"), manifestAsset{
		Path:     "sitemap.xml",
		Source:   "sitemap",
		Output:   "sitemap.xml",
		Hash:     contentHash([]byte(content)),
		CopiedAt: bctx.generatedAt,
	})
	return nil
}

// sitemapEntries lists every document page of this build. With multiple
// locales each entry carries hreflang alternates plus an x-default pointing
// at the default locale.
func (b *Builder) sitemapEntries(bctx *buildContext) []sitemapEntry {
	multi := len(bctx.locales) > 1
	var entries []sitemapEntry
	for _, job := range bctx.pages {
		if job.kind != pageDocument {
			continue
		}
		lastMod := job.doc.LastModified
		if lastMod.IsZero() {
			lastMod = job.doc.Date
		}
		entry := sitemapEntry{
			Location: absolutize(b.canonicalURL(job.route, job.locale)),
			LastMod:  lastMod,
		}
		if multi {
			for _, alt := range bctx.locales {
				entry.Alternates = append(entry.Alternates, sitemapAlternate{
					Hreflang: strings.ToLower(alt),
					Href:     absolutize(b.canonicalURL(job.route, alt)),
				})
			}
			entry.Alternates = append(entry.Alternates, sitemapAlternate{
				Hreflang: "x-default",
				Href:     absolutize(b.canonicalURL(job.route, bctx.def.DefaultLocale)),
			})
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Location < entries[j].Location
	})
	return entries
}

func renderSitemap(entries []sitemapEntry, fallback time.Time) string {
	multi := false
	for _, entry := range entries {
		if len(entry.Alternates) > 0 {
			multi = true
			break
		}
	}

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	if multi {
		builder.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:xhtml="http://www.w3.org/1999/xhtml">` + "\n")
	} else {
		builder.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	}
	for _, entry := range entries {
		lastMod := entry.LastMod
		if lastMod.IsZero() {
			lastMod = fallback
		}
		builder.WriteString("  <url>\n")
		builder.WriteString(fmt.Sprintf("    <loc>%s</loc>\n", html.EscapeString(entry.Location)))
		if !lastMod.IsZero() {
			builder.WriteString(fmt.Sprintf("    <lastmod>%s</lastmod>\n", lastMod.UTC().Format(time.RFC3339)))
		}
		for _, alt := range entry.Alternates {
			builder.WriteString(fmt.Sprintf("    <xhtml:link rel=\"alternate\" hreflang=%q href=%q/>\n",
				alt.Hreflang, html.EscapeString(alt.Href)))
		}
		builder.WriteString("  </url>\n")
	}
	builder.WriteString(`</urlset>` + "\n")
	return builder.String()
}

func (b *Builder) writeRobots(ctx context.Context, bctx *buildContext, next *manifest) error {
	sitemapURL := ""
	if b.cfg.Sitemap {
		if built, err := b.deps.URLs.SitemapURL(); err == nil {
			sitemapURL = absolutize(built)
		}
	}
	content := renderRobots(sitemapURL)
	if err := b.deps.Publisher.Write(ctx, interfaces.WriteRequest{
		Path:        "robots.txt",
		Contents:    []byte(content),
		ContentType: "text/plain; charset=utf-8",
		Category:    interfaces.ArtifactRobots,
	}); err != nil {
		return err
	}
	next.setAsset(assetKey("robots", "robots.txt"), manifestAsset{
		Path:     "robots.txt",
		Source:   "robots",
		Output:   "robots.txt",
		Hash:     contentHash([]byte(content)),
		CopiedAt: bctx.generatedAt,
	})
	return nil
}

func renderRobots(sitemapURL string) string {
	var builder strings.Builder
	builder.WriteString("User-agent: *\n")
	builder.WriteString("Allow: /\n")
	if sitemapURL != "" {
		builder.WriteString("\n")
		builder.WriteString("Sitemap: " + sitemapURL + "\n")
	}
	return builder.String()
}
