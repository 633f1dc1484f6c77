package builder

import (
	"context"
	"fmt"
	"html"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

const maxFeedItems = 100

type feedItem struct {
	Title       string
	Summary     string
	Link        string
	GUID        string
	PublishedAt time.Time
	UpdatedAt   time.Time
}

type localeFeed struct {
	Locale    string
	IsDefault bool
	Items     []feedItem
}

// writeFeeds emits RSS and Atom feeds per locale, plus feed.xml and
// feed.atom.xml aliases for the default locale.
func (b *Builder) writeFeeds(ctx context.Context, bctx *buildContext, next *manifest) error {
	feeds, err := b.buildFeeds(ctx, bctx)
	if err != nil {
		return err
	}

	write := func(dest, content, contentType, source string) error {
		if err := b.deps.Publisher.Write(ctx, interfaces.WriteRequest{
			Path:        dest,
			Contents:    []byte(content),
			ContentType: contentType,
			Category:    interfaces.ArtifactFeed,
		}); err != nil {
			return err
		}
		next.setAsset(assetKey(source, dest), manifestAsset{
			Path:     dest,
			Source:   source,
			Output:   dest,
			Hash:     contentHash([]byte(content)),
			CopiedAt: bctx.generatedAt,
		})
		return nil
	}

	for _, feed := range feeds {
		rss := b.renderRSSFeed(bctx, feed)
		atom := b.renderAtomFeed(bctx, feed)
		rssPath := path.Join("feeds", feed.Locale+".rss.xml")
		atomPath := path.Join("feeds", feed.Locale+".atom.xml")

		if err := write(rssPath, rss, "application/rss+xml", "feed"); err != nil {
			return err
		}
		if err := write(atomPath, atom, "application/atom+xml", "feed"); err != nil {
			return err
		}
		if feed.IsDefault {
			if err := write("feed.xml", rss, "application/rss+xml", "feed"); err != nil {
				return err
			}
			if err := write("feed.atom.xml", atom, "application/atom+xml", "feed"); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildFeeds collects dated documents per locale, newest first, capped at
// maxFeedItems. Only actual translations appear; fallback copies of the
// default locale would duplicate its feed.
func (b *Builder) buildFeeds(ctx context.Context, bctx *buildContext) ([]localeFeed, error) {
	var feeds []localeFeed
	for _, locale := range bctx.locales {
		docs, err := b.deps.Documents.List(ctx, documents.InLocale(locale))
		if err != nil {
			return nil, err
		}

		var items []feedItem
		for _, doc := range docs {
			if doc == nil || doc.Date.IsZero() {
				continue
			}
			link := absolutize(b.canonicalURL(doc.Route, locale))
			updated := doc.LastModified
			if updated.IsZero() || updated.Before(doc.Date) {
				updated = doc.Date
			}
			items = append(items, feedItem{
				Title:       feedItemTitle(doc),
				Summary:     normalizeWhitespace(doc.Summary),
				Link:        link,
				GUID:        link,
				PublishedAt: doc.Date,
				UpdatedAt:   updated,
			})
		}
		if len(items) == 0 {
			continue
		}

		sort.Slice(items, func(i, j int) bool {
			if items[i].PublishedAt.Equal(items[j].PublishedAt) {
				return items[i].GUID < items[j].GUID
			}
			return items[i].PublishedAt.After(items[j].PublishedAt)
		})
		if len(items) > maxFeedItems {
			items = append([]feedItem(nil), items[:maxFeedItems]...)
		}

		feeds = append(feeds, localeFeed{
			Locale:    strings.ToLower(locale),
			IsDefault: strings.EqualFold(locale, bctx.def.DefaultLocale),
			Items:     items,
		})
	}
	return feeds, nil
}

func (b *Builder) renderRSSFeed(bctx *buildContext, feed localeFeed) string {
	title := feedTitle(bctx.def.Title, feed)
	description := feedDescription(bctx.def.Description, feed)
	homeLink := absolutize(b.canonicalURL("", feed.Locale))
	generatedAt := bctx.generatedAt

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<rss version="2.0">` + "\n")
	builder.WriteString("  <channel>\n")
	builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(title)))
	builder.WriteString(fmt.Sprintf("    <link>%s</link>\n", escapeXML(homeLink)))
	builder.WriteString(fmt.Sprintf("    <description>%s</description>\n", escapeXML(description)))
	builder.WriteString(fmt.Sprintf("    <language>%s</language>\n", escapeXML(feed.Locale)))
	builder.WriteString(fmt.Sprintf("    <lastBuildDate>%s</lastBuildDate>\n", generatedAt.UTC().Format(time.RFC1123Z)))
	for _, item := range feed.Items {
		builder.WriteString("    <item>\n")
		builder.WriteString(fmt.Sprintf("      <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf("      <link>%s</link>\n", escapeXML(item.Link)))
		builder.WriteString(fmt.Sprintf("      <guid>%s</guid>\n", escapeXML(item.GUID)))
		builder.WriteString(fmt.Sprintf("      <pubDate>%s</pubDate>\n", item.PublishedAt.UTC().Format(time.RFC1123Z)))
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("      <description>%s</description>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("    </item>\n")
	}
	builder.WriteString("  </channel>\n")
	builder.WriteString(`</rss>` + "\n")
	return builder.String()
}

func (b *Builder) renderAtomFeed(bctx *buildContext, feed localeFeed) string {
	title := feedTitle(bctx.def.Title, feed)
	homeLink := absolutize(b.canonicalURL("", feed.Locale))
	selfLink := b.atomSelfLink(feed.Locale)
	generatedAt := bctx.generatedAt

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<feed xmlns="http://www.w3.org/2005/Atom" xml:lang="%s">`+"\n", escapeXMLAttr(feed.Locale)))
	builder.WriteString(fmt.Sprintf("  <id>%s</id>\n", escapeXML(selfLink)))
	builder.WriteString(fmt.Sprintf("  <title>%s</title>\n", escapeXML(title)))
	builder.WriteString(fmt.Sprintf("  <updated>%s</updated>\n", generatedAt.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf(`  <link rel="alternate" href="%s" />`+"\n", escapeXMLAttr(homeLink)))
	builder.WriteString(fmt.Sprintf(`  <link rel="self" href="%s" />`+"\n", escapeXMLAttr(selfLink)))
	for _, item := range feed.Items {
		updated := item.UpdatedAt
		if updated.IsZero() {
			updated = generatedAt
		}
		builder.WriteString("  <entry>\n")
		builder.WriteString(fmt.Sprintf("    <id>%s</id>\n", escapeXML(item.GUID)))
		builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf(`    <link href="%s" />`+"\n", escapeXMLAttr(item.Link)))
		builder.WriteString(fmt.Sprintf("    <updated>%s</updated>\n", updated.UTC().Format(time.RFC3339)))
		builder.WriteString(fmt.Sprintf("    <published>%s</published>\n", item.PublishedAt.UTC().Format(time.RFC3339)))
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("    <summary>%s</summary>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("  </entry>\n")
	}
	builder.WriteString(`</feed>` + "\n")
	return builder.String()
}

// atomSelfLink derives the atom feed location from the resolver's RSS route
// so both feeds share addressing rules.
func (b *Builder) atomSelfLink(locale string) string {
	built, err := b.deps.URLs.FeedURL(locale)
	if err != nil {
		return absolutize(path.Join("feeds", locale+".atom.xml"))
	}
	return absolutize(strings.Replace(built, ".rss.xml", ".atom.xml", 1))
}

func feedItemTitle(doc *documents.Document) string {
	title := strings.TrimSpace(doc.Title)
	if title != "" {
		return title
	}
	if doc.Route == "" {
		return "Home"
	}
	return doc.Route
}

func feedTitle(siteTitle string, feed localeFeed) string {
	base := strings.TrimSpace(siteTitle)
	if base == "" {
		base = "Documentation"
	}
	if feed.IsDefault || feed.Locale == "" {
		return base
	}
	return fmt.Sprintf("%s (%s)", base, strings.ToUpper(feed.Locale))
}

func feedDescription(siteDescription string, feed localeFeed) string {
	if desc := strings.TrimSpace(siteDescription); desc != "" {
		return desc
	}
	if feed.IsDefault {
		return "Latest updates"
	}
	return fmt.Sprintf("Latest updates for %s", strings.ToUpper(feed.Locale))
}

func normalizeWhitespace(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	return strings.Join(strings.Fields(input), " ")
}

func escapeXML(value string) string {
	return html.EscapeString(value)
}

func escapeXMLAttr(value string) string {
	return html.EscapeString(value)
}
