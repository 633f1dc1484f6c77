// Package markdown parses Markdown source files into documents: front matter
// extraction, Goldmark rendering, heading outlines, and link inventories. The
// loader discovers files on any fs.FS; callers layer routing and navigation on
// top of the returned documents.
package markdown
