package lint

import (
	"context"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/nav"
	"github.com/goliatone/go-docsite/pkg/interfaces"
	"github.com/goliatone/go-docsite/site"
)

// AuditorOption configures the link auditor.
type AuditorOption func(*auditor)

// WithLogger overrides the no-op logger.
func WithLogger(logger interfaces.Logger) AuditorOption {
	return func(a *auditor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSourceFS provides the content root used to verify asset targets.
// Asset checks pass vacuously when no filesystem roots are configured.
func WithSourceFS(fsys fs.FS) AuditorOption {
	return func(a *auditor) {
		if fsys != nil {
			a.source = fsys
		}
	}
}

// WithAssetFS adds extra roots searched for absolute asset references,
// typically the definition's static directories.
func WithAssetFS(roots ...fs.FS) AuditorOption {
	return func(a *auditor) {
		for _, root := range roots {
			if root != nil {
				a.assets = append(a.assets, root)
			}
		}
	}
}

// WithHTTPClient overrides the client used for external probes.
func WithHTTPClient(client *http.Client) AuditorOption {
	return func(a *auditor) {
		if client != nil {
			a.client = client
		}
	}
}

// WithClock overrides the time source used for report durations.
func WithClock(now func() time.Time) AuditorOption {
	return func(a *auditor) {
		if now != nil {
			a.now = now
		}
	}
}

type auditor struct {
	corpus documents.Service
	source fs.FS
	assets []fs.FS
	client *http.Client
	logger interfaces.Logger
	now    func() time.Time
}

// NewAuditor returns an Auditor over the scanned corpus.
func NewAuditor(corpus documents.Service, opts ...AuditorOption) (Auditor, error) {
	if corpus == nil {
		return nil, ErrCorpusRequired
	}
	a := &auditor{
		corpus: corpus,
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

func (a *auditor) Audit(ctx context.Context, resolved *nav.Resolved, opts Options) (*Report, error) {
	started := a.now()
	report := &Report{}

	level := strings.ToLower(strings.TrimSpace(opts.Level))
	if level == "off" {
		return report, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ign := newIgnorer(opts.Ignore)

	if resolved != nil {
		for _, issue := range resolved.Issues {
			if ign.match(issue.Path) {
				continue
			}
			report.Issues = append(report.Issues, Issue{
				Kind:     IssueNavTargetMissing,
				Severity: severityFromNav(issue.Severity),
				Source:   site.DefaultFilenames[0],
				Target:   issue.Path,
				Detail:   issue.Reason,
			})
		}
	}

	docs, err := a.corpus.List(ctx)
	if err != nil {
		return nil, err
	}

	var external []externalRef
	seenExternal := map[string]bool{}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, link := range doc.Links {
			a.checkLink(ctx, doc, link, opts, ign, report, &external, seenExternal)
		}
	}

	a.checkOrphans(resolved, docs, ign, report)

	if opts.External && len(external) > 0 {
		report.Checked += len(external)
		report.Issues = append(report.Issues, a.probeExternal(ctx, external, opts)...)
	}

	sort.SliceStable(report.Issues, func(i, j int) bool {
		left, right := report.Issues[i], report.Issues[j]
		if left.Source != right.Source {
			return left.Source < right.Source
		}
		if left.Target != right.Target {
			return left.Target < right.Target
		}
		return left.Kind < right.Kind
	})

	if level == "warn" {
		for i := range report.Issues {
			report.Issues[i].Severity = SeverityWarning
		}
	}

	report.Duration = a.now().Sub(started)
	a.logger.Info("link audit complete",
		"checked", report.Checked,
		"issues", len(report.Issues),
		"duration", report.Duration.String(),
	)
	return report, nil
}

type externalRef struct {
	url    string
	source string
}

func (a *auditor) checkLink(ctx context.Context, doc *documents.Document, link interfaces.Link, opts Options, ign *ignorer, report *Report, external *[]externalRef, seenExternal map[string]bool) {
	dest := strings.TrimSpace(link.Destination)
	if dest == "" {
		return
	}
	lower := strings.ToLower(dest)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return
	}
	if ign.match(dest) {
		return
	}

	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(dest, "//") {
		if !opts.External {
			return
		}
		target := dest
		if strings.HasPrefix(target, "//") {
			target = "https:" + target
		}
		if !seenExternal[target] {
			seenExternal[target] = true
			*external = append(*external, externalRef{url: target, source: doc.SourcePath})
		}
		return
	}

	base, fragment, _ := strings.Cut(dest, "#")
	base, _, _ = strings.Cut(base, "?")
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}

	if base == "" {
		report.Checked++
		if opts.Anchors && fragment != "" && !doc.HasAnchor(fragment) {
			report.Issues = append(report.Issues, Issue{
				Kind:     IssueAnchorMissing,
				Severity: SeverityError,
				Source:   doc.SourcePath,
				Target:   dest,
				Detail:   "no heading with this anchor",
			})
		}
		return
	}

	resolved, ok := resolveTarget(doc.SourcePath, base)
	if !ok {
		report.Checked++
		report.Issues = append(report.Issues, Issue{
			Kind:     kindFor(link),
			Severity: SeverityError,
			Source:   doc.SourcePath,
			Target:   dest,
			Detail:   "target escapes the content directory",
		})
		return
	}

	if isMarkdownPath(resolved) {
		report.Checked++
		target, err := a.corpus.GetByPath(ctx, resolved)
		if err != nil {
			report.Issues = append(report.Issues, Issue{
				Kind:     kindFor(link),
				Severity: SeverityError,
				Source:   doc.SourcePath,
				Target:   dest,
				Detail:   "no document at " + resolved,
			})
			return
		}
		if target.Draft {
			report.Issues = append(report.Issues, Issue{
				Kind:     kindFor(link),
				Severity: SeverityWarning,
				Source:   doc.SourcePath,
				Target:   dest,
				Detail:   "target is a draft and is excluded from built output",
			})
			return
		}
		if opts.Anchors && fragment != "" && !target.HasAnchor(fragment) {
			report.Issues = append(report.Issues, Issue{
				Kind:     IssueAnchorMissing,
				Severity: SeverityError,
				Source:   doc.SourcePath,
				Target:   dest,
				Detail:   "no heading with this anchor in " + resolved,
			})
		}
		return
	}

	if link.Kind == interfaces.LinkImage || path.Ext(resolved) != "" {
		report.Checked++
		if !a.assetExists(resolved) {
			report.Issues = append(report.Issues, Issue{
				Kind:     kindFor(link),
				Severity: SeverityError,
				Source:   doc.SourcePath,
				Target:   dest,
				Detail:   "no file at " + resolved,
			})
		}
		return
	}

	// extensionless targets reference routes, as emitted by clean URLs
	report.Checked++
	route := strings.Trim(resolved, "/")
	target, err := a.corpus.Get(ctx, route)
	if err != nil {
		report.Issues = append(report.Issues, Issue{
			Kind:     kindFor(link),
			Severity: SeverityError,
			Source:   doc.SourcePath,
			Target:   dest,
			Detail:   "no document for route " + route,
		})
		return
	}
	if opts.Anchors && fragment != "" && !target.HasAnchor(fragment) {
		report.Issues = append(report.Issues, Issue{
			Kind:     IssueAnchorMissing,
			Severity: SeverityError,
			Source:   doc.SourcePath,
			Target:   dest,
			Detail:   "no heading with this anchor at route " + route,
		})
	}
}

func (a *auditor) checkOrphans(resolved *nav.Resolved, docs []*documents.Document, ign *ignorer, report *Report) {
	if resolved == nil || resolved.Tree.IsEmpty() {
		return
	}

	inNav := map[string]bool{}
	for _, node := range resolved.Tree.Flatten() {
		inNav[node.Route] = true
	}

	seen := map[string]bool{}
	for _, doc := range docs {
		if seen[doc.Route] {
			continue
		}
		seen[doc.Route] = true
		if inNav[doc.Route] {
			continue
		}
		if ign.match(doc.Route) || ign.match(doc.SourcePath) {
			continue
		}
		report.Issues = append(report.Issues, Issue{
			Kind:     IssueOrphanDocument,
			Severity: SeverityWarning,
			Source:   doc.SourcePath,
			Target:   doc.Route,
			Detail:   "document is not reachable from any navigation entry",
		})
	}
}

func (a *auditor) assetExists(p string) bool {
	var roots []fs.FS
	if a.source != nil {
		roots = append(roots, a.source)
	}
	roots = append(roots, a.assets...)
	if len(roots) == 0 {
		return true
	}
	for _, root := range roots {
		if info, err := fs.Stat(root, p); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

func resolveTarget(sourcePath, ref string) (string, bool) {
	ref = strings.TrimSpace(strings.ReplaceAll(ref, "\\", "/"))
	rooted := strings.HasPrefix(ref, "/")
	if rooted {
		ref = strings.TrimPrefix(ref, "/")
	}
	base := ""
	if !rooted {
		if dir := path.Dir(sourcePath); dir != "." {
			base = dir
		}
	}
	joined := path.Join(base, ref)
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return "", false
	}
	if joined == "." {
		joined = ""
	}
	return joined, true
}

func isMarkdownPath(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

func kindFor(link interfaces.Link) IssueKind {
	if link.Kind == interfaces.LinkImage {
		return IssueImageMissing
	}
	return IssueLinkTargetMissing
}

func severityFromNav(severity nav.Severity) Severity {
	if severity == nav.SeverityWarning {
		return SeverityWarning
	}
	return SeverityError
}

type ignorer struct {
	patterns []string
}

func newIgnorer(globs []string) *ignorer {
	ign := &ignorer{}
	for _, pattern := range globs {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			ign.patterns = append(ign.patterns, trimmed)
		}
	}
	return ign
}

func (i *ignorer) match(target string) bool {
	target = strings.TrimSpace(target)
	if target == "" {
		return false
	}
	for _, pattern := range i.patterns {
		if pattern == target {
			return true
		}
		if strings.HasSuffix(pattern, "/**") {
			if strings.HasPrefix(target, strings.TrimSuffix(pattern, "**")) {
				return true
			}
			continue
		}
		if ok, err := path.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}
