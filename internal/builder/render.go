package builder

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/internal/render"
)

type renderOutcome struct {
	job     *pageJob
	html    string
	skipped bool
	err     error
}

// renderPages renders every planned page through a bounded worker pool.
// Workers take whole per-locale batches so template caches stay warm per
// locale, and write outcomes to disjoint slice slots.
func (b *Builder) renderPages(ctx context.Context, bctx *buildContext, previous *manifest, force bool) ([]renderOutcome, error) {
	jobs := bctx.pages
	outcomes := make([]renderOutcome, len(jobs))
	if len(jobs) == 0 {
		return outcomes, nil
	}

	groups := groupJobs(jobs, bctx.locales)
	workers := b.workerCount(len(groups))

	if workers <= 1 {
		for i, job := range jobs {
			if err := ctx.Err(); err != nil {
				return outcomes, err
			}
			outcomes[i] = b.renderJob(ctx, bctx, job, previous, force)
		}
	} else {
		feed := make(chan []int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for batch := range feed {
					for _, idx := range batch {
						select {
						case <-ctx.Done():
							outcomes[idx] = renderOutcome{job: jobs[idx], err: ctx.Err()}
						default:
							outcomes[idx] = b.renderJob(ctx, bctx, jobs[idx], previous, force)
						}
					}
				}
			}()
		}

	dispatch:
		for _, group := range groups {
			select {
			case <-ctx.Done():
				break dispatch
			case feed <- group:
			}
		}
		close(feed)
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
	}

	var errs []error
	for i := range outcomes {
		if outcomes[i].job == nil {
			outcomes[i].job = jobs[i]
		}
		if outcomes[i].err != nil {
			errs = append(errs, outcomes[i].err)
		}
	}
	if len(errs) > 0 {
		return outcomes, errors.Join(errs...)
	}
	return outcomes, nil
}

// groupJobs buckets job indexes by locale, in build locale order. Every job
// carries one of the build's locales, but stragglers are still collected so
// no page silently drops.
func groupJobs(jobs []*pageJob, locales []string) [][]int {
	byLocale := map[string][]int{}
	for i, job := range jobs {
		byLocale[job.locale] = append(byLocale[job.locale], i)
	}

	groups := make([][]int, 0, len(byLocale))
	for _, locale := range locales {
		if idxs, ok := byLocale[locale]; ok {
			groups = append(groups, idxs)
			delete(byLocale, locale)
		}
	}
	if len(byLocale) > 0 {
		var rest []int
		for _, idxs := range byLocale {
			rest = append(rest, idxs...)
		}
		if len(rest) > 0 {
			groups = append(groups, rest)
		}
	}
	return groups
}

func (b *Builder) renderJob(ctx context.Context, bctx *buildContext, job *pageJob, previous *manifest, force bool) renderOutcome {
	outcome := renderOutcome{job: job}
	if err := ctx.Err(); err != nil {
		outcome.err = err
		return outcome
	}

	if !force && previous.shouldSkipPage(job.route, job.locale, job.checksum, job.output) {
		outcome.skipped = true
		return outcome
	}

	tree := bctx.resolved.Tree
	var page render.PageData
	var navCtx render.NavContext

	switch job.kind {
	case pageDocument:
		page = render.NewPageData(job.doc, b.canonicalURL(job.route, job.locale))
		page.Locale = job.locale
		navCtx = render.NewNavContext(tree, job.route)
	case pageSection:
		page = render.PageData{
			Route:     job.route,
			Locale:    job.locale,
			Section:   documents.SectionOf(job.route),
			Title:     job.section.Label,
			Canonical: b.canonicalURL(job.route, job.locale),
		}
		navCtx = render.NewSectionNavContext(tree, job.section)
	case pageSearchPage:
		page = render.PageData{
			Route:     job.route,
			Locale:    job.locale,
			Title:     "Search",
			Canonical: b.canonicalURL(job.route, job.locale),
		}
		navCtx = render.NewNavContext(tree, job.route)
	case pageNotFound:
		page = render.PageData{
			Route:  job.route,
			Locale: job.locale,
			Title:  "Page not found",
		}
		navCtx = render.NewNavContext(tree, "")
	}

	pc := render.PageContext{
		Site:  bctx.siteCtx,
		Page:  page,
		Nav:   navCtx,
		Theme: bctx.themeCtx,
		Build: render.BuildInfo{
			GeneratedAt: bctx.generatedAt,
			Incremental: !force,
		},
		Helpers: render.NewHelpers(job.locale, bctx.def.DefaultLocale, bctx.def.BaseURL),
	}

	html, err := b.deps.Renderer.Render(ctx, job.template, pc)
	if err != nil {
		outcome.err = err
		return outcome
	}
	outcome.html = html
	return outcome
}
