package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goliatone/go-docsite/cmd/docsite/internal/bootstrap"
	buildcmd "github.com/goliatone/go-docsite/internal/commands/build"
	"github.com/goliatone/go-docsite/internal/commands/lintcmd"
	scaffoldcmd "github.com/goliatone/go-docsite/internal/commands/scaffold"
	"github.com/goliatone/go-docsite/internal/commands/searchcmd"
	"github.com/goliatone/go-docsite/lint"
	"github.com/goliatone/go-docsite/pkg/interfaces"
	"github.com/spf13/afero"
)

const version = "0.1.0"

const usageText = `Usage: docsite <command> [flags]

Commands:
  init     scaffold a starter site (docsite.yml plus docs/)
  build    render the site into the output directory
  clean    remove outputs recorded by the last build
  lint     audit navigation and document links
  serve    run the local preview server
  search   query the full-text index
  version  print the docsite version

Run "docsite <command> -h" for command flags.`

type buildHandler interface {
	Execute(ctx context.Context, msg buildcmd.BuildSiteCommand) error
}

type cleanHandler interface {
	Execute(ctx context.Context, msg buildcmd.CleanSiteCommand) error
}

type lintHandler interface {
	Execute(ctx context.Context, msg lintcmd.AuditLinksCommand) error
}

type searchHandler interface {
	Execute(ctx context.Context, msg searchcmd.QueryCommand) error
}

type handlerSet struct {
	build  buildHandler
	clean  cleanHandler
	lint   lintHandler
	search searchHandler
}

type moduleOptions = bootstrap.Options

type moduleResources struct {
	handlers handlerSet
	serve    func(ctx context.Context) error
	shutdown func(ctx context.Context) error
}

var moduleBuilder = buildModuleResources

func buildModuleResources(opts moduleOptions) (*moduleResources, error) {
	resources, err := bootstrap.BuildModule(opts)
	if err != nil {
		return nil, err
	}
	module := resources.Module
	logger := resources.Logger

	out := &moduleResources{
		serve:    module.Serve,
		shutdown: module.Shutdown,
	}

	if siteBuilder, err := module.Builder(); err == nil {
		out.handlers.build = buildcmd.NewBuildSiteHandler(siteBuilder, logger)
		out.handlers.clean = buildcmd.NewCleanSiteHandler(siteBuilder, logger)
	} else {
		return nil, fmt.Errorf("configure builder: %w", err)
	}

	out.handlers.lint = lintcmd.NewAuditLinksHandler(module.Container().Audit, logger)

	if opts.Search {
		index, err := module.Search()
		if err != nil {
			return nil, fmt.Errorf("open search index: %w", err)
		}
		out.handlers.search = searchcmd.NewQueryHandler(index, logger)
	}

	return out, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("docsite: %v", err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usageText)
		os.Exit(2)
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "build":
		return runBuild(args[1:])
	case "clean":
		return runClean(args[1:])
	case "lint":
		return runLint(args[1:])
	case "serve":
		return runServe(args[1:])
	case "search":
		return runSearch(args[1:])
	case "version":
		fmt.Fprintln(os.Stdout, "docsite "+version)
		return nil
	case "-h", "--help", "help":
		fmt.Fprintln(os.Stdout, usageText)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "docsite: unknown command %q\n\n%s\n", args[0], usageText)
		os.Exit(2)
		return nil
	}
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("docsite-init", flag.ExitOnError)
	dir := fs.String("dir", ".", "Directory to scaffold the site into")
	title := fs.String("title", scaffoldcmd.DefaultTitle, "Site title written to docsite.yml")
	force := fs.Bool("force", false, "Overwrite existing files")

	if err := fs.Parse(args); err != nil {
		return err
	}

	handler := scaffoldcmd.NewInitSiteHandler(afero.NewOsFs(), nil)
	cmd := scaffoldcmd.InitSiteCommand{
		Dir:   *dir,
		Title: *title,
		Force: *force,
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("scaffold site: %w", err)
	}
	fmt.Fprintf(os.Stdout, "scaffolded site in %s\n", *dir)
	return nil
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("docsite-build", flag.ExitOnError)
	configPath := fs.String("c", "", "Path to the site definition (defaults to docsite.yml next to the content root)")
	contentDir := fs.String("content", "", "Path to the markdown content root")
	outputDir := fs.String("out", "", "Output directory for the generated site")
	baseURL := fs.String("base-url", "", "Override the definition's base_url")
	locales := fs.String("locales", "", "Comma separated subset of locales to build")
	force := fs.Bool("force", false, "Rebuild everything, ignoring the build manifest")
	drafts := fs.Bool("drafts", false, "Include draft documents")
	workers := fs.Int("workers", 0, "Render worker count (0 uses the CPU count)")
	withSearch := fs.Bool("search", false, "Rebuild the full-text index")
	logJSON := fs.Bool("log-json", false, "Emit JSON logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	resources, err := moduleBuilder(moduleOptions{
		ConfigPath:    *configPath,
		ContentDir:    *contentDir,
		OutputDir:     *outputDir,
		BaseURL:       *baseURL,
		Locales:       bootstrap.SplitLocales(*locales),
		IncludeDrafts: *drafts,
		Workers:       *workers,
		Search:        *withSearch,
		LogJSON:       *logJSON,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer shutdownResources(resources)

	cmd := buildcmd.BuildSiteCommand{
		ConfigPath:    *configPath,
		ContentDir:    *contentDir,
		OutputDir:     *outputDir,
		Locales:       bootstrap.SplitLocales(*locales),
		Force:         *force,
		IncludeDrafts: *drafts,
		Callback:      logBuildResult,
	}
	if err := resources.handlers.build.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute build command: %w", err)
	}
	return nil
}

func runClean(args []string) error {
	fs := flag.NewFlagSet("docsite-clean", flag.ExitOnError)
	configPath := fs.String("c", "", "Path to the site definition")
	outputDir := fs.String("out", "", "Output directory to clean")

	if err := fs.Parse(args); err != nil {
		return err
	}

	resources, err := moduleBuilder(moduleOptions{
		ConfigPath: *configPath,
		OutputDir:  *outputDir,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer shutdownResources(resources)

	if err := resources.handlers.clean.Execute(context.Background(), buildcmd.CleanSiteCommand{OutputDir: *outputDir}); err != nil {
		return fmt.Errorf("execute clean command: %w", err)
	}
	log.Printf("module=build operation=clean summary=done")
	return nil
}

func runLint(args []string) error {
	fs := flag.NewFlagSet("docsite-lint", flag.ExitOnError)
	configPath := fs.String("c", "", "Path to the site definition")
	contentDir := fs.String("content", "", "Path to the markdown content root")
	external := fs.Bool("external", false, "Probe external links over the network")
	level := fs.String("level", "", "Override the lint level (off, warn, error)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	resources, err := moduleBuilder(moduleOptions{
		ConfigPath: *configPath,
		ContentDir: *contentDir,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer shutdownResources(resources)

	cmd := lintcmd.AuditLinksCommand{
		ConfigPath: *configPath,
		Level:      *level,
		External:   *external,
		Callback:   renderLintReport,
	}
	if err := resources.handlers.lint.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute lint command: %w", err)
	}
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("docsite-serve", flag.ExitOnError)
	configPath := fs.String("c", "", "Path to the site definition")
	contentDir := fs.String("content", "", "Path to the markdown content root")
	outputDir := fs.String("out", "", "Output directory served by the preview server")
	addr := fs.String("addr", "", "Listen address (defaults to 127.0.0.1:8080)")
	watch := fs.Bool("watch", true, "Rebuild when source files change")
	open := fs.Bool("open", false, "Open the site in the default browser")
	withSearch := fs.Bool("search", false, "Enable the search endpoint")

	if err := fs.Parse(args); err != nil {
		return err
	}

	resources, err := moduleBuilder(moduleOptions{
		ConfigPath: *configPath,
		ContentDir: *contentDir,
		OutputDir:  *outputDir,
		Serve:      true,
		Addr:       *addr,
		Watch:      *watch,
		Open:       *open,
		Search:     *withSearch,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer shutdownResources(resources)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := resources.serve(ctx); err != nil {
		return fmt.Errorf("preview server: %w", err)
	}
	return nil
}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("docsite-search", flag.ExitOnError)
	configPath := fs.String("c", "", "Path to the site definition")
	outputDir := fs.String("out", "", "Output directory holding the search index")
	locale := fs.String("locale", "", "Restrict results to one locale")
	size := fs.Int("n", 10, "Maximum number of results")

	if err := fs.Parse(args); err != nil {
		return err
	}
	term := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if term == "" {
		return fmt.Errorf("a search term is required")
	}

	resources, err := moduleBuilder(moduleOptions{
		ConfigPath: *configPath,
		OutputDir:  *outputDir,
		Search:     true,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer shutdownResources(resources)

	if resources.handlers.search == nil {
		return fmt.Errorf("search index not configured; build with -search first")
	}

	cmd := searchcmd.QueryCommand{
		Term:     term,
		Locale:   *locale,
		Size:     *size,
		Callback: printSearchResults,
	}
	if err := resources.handlers.search.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute search command: %w", err)
	}
	return nil
}

func shutdownResources(resources *moduleResources) {
	if resources == nil || resources.shutdown == nil {
		return
	}
	if err := resources.shutdown(context.Background()); err != nil {
		log.Printf("module=cli operation=shutdown error=%v", err)
	}
}

func logBuildResult(envelope buildcmd.ResultEnvelope) {
	result := envelope.Result
	if result == nil {
		log.Printf("module=build operation=build summary=completed")
		return
	}
	log.Printf(
		"module=build operation=build summary pages=%d skipped=%d assets=%d search_docs=%d duration=%s",
		result.Pages, result.PagesSkipped, result.Assets, result.SearchDocs, result.Duration,
	)
}

func renderLintReport(report *lint.Report) {
	if report == nil {
		return
	}
	if err := report.Render(os.Stdout); err != nil {
		log.Printf("module=lint operation=render error=%v", err)
	}
}

func printSearchResults(results *interfaces.SearchResults) {
	if results == nil {
		return
	}
	fmt.Fprintf(os.Stdout, "%d results (%s)\n", results.Total, results.Took)
	for _, hit := range results.Hits {
		fmt.Fprintf(os.Stdout, "  %s", hit.Route)
		if hit.Locale != "" {
			fmt.Fprintf(os.Stdout, " [%s]", hit.Locale)
		}
		if hit.Title != "" {
			fmt.Fprintf(os.Stdout, "  %s", hit.Title)
		}
		fmt.Fprintln(os.Stdout)
		for _, fragment := range hit.Fragments {
			fmt.Fprintf(os.Stdout, "      %s\n", fragment)
		}
	}
}
