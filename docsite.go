package docsite

import (
	"context"
	"time"

	"github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/internal/builder"
	"github.com/goliatone/go-docsite/internal/di"
	"github.com/goliatone/go-docsite/internal/server"
	"github.com/goliatone/go-docsite/lint"
	"github.com/goliatone/go-docsite/nav"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// DocumentService exports the corpus service contract for consumers of the docsite package.
type DocumentService = documents.Service

// NavBuilder exports the navigation builder contract.
type NavBuilder = nav.Builder

// Auditor exports the link auditor contract.
type Auditor = lint.Auditor

// Builder exports the static site builder.
type Builder = *builder.Builder

// BuildOptions exports the per-run build options.
type BuildOptions = builder.BuildOptions

// BuildResult exports the build outcome summary.
type BuildResult = builder.BuildResult

// Server exports the local preview server.
type Server = *server.Server

// SearchIndex exports the full-text index contract.
type SearchIndex = interfaces.SearchIndex

// Option configures the underlying container before any service is built.
type Option = di.Option

// WithLoggerProvider overrides the configured logging provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return di.WithLoggerProvider(provider)
}

// WithRenderer overrides the default template renderer.
func WithRenderer(renderer interfaces.TemplateRenderer) Option {
	return di.WithRenderer(renderer)
}

// WithPublisher overrides the default output publisher.
func WithPublisher(publisher interfaces.Publisher) Option {
	return di.WithPublisher(publisher)
}

// WithSearchIndex overrides the default search index.
func WithSearchIndex(index interfaces.SearchIndex) Option {
	return di.WithSearchIndex(index)
}

// WithClock pins the time source used by builds, for reproducible output.
func WithClock(now func() time.Time) Option {
	return di.WithClock(now)
}

// Module represents the top level docsite runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a docsite module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Documents returns the configured corpus service.
func (m *Module) Documents() (DocumentService, error) {
	return m.container.Documents()
}

// Nav returns the configured navigation builder.
func (m *Module) Nav() (NavBuilder, error) {
	return m.container.Nav()
}

// Linter returns the configured link auditor.
func (m *Module) Linter() (Auditor, error) {
	return m.container.Linter()
}

// Builder returns the configured static site builder.
func (m *Module) Builder() (Builder, error) {
	return m.container.Builder()
}

// Search returns the configured search index, nil when the feature is off.
func (m *Module) Search() (SearchIndex, error) {
	return m.container.Search()
}

// Server returns the configured preview server.
func (m *Module) Server() (Server, error) {
	return m.container.Server()
}

// Build runs a full site build with the supplied options.
func (m *Module) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	b, err := m.container.Builder()
	if err != nil {
		return nil, err
	}
	return b.Build(ctx, opts)
}

// Clean removes every output recorded by the last build manifest.
func (m *Module) Clean(ctx context.Context) error {
	b, err := m.container.Builder()
	if err != nil {
		return err
	}
	return b.Clean(ctx)
}

// Lint audits navigation and document links. Overrides win over the site
// definition's lint policy; empty override fields keep the policy values.
func (m *Module) Lint(ctx context.Context, overrides lint.Options) (*lint.Report, error) {
	return m.container.Audit(ctx, overrides)
}

// Serve runs the local preview server until ctx is cancelled.
func (m *Module) Serve(ctx context.Context) error {
	srv, err := m.container.Server()
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Shutdown releases long-lived resources held by the module.
func (m *Module) Shutdown(ctx context.Context) error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Shutdown(ctx)
}
