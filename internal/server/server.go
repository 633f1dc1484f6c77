package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/afero"

	"github.com/goliatone/go-docsite/documents"
	"github.com/goliatone/go-docsite/internal/builder"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/internal/watch"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// DefaultAddr binds the preview server to loopback only.
const DefaultAddr = "127.0.0.1:8080"

// DefaultDrain bounds graceful shutdown.
const DefaultDrain = 5 * time.Second

// Config tunes the preview server.
type Config struct {
	Addr  string
	Watch bool
	Open  bool
	Drain time.Duration
}

// BuildRunner is the slice of the builder the server drives.
type BuildRunner interface {
	Build(ctx context.Context, opts builder.BuildOptions) (*builder.BuildResult, error)
	BuildPage(ctx context.Context, route string) error
}

// BatchSource delivers debounced change batches. *watch.Watcher implements it.
type BatchSource interface {
	Start(ctx context.Context) (<-chan watch.Batch, error)
	Close() error
}

// Dependencies wires the server into the rest of the module. Builder and
// Files are required; the rest degrade gracefully when absent.
type Dependencies struct {
	Builder    BuildRunner
	Files      afero.Fs
	Search     interfaces.SearchIndex
	Watcher    BatchSource
	Renderer   interfaces.TemplateRenderer
	Definition builder.DefinitionSource
	Logger     interfaces.Logger
}

// Server hosts the built site locally, rebuilding on source changes and
// notifying connected browsers over SSE.
type Server struct {
	cfg    Config
	deps   Dependencies
	logger interfaces.Logger
	hub    *hub
	files  http.FileSystem

	requests chan rebuildRequest
	last     atomic.Pointer[builder.BuildResult]
}

// New validates dependencies and prepares a server. Serve arms it.
func New(cfg Config, deps Dependencies) (*Server, error) {
	if deps.Builder == nil {
		return nil, errors.New("server: a build runner is required")
	}
	if deps.Files == nil {
		return nil, errors.New("server: an output filesystem is required")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Drain <= 0 {
		cfg.Drain = DefaultDrain
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	return &Server{
		cfg:      cfg,
		deps:     deps,
		logger:   logger,
		hub:      newHub(logger),
		files:    afero.NewHttpFs(deps.Files),
		requests: make(chan rebuildRequest, 1),
	}, nil
}

// Serve builds the site, binds the listener, and blocks until ctx is
// cancelled or the listener fails. A failing initial build is reported but
// does not prevent serving whatever outputs already exist.
func (s *Server) Serve(ctx context.Context) error {
	if result, err := s.deps.Builder.Build(ctx, builder.BuildOptions{}); err != nil {
		s.logger.Error("initial build failed, serving previous outputs", "error", err.Error())
	} else {
		s.last.Store(result)
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.cfg.Addr, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.cfg.Watch {
		s.startWatching(ctx)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	url := "http://" + listener.Addr().String()
	s.logger.Info("preview server listening", "url", url, "watch", s.cfg.Watch)
	if s.cfg.Open {
		go func() {
			if err := browser.OpenURL(url); err != nil {
				s.logger.Warn("could not open browser", "error", err.Error())
			}
		}()
	}

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down preview server")
		s.hub.close()
		drainCtx, cancelDrain := context.WithTimeout(context.Background(), s.cfg.Drain)
		defer cancelDrain()
		if err := httpServer.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	case err := <-serveErr:
		s.hub.close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the full route table, exported so tests can drive the
// server through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/-/healthz", s.handleHealthz)
	mux.HandleFunc("/-/search", s.handleSearch)
	mux.Handle("/-/events", s.hub)
	mux.HandleFunc("/", s.handleStatic)
	return mux
}

func (s *Server) startWatching(ctx context.Context) {
	if s.deps.Watcher == nil {
		s.logger.Warn("watch requested but no watcher configured")
		return
	}
	batches, err := s.deps.Watcher.Start(ctx)
	if err != nil {
		s.logger.Error("watcher unavailable, live reload disabled", "error", err.Error())
		return
	}
	go s.rebuildWorker(ctx)
	go s.watchLoop(ctx, batches)
}

func (s *Server) watchLoop(ctx context.Context, batches <-chan watch.Batch) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-batches:
			if !ok {
				return
			}
			s.enqueue(requestFor(batch))
		}
	}
}

// rebuildRequest is one unit of rebuild work. Full rebuilds subsume route
// rebuilds when requests coalesce.
type rebuildRequest struct {
	full       bool
	invalidate bool
	paths      []string
	cause      string
}

func requestFor(batch watch.Batch) rebuildRequest {
	switch batch.Kind {
	case watch.KindDefinition, watch.KindTheme:
		return rebuildRequest{full: true, invalidate: true, cause: string(batch.Kind)}
	default:
		if batch.Structural {
			return rebuildRequest{full: true, cause: "content layout"}
		}
		return rebuildRequest{paths: batch.Paths, cause: "content"}
	}
}

func mergeRequests(a, b rebuildRequest) rebuildRequest {
	merged := rebuildRequest{
		full:       a.full || b.full,
		invalidate: a.invalidate || b.invalidate,
		cause:      b.cause,
	}
	if a.cause != "" && a.cause != b.cause {
		merged.cause = a.cause + "+" + b.cause
	}
	if !merged.full {
		seen := map[string]struct{}{}
		for _, p := range append(append([]string{}, a.paths...), b.paths...) {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			merged.paths = append(merged.paths, p)
		}
		sort.Strings(merged.paths)
	}
	return merged
}

// enqueue hands a request to the rebuild worker, folding it into the
// pending one when the worker is busy. At most one request waits.
func (s *Server) enqueue(req rebuildRequest) {
	for {
		select {
		case s.requests <- req:
			return
		default:
		}
		select {
		case waiting := <-s.requests:
			req = mergeRequests(waiting, req)
		default:
		}
	}
}

func (s *Server) rebuildWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.requests:
			s.runRebuild(ctx, req)
		}
	}
}

// runRebuild executes one request. Failures are logged and streamed to
// clients; the server keeps running on the previous outputs.
func (s *Server) runRebuild(ctx context.Context, req rebuildRequest) {
	start := time.Now()

	if req.invalidate {
		if inv, ok := s.deps.Renderer.(interface{ Invalidate() }); ok {
			inv.Invalidate()
		}
	}

	var err error
	if !req.full {
		if err = s.rebuildRoutes(ctx, req.paths); err != nil {
			s.logger.Debug("route rebuild fell back to full build", "error", err.Error())
			req.full = true
		}
	}
	if req.full {
		var result *builder.BuildResult
		result, err = s.deps.Builder.Build(ctx, builder.BuildOptions{})
		if err == nil {
			s.last.Store(result)
		}
	}

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.logger.Error("rebuild failed", "cause", req.cause, "error", err.Error())
		s.hub.broadcast(reloadEvent{Type: eventError, Error: err.Error()})
		return
	}

	s.logger.Info("rebuilt", "cause", req.cause, "duration", time.Since(start).String())
	s.hub.broadcast(reloadEvent{Type: eventReload})
}

// rebuildRoutes maps changed Markdown paths onto routes and rebuilds just
// those pages. Any mapping or build failure bubbles up so the caller can
// fall back to a full build.
func (s *Server) rebuildRoutes(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return errors.New("server: empty change batch")
	}
	if s.deps.Definition == nil {
		return errors.New("server: no definition source for route mapping")
	}
	def, err := s.deps.Definition(ctx)
	if err != nil {
		return err
	}
	if def == nil {
		return errors.New("server: definition source returned nothing")
	}

	locales := def.AllLocales()
	routes := map[string]struct{}{}
	for _, p := range paths {
		route, _ := documents.RouteForPath(p, locales)
		routes[route] = struct{}{}
	}

	ordered := make([]string, 0, len(routes))
	for route := range routes {
		ordered = append(ordered, route)
	}
	sort.Strings(ordered)

	for _, route := range ordered {
		if err := s.deps.Builder.BuildPage(ctx, route); err != nil {
			return err
		}
	}
	return nil
}
