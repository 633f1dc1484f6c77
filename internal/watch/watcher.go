package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// DefaultDebounce is the quiet window collected into one batch. Editors
// produce bursts of writes and renames per save; one window folds a burst
// into a single rebuild.
const DefaultDebounce = 400 * time.Millisecond

// Kind classifies what part of the site a change batch touches.
type Kind string

const (
	// KindContent groups changes under the content directory.
	KindContent Kind = "content"
	// KindDefinition marks a change to the site definition file.
	KindDefinition Kind = "definition"
	// KindTheme groups changes under the theme directory.
	KindTheme Kind = "theme"
)

// Batch is one debounced group of related changes. Content paths are
// relative to the content directory so callers can map them onto routes.
// Structural is set when files appeared, vanished, or moved, which can
// reshape navigation beyond the touched pages.
type Batch struct {
	Kind       Kind
	Paths      []string
	Structural bool
}

// Config names the roots a watcher covers. ContentDir and ThemeDir are
// watched recursively; DefinitionPath is a single file.
type Config struct {
	ContentDir     string
	DefinitionPath string
	ThemeDir       string
	Debounce       time.Duration
}

// Option customises watcher construction.
type Option func(*Watcher)

// WithLogger attaches a logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

var errNoRoots = errors.New("watch: nothing to watch, configure a content dir, definition, or theme dir")

// Watcher streams debounced change batches for a site's source trees.
type Watcher struct {
	cfg    Config
	logger interfaces.Logger

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// New validates the configuration and prepares a watcher. Start arms it.
func New(cfg Config, opts ...Option) (*Watcher, error) {
	cfg.ContentDir = cleanRoot(cfg.ContentDir)
	cfg.ThemeDir = cleanRoot(cfg.ThemeDir)
	cfg.DefinitionPath = cleanRoot(cfg.DefinitionPath)
	if cfg.ContentDir == "" && cfg.ThemeDir == "" && cfg.DefinitionPath == "" {
		return nil, errNoRoots
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	w := &Watcher{
		cfg:    cfg,
		logger: logging.NoOp(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

func cleanRoot(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

// Start begins watching and returns the batch stream. The stream closes
// when ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) (<-chan Batch, error) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil, errors.New("watch: already started")
	}
	w.started = true
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.addRoots(fsw); err != nil {
		fsw.Close()
		return nil, err
	}

	out := make(chan Batch, 1)
	go w.loop(ctx, fsw, out)
	return out, nil
}

// Close stops the watcher and closes the batch stream. Safe to call more
// than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	return nil
}

func (w *Watcher) addRoots(fsw *fsnotify.Watcher) error {
	if w.cfg.ContentDir != "" {
		if err := addRecursive(fsw, w.cfg.ContentDir); err != nil {
			return err
		}
	}
	if w.cfg.ThemeDir != "" {
		if err := addRecursive(fsw, w.cfg.ThemeDir); err != nil {
			w.logger.Warn("theme directory not watchable", "dir", w.cfg.ThemeDir, "error", err.Error())
		}
	}
	if w.cfg.DefinitionPath != "" {
		// Watch the parent so editor save-by-rename still surfaces events.
		if err := fsw.Add(filepath.Dir(w.cfg.DefinitionPath)); err != nil {
			return err
		}
	}
	return nil
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return fsw.Add(p)
	})
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Batch) {
	defer close(out)
	defer fsw.Close()

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = newPending()
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !acceptEvent(event) {
				continue
			}
			w.trackDirs(fsw, event)
			change, ok := w.classify(event)
			if !ok {
				continue
			}
			pending.add(change)
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.cfg.Debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err.Error())
		case <-timerC:
			timer = nil
			timerC = nil
			for _, batch := range pending.flush() {
				w.logger.Debug("change batch",
					"kind", string(batch.Kind),
					"paths", len(batch.Paths),
					"structural", batch.Structural,
				)
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				case <-w.done:
					return
				}
			}
		}
	}
}

// trackDirs keeps the recursive watch in step with the tree: directories
// created under a watched root are added, vanished ones removed.
func (w *Watcher) trackDirs(fsw *fsnotify.Watcher, event fsnotify.Event) {
	name := filepath.Clean(event.Name)
	if !w.underRecursiveRoot(name) {
		return
	}
	switch {
	case event.Op.Has(fsnotify.Create):
		info, err := os.Stat(name)
		if err != nil || !info.IsDir() {
			return
		}
		if err := addRecursive(fsw, name); err != nil {
			w.logger.Warn("new directory not watchable", "dir", name, "error", err.Error())
		}
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		// Removal of the inotify watch is implicit on most platforms; this
		// keeps the shrinking tree tidy where it is not.
		_ = fsw.Remove(name)
	}
}

func (w *Watcher) underRecursiveRoot(name string) bool {
	return (w.cfg.ContentDir != "" && underDir(w.cfg.ContentDir, name)) ||
		(w.cfg.ThemeDir != "" && underDir(w.cfg.ThemeDir, name))
}

type change struct {
	kind       Kind
	path       string
	structural bool
}

// classify maps an event path onto the site area it belongs to. Events in
// the definition's directory for unrelated files are dropped.
func (w *Watcher) classify(event fsnotify.Event) (change, bool) {
	name := filepath.Clean(event.Name)
	structural := event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename)

	if w.cfg.DefinitionPath != "" && name == w.cfg.DefinitionPath {
		return change{kind: KindDefinition, path: filepath.Base(name)}, true
	}
	if w.cfg.ThemeDir != "" && underDir(w.cfg.ThemeDir, name) {
		rel := relOrBase(w.cfg.ThemeDir, name)
		return change{kind: KindTheme, path: rel}, true
	}
	if w.cfg.ContentDir != "" && underDir(w.cfg.ContentDir, name) {
		rel := relOrBase(w.cfg.ContentDir, name)
		if !isMarkdown(rel) {
			// Asset changes need a full pass; single-page rebuilds only
			// re-render documents.
			structural = true
		}
		return change{kind: KindContent, path: rel, structural: structural}, true
	}
	return change{}, false
}

// acceptEvent drops chmod-only noise and editor scratch files.
func acceptEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod || event.Op == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if base == "" || base == "." {
		return false
	}
	if strings.HasPrefix(base, ".") && !strings.EqualFold(base, ".") {
		// Hidden files; also covers .swp and friends from editors that
		// hide their scratch state.
		return false
	}
	if strings.HasSuffix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".swp", ".swx", ".tmp", ".bak":
		return false
	}
	// Vim writes a probe file named 4913 to test directory permissions.
	if base == "4913" {
		return false
	}
	return true
}

func isMarkdown(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func underDir(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func relOrBase(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." {
		return filepath.ToSlash(filepath.Base(p))
	}
	return filepath.ToSlash(rel)
}

// pending accumulates classified changes until the debounce window closes.
type pending struct {
	paths      map[Kind]map[string]struct{}
	structural map[Kind]bool
}

func newPending() *pending {
	return &pending{
		paths:      map[Kind]map[string]struct{}{},
		structural: map[Kind]bool{},
	}
}

func (p *pending) add(c change) {
	bucket := p.paths[c.kind]
	if bucket == nil {
		bucket = map[string]struct{}{}
		p.paths[c.kind] = bucket
	}
	bucket[c.path] = struct{}{}
	if c.structural {
		p.structural[c.kind] = true
	}
}

// flush drains the accumulated changes into at most one batch per kind,
// definition first since it invalidates the most.
func (p *pending) flush() []Batch {
	var out []Batch
	for _, kind := range []Kind{KindDefinition, KindTheme, KindContent} {
		bucket := p.paths[kind]
		if len(bucket) == 0 {
			continue
		}
		paths := make([]string, 0, len(bucket))
		for path := range bucket {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		out = append(out, Batch{
			Kind:       kind,
			Paths:      paths,
			Structural: p.structural[kind],
		})
		delete(p.paths, kind)
		delete(p.structural, kind)
	}
	return out
}
