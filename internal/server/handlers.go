package server

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 100
)

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target, ok := s.resolveFile(r.URL.Path)
	if !ok {
		s.serveNotFound(w, r)
		return
	}

	file, err := s.files.Open(target)
	if err != nil {
		s.serveNotFound(w, r)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		s.serveNotFound(w, r)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

// resolveFile maps a request path onto an output file, honouring both
// clean-URL trees (route/index.html) and flat trees (route.html). Hidden
// segments never resolve, which keeps the build manifest private.
func (s *Server) resolveFile(requestPath string) (string, bool) {
	cleaned := path.Clean("/" + requestPath)
	for _, segment := range strings.Split(cleaned, "/") {
		if strings.HasPrefix(segment, ".") && segment != "" && segment != "." {
			return "", false
		}
	}

	rel := strings.TrimPrefix(cleaned, "/")
	if rel == "" {
		rel = "index.html"
	}

	candidates := []string{rel}
	if !strings.Contains(path.Base(rel), ".") {
		candidates = append(candidates, rel+"/index.html", rel+".html")
	} else if s.isDir(rel) {
		candidates = []string{rel + "/index.html"}
	}

	for _, candidate := range candidates {
		if s.isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (s *Server) isFile(name string) bool {
	file, err := s.files.Open(name)
	if err != nil {
		return false
	}
	defer file.Close()
	info, err := file.Stat()
	return err == nil && !info.IsDir()
}

func (s *Server) isDir(name string) bool {
	file, err := s.files.Open(name)
	if err != nil {
		return false
	}
	defer file.Close()
	info, err := file.Stat()
	return err == nil && info.IsDir()
}

// serveNotFound answers with the site's own 404 page when the build
// produced one, a plain 404 otherwise.
func (s *Server) serveNotFound(w http.ResponseWriter, r *http.Request) {
	file, err := s.files.Open("404.html")
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("not-found page unreadable", "error", err.Error())
		}
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if r.Method != http.MethodHead {
		io.Copy(w, file)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pages := 0
	if result := s.last.Load(); result != nil {
		pages = result.Pages + result.PagesSkipped
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"pages":  pages,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.deps.Search == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error": "search index is not available",
		})
		return
	}

	query := r.URL.Query()
	term := strings.TrimSpace(query.Get("q"))
	if term == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "query parameter q is required",
		})
		return
	}

	opts := interfaces.SearchOptions{
		Locale:  strings.TrimSpace(query.Get("locale")),
		Section: strings.TrimSpace(query.Get("section")),
		From:    intParam(query.Get("from"), 0),
		Size:    intParam(query.Get("size"), defaultSearchSize),
	}
	if opts.Size <= 0 {
		opts.Size = defaultSearchSize
	}
	if opts.Size > maxSearchSize {
		opts.Size = maxSearchSize
	}
	if opts.From < 0 {
		opts.From = 0
	}

	results, err := s.deps.Search.Query(r.Context(), term, opts)
	if err != nil {
		s.logger.Error("search query failed", "term", term, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "search failed",
		})
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func intParam(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
