package documents

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPathRequired     = errors.New("documents: source path is required")
	ErrDocumentNotFound = errors.New("documents: document not found")
	ErrDuplicateRoute   = errors.New("documents: duplicate route")
	ErrScanFailed       = errors.New("documents: scan failed")
	ErrNotScanned       = errors.New("documents: corpus has not been scanned")
)

// NotFoundError captures failed lookups with enough context to report which
// route and locale were requested.
type NotFoundError struct {
	Route  string
	Locale string
	Path   string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ErrDocumentNotFound.Error()
	}
	if path := strings.TrimSpace(e.Path); path != "" {
		return fmt.Sprintf("%s: path=%s", ErrDocumentNotFound.Error(), path)
	}
	route := strings.TrimSpace(e.Route)
	if locale := strings.TrimSpace(e.Locale); locale != "" {
		return fmt.Sprintf("%s: route=%s locale=%s", ErrDocumentNotFound.Error(), route, locale)
	}
	return fmt.Sprintf("%s: route=%s", ErrDocumentNotFound.Error(), route)
}

func (e *NotFoundError) Unwrap() error {
	return ErrDocumentNotFound
}

// DuplicateRouteError reports two source files deriving the same route and
// locale, which would silently shadow one another in the built site.
type DuplicateRouteError struct {
	Route  string
	Locale string
	Paths  []string
}

func (e *DuplicateRouteError) Error() string {
	if e == nil {
		return ErrDuplicateRoute.Error()
	}
	return fmt.Sprintf("%s: route=%s locale=%s sources=%s",
		ErrDuplicateRoute.Error(), e.Route, e.Locale, strings.Join(e.Paths, ", "))
}

func (e *DuplicateRouteError) Unwrap() error {
	return ErrDuplicateRoute
}
