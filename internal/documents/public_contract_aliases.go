package documents

import sitedocs "github.com/goliatone/go-docsite/documents"

type (
	Service             = sitedocs.Service
	Document            = sitedocs.Document
	ScanSummary         = sitedocs.ScanSummary
	ListOption          = sitedocs.ListOption
	GetOption           = sitedocs.GetOption
	NotFoundError       = sitedocs.NotFoundError
	DuplicateRouteError = sitedocs.DuplicateRouteError
)

var (
	InLocale            = sitedocs.InLocale
	InSection           = sitedocs.InSection
	WithDrafts          = sitedocs.WithDrafts
	WithTag             = sitedocs.WithTag
	ErrPathRequired     = sitedocs.ErrPathRequired
	ErrDocumentNotFound = sitedocs.ErrDocumentNotFound
	ErrDuplicateRoute   = sitedocs.ErrDuplicateRoute
	ErrScanFailed       = sitedocs.ErrScanFailed
	ErrNotScanned       = sitedocs.ErrNotScanned
)
