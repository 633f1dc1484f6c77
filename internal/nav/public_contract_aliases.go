package nav

import docnav "github.com/goliatone/go-docsite/nav"

type (
	Builder  = docnav.Builder
	Node     = docnav.Node
	Tree     = docnav.Tree
	Issue    = docnav.Issue
	Resolved = docnav.Resolved
	Severity = docnav.Severity
)

const (
	SeverityError   = docnav.SeverityError
	SeverityWarning = docnav.SeverityWarning
)

var (
	ErrCorpusRequired     = docnav.ErrCorpusRequired
	ErrDefinitionRequired = docnav.ErrDefinitionRequired
)
