package lint

import doclint "github.com/goliatone/go-docsite/lint"

type (
	Auditor   = doclint.Auditor
	Report    = doclint.Report
	Issue     = doclint.Issue
	IssueKind = doclint.IssueKind
	Severity  = doclint.Severity
	Options   = doclint.Options
)

const (
	SeverityError   = doclint.SeverityError
	SeverityWarning = doclint.SeverityWarning

	IssueNavTargetMissing    = doclint.IssueNavTargetMissing
	IssueLinkTargetMissing   = doclint.IssueLinkTargetMissing
	IssueAnchorMissing       = doclint.IssueAnchorMissing
	IssueImageMissing        = doclint.IssueImageMissing
	IssueOrphanDocument      = doclint.IssueOrphanDocument
	IssueExternalUnreachable = doclint.IssueExternalUnreachable
	IssueParseFailure        = doclint.IssueParseFailure
)

var ErrCorpusRequired = doclint.ErrCorpusRequired
