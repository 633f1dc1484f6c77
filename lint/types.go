package lint

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goliatone/go-docsite/site"
)

// Severity ranks an audit issue.
type Severity string

const (
	// SeverityError marks issues that fail strict builds.
	SeverityError Severity = "error"
	// SeverityWarning marks issues that are reported without failing the build.
	SeverityWarning Severity = "warning"
)

// IssueKind classifies what an audit issue is about.
type IssueKind string

const (
	// IssueNavTargetMissing flags a navigation entry whose document path does
	// not resolve to a corpus file.
	IssueNavTargetMissing IssueKind = "nav_target_missing"
	// IssueLinkTargetMissing flags an in-document link whose target does not
	// exist.
	IssueLinkTargetMissing IssueKind = "link_target_missing"
	// IssueAnchorMissing flags a fragment that matches no heading anchor in
	// the target document.
	IssueAnchorMissing IssueKind = "anchor_missing"
	// IssueImageMissing flags an image whose file does not exist.
	IssueImageMissing IssueKind = "image_missing"
	// IssueOrphanDocument flags a document unreachable from navigation.
	IssueOrphanDocument IssueKind = "orphan_document"
	// IssueExternalUnreachable flags an external URL that did not answer.
	IssueExternalUnreachable IssueKind = "external_unreachable"
	// IssueParseFailure flags a source file that failed to scan.
	IssueParseFailure IssueKind = "parse_failure"
)

// Issue is a single audit finding. Source is the content-relative path of
// the document that carries the problem; navigation findings use the site
// definition file instead.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Source   string    `json:"source,omitempty"`
	Target   string    `json:"target,omitempty"`
	Detail   string    `json:"detail"`
}

// Report is the outcome of one audit pass.
type Report struct {
	Issues   []Issue       `json:"issues"`
	Checked  int           `json:"checked"`
	Duration time.Duration `json:"duration"`
}

// HasErrors reports whether any issue carries error severity.
func (r *Report) HasErrors() bool {
	if r == nil {
		return false
	}
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Counts returns the number of error and warning issues.
func (r *Report) Counts() (errors, warnings int) {
	if r == nil {
		return 0, 0
	}
	for _, issue := range r.Issues {
		switch issue.Severity {
		case SeverityError:
			errors++
		default:
			warnings++
		}
	}
	return errors, warnings
}

// Render writes the report in a line-per-issue human format followed by a
// summary line.
func (r *Report) Render(w io.Writer) error {
	if r == nil {
		return nil
	}
	for _, issue := range r.Issues {
		source := issue.Source
		if source == "" {
			source = "(site)"
		}
		line := fmt.Sprintf("%-7s [%s] %s", issue.Severity, issue.Kind, source)
		if issue.Target != "" {
			line += " -> " + issue.Target
		}
		if detail := strings.TrimSpace(issue.Detail); detail != "" {
			line += ": " + detail
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	errCount, warnCount := r.Counts()
	summary := fmt.Sprintf("checked %d targets in %s: %d errors, %d warnings",
		r.Checked, r.Duration.Round(time.Millisecond), errCount, warnCount)
	if len(r.Issues) == 0 {
		summary = fmt.Sprintf("checked %d targets in %s: no problems found",
			r.Checked, r.Duration.Round(time.Millisecond))
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

// Options tunes one audit pass.
type Options struct {
	// Level is off, warn, or error. Off skips the audit, warn downgrades
	// every finding to a warning.
	Level string
	// Anchors verifies fragment targets against heading anchors.
	Anchors bool
	// External probes absolute http(s) destinations over the network.
	External bool
	// Ignore holds glob patterns matched against issue targets.
	Ignore []string
	// Timeout bounds each external request.
	Timeout time.Duration
	// Concurrency bounds parallel external probes.
	Concurrency int
}

// DefaultOptions returns the audit defaults used when the site definition
// has no lint policy.
func DefaultOptions() Options {
	return Options{
		Level:       "error",
		Anchors:     true,
		External:    false,
		Timeout:     10 * time.Second,
		Concurrency: 8,
	}
}

// OptionsFromPolicy maps the definition's lint policy onto audit options.
func OptionsFromPolicy(policy site.LintPolicy) Options {
	opts := DefaultOptions()
	if level := strings.ToLower(strings.TrimSpace(policy.Level)); level != "" {
		opts.Level = level
	}
	opts.Anchors = policy.AnchorsEnabled()
	opts.External = policy.External
	opts.Ignore = append([]string(nil), policy.Ignore...)
	return opts
}
