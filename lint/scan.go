package lint

import (
	"github.com/goliatone/go-docsite/documents"
)

// ReportFromScanError converts a failed corpus scan into a report of parse
// failures, so commands can present scan problems the same way as link
// problems.
func ReportFromScanError(err error) *Report {
	report := &Report{}
	for _, item := range flattenErrors(err) {
		if item == documents.ErrScanFailed {
			continue
		}
		report.Issues = append(report.Issues, Issue{
			Kind:     IssueParseFailure,
			Severity: SeverityError,
			Detail:   item.Error(),
		})
	}
	if len(report.Issues) == 0 && err != nil {
		report.Issues = append(report.Issues, Issue{
			Kind:     IssueParseFailure,
			Severity: SeverityError,
			Detail:   err.Error(),
		})
	}
	return report
}

func flattenErrors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, item := range joined.Unwrap() {
			out = append(out, flattenErrors(item)...)
		}
		return out
	}
	return []error{err}
}
