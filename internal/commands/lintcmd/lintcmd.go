package lintcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-docsite/internal/commands"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/lint"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

const auditLinksMessageType = "docsite.lint.audit"

// ErrIssuesFound marks an audit that completed but reported errors,
// letting hosts map broken links onto a failing exit status.
var ErrIssuesFound = errors.New("lint: audit found errors")

// AuditRunner resolves the corpus and navigation, merges the supplied
// overrides over the site's lint policy, and runs the audit. Empty
// override fields keep the policy's values.
type AuditRunner func(ctx context.Context, overrides lint.Options) (*lint.Report, error)

// ReportCallback receives the finished report. Optional, invoked
// synchronously from the handler.
type ReportCallback func(*lint.Report)

// AuditLinksCommand audits navigation and document links.
type AuditLinksCommand struct {
	ConfigPath string         `json:"config_path,omitempty"`
	Level      string         `json:"level,omitempty"`
	External   bool           `json:"external,omitempty"`
	Callback   ReportCallback `json:"-"`
}

// Type implements command.Message.
func (AuditLinksCommand) Type() string { return auditLinksMessageType }

// Validate constrains the level override to the known settings.
func (m AuditLinksCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Level, validation.By(func(value any) error {
			level, _ := value.(string)
			switch strings.ToLower(strings.TrimSpace(level)) {
			case "", "off", "warn", "error":
				return nil
			}
			return validation.NewError("docsite.lint.level_invalid", "level must be off, warn, or error")
		})),
	)
}

// AuditLinksHandler runs link audits through the shared handler runtime.
type AuditLinksHandler struct {
	inner *commands.Handler[AuditLinksCommand]
}

// NewAuditLinksHandler constructs a handler bound to the provided runner.
func NewAuditLinksHandler(run AuditRunner, logger interfaces.Logger, opts ...commands.HandlerOption[AuditLinksCommand]) *AuditLinksHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg AuditLinksCommand) error {
		if run == nil {
			return lint.ErrCorpusRequired
		}

		overrides := lint.Options{
			Level:    strings.ToLower(strings.TrimSpace(msg.Level)),
			External: msg.External,
		}
		report, err := run(ctx, overrides)
		if err != nil {
			return err
		}
		if msg.Callback != nil {
			msg.Callback(report)
		}
		// Warn and off levels downgrade findings before they land in the
		// report, so error-severity issues always mean a failing audit.
		if report != nil && report.HasErrors() {
			errCount, _ := report.Counts()
			return fmt.Errorf("%w: %d", ErrIssuesFound, errCount)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[AuditLinksCommand]{
		commands.WithLogger[AuditLinksCommand](baseLogger),
		commands.WithOperation[AuditLinksCommand]("lint.audit"),
		commands.WithMessageFields(func(msg AuditLinksCommand) map[string]any {
			fields := map[string]any{}
			if msg.Level != "" {
				fields["level"] = msg.Level
			}
			if msg.External {
				fields["external"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[AuditLinksCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &AuditLinksHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[AuditLinksCommand].
func (h *AuditLinksHandler) Execute(ctx context.Context, msg AuditLinksCommand) error {
	return h.inner.Execute(ctx, msg)
}
