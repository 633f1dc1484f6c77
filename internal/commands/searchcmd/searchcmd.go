package searchcmd

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-docsite/internal/commands"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

const queryMessageType = "docsite.search.query"

const (
	defaultQuerySize = 10
	maxQuerySize     = 100
)

// ErrIndexUnavailable indicates the module was built without a search index.
var ErrIndexUnavailable = errors.New("search: index is not available")

// ResultsCallback receives the ranked hits. Optional, invoked synchronously
// from the handler.
type ResultsCallback func(*interfaces.SearchResults)

// QueryCommand runs a full-text query against the site index.
type QueryCommand struct {
	Term     string          `json:"term"`
	Locale   string          `json:"locale,omitempty"`
	Size     int             `json:"size,omitempty"`
	Callback ResultsCallback `json:"-"`
}

// Type implements command.Message.
func (QueryCommand) Type() string { return queryMessageType }

// Validate requires a term and keeps the page size sane.
func (m QueryCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Term, validation.Required.Error("a search term is required")),
		validation.Field(&m.Size, validation.Min(0), validation.Max(maxQuerySize)),
	)
}

// QueryHandler executes search queries through the shared handler runtime.
type QueryHandler struct {
	inner *commands.Handler[QueryCommand]
}

// NewQueryHandler constructs a handler bound to the provided index.
func NewQueryHandler(index interfaces.SearchIndex, logger interfaces.Logger, opts ...commands.HandlerOption[QueryCommand]) *QueryHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg QueryCommand) error {
		if index == nil {
			return ErrIndexUnavailable
		}

		size := msg.Size
		if size <= 0 {
			size = defaultQuerySize
		}
		results, err := index.Query(ctx, strings.TrimSpace(msg.Term), interfaces.SearchOptions{
			Locale: strings.TrimSpace(msg.Locale),
			Size:   size,
		})
		if err != nil {
			return err
		}
		if msg.Callback != nil {
			msg.Callback(results)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[QueryCommand]{
		commands.WithLogger[QueryCommand](baseLogger),
		commands.WithOperation[QueryCommand]("search.query"),
		commands.WithMessageFields(func(msg QueryCommand) map[string]any {
			fields := map[string]any{
				"term": msg.Term,
			}
			if msg.Locale != "" {
				fields["locale"] = msg.Locale
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[QueryCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &QueryHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[QueryCommand].
func (h *QueryHandler) Execute(ctx context.Context, msg QueryCommand) error {
	return h.inner.Execute(ctx, msg)
}
