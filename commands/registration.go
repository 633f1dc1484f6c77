package commands

import (
	"errors"

	intcommands "github.com/goliatone/go-docsite/internal/commands"
	buildcmd "github.com/goliatone/go-docsite/internal/commands/build"
	"github.com/goliatone/go-docsite/internal/commands/lintcmd"
	scaffoldcmd "github.com/goliatone/go-docsite/internal/commands/scaffold"
	"github.com/goliatone/go-docsite/internal/commands/searchcmd"
	"github.com/goliatone/go-docsite/internal/di"
	"github.com/goliatone/go-docsite/pkg/interfaces"
	"github.com/spf13/afero"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// RegistrationOptions configures how handlers are registered during construction.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	LoggerProvider interfaces.LoggerProvider
	// ScaffoldFs overrides the filesystem the init handler writes starter
	// sites into. Defaults to the OS filesystem.
	ScaffoldFs afero.Fs
}

// RegistrationResult captures the constructed command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterContainerCommands builds the command handlers exposed by the provided container and
// optionally registers them with registry/dispatcher integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}

	cfg := container.Config()

	provider := opts.LoggerProvider
	if provider == nil {
		provider = container.LoggerProvider()
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error

	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
	}

	loggerFor := func(module string) interfaces.Logger {
		return intcommands.CommandLogger(provider, module)
	}

	// Build commands.
	if cfg.Build.Enabled {
		siteBuilder, err := container.Builder()
		if err != nil {
			errs = errors.Join(errs, err)
		} else if siteBuilder != nil {
			buildLogger := loggerFor("build")
			register(buildcmd.NewBuildSiteHandler(siteBuilder, buildLogger))
			register(buildcmd.NewCleanSiteHandler(siteBuilder, buildLogger))
		}
	}

	// Lint commands.
	if cfg.Features.Lint {
		register(lintcmd.NewAuditLinksHandler(container.Audit, loggerFor("lint")))
	}

	// Search commands.
	if cfg.Features.Search {
		index, err := container.Search()
		if err != nil {
			errs = errors.Join(errs, err)
		} else if index != nil {
			register(searchcmd.NewQueryHandler(index, loggerFor("search")))
		}
	}

	// Scaffold commands.
	scaffoldFs := opts.ScaffoldFs
	if scaffoldFs == nil {
		scaffoldFs = afero.NewOsFs()
	}
	register(scaffoldcmd.NewInitSiteHandler(scaffoldFs, loggerFor("scaffold")))

	if errs != nil && len(result.Handlers) == 0 {
		return result, errs
	}

	if len(result.Handlers) == 0 {
		return result, errors.New("no command handlers registered; ensure services are configured and required features enabled")
	}

	return result, errs
}
