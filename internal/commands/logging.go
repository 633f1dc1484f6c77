package commands

import (
	"strings"

	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

const commandModuleRoot = "docsite.commands"

// CommandLogger returns a logger scoped under the docsite.commands namespace.
// Every entry carries the component and command_module fields so handler logs
// from different command packages stay filterable.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}

	return logging.WithFields(
		logging.ModuleLogger(provider, commandModuleRoot+"."+name),
		map[string]any{
			"component":      "command",
			"command_module": name,
		},
	)
}
