package build

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-docsite/internal/builder"
)

const (
	buildSiteMessageType = "docsite.build.site"
	cleanSiteMessageType = "docsite.build.clean"
)

// ResultCallback receives the build result when one is produced. The
// callback is optional and invoked synchronously from the handler.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope carries the outcome of a build execution.
type ResultEnvelope struct {
	Result   *builder.BuildResult
	Metadata map[string]any
}

// BuildSiteCommand runs a site build. ConfigPath, ContentDir, and
// OutputDir describe the module the dispatching host constructed; the
// handler executes against its bound builder and surfaces them as
// structured log fields.
type BuildSiteCommand struct {
	ConfigPath    string         `json:"config_path,omitempty"`
	ContentDir    string         `json:"content_dir,omitempty"`
	OutputDir     string         `json:"output_dir,omitempty"`
	Locales       []string       `json:"locales,omitempty"`
	Force         bool           `json:"force,omitempty"`
	IncludeDrafts bool           `json:"include_drafts,omitempty"`
	Callback      ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate ensures requested locales are well-formed.
func (m BuildSiteCommand) Validate() error {
	errs := validation.Errors{}
	for _, locale := range m.Locales {
		if strings.TrimSpace(locale) == "" {
			errs["locales"] = validation.NewError("docsite.build.locale_invalid", "locales must not contain empty values")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CleanSiteCommand removes every output the last build manifest recorded.
type CleanSiteCommand struct {
	OutputDir string `json:"output_dir,omitempty"`
}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CleanSiteCommand) Validate() error { return nil }
