package docsite

import "github.com/goliatone/go-docsite/internal/runtimeconfig"

var (
	ErrContentDirRequired      = runtimeconfig.ErrContentDirRequired
	ErrOutputDirRequired       = runtimeconfig.ErrOutputDirRequired
	ErrThemesFeatureRequired   = runtimeconfig.ErrThemesFeatureRequired
	ErrWatchRequiresServe      = runtimeconfig.ErrWatchRequiresServe
	ErrSearchFeatureRequired   = runtimeconfig.ErrSearchFeatureRequired
	ErrWorkerCountInvalid      = runtimeconfig.ErrWorkerCountInvalid
	ErrLintLevelInvalid        = runtimeconfig.ErrLintLevelInvalid
	ErrDefaultLocaleUnknown    = runtimeconfig.ErrDefaultLocaleUnknown
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config               = runtimeconfig.Config
	ContentConfig        = runtimeconfig.ContentConfig
	SiteConfig           = runtimeconfig.SiteConfig
	BuildConfig          = runtimeconfig.BuildConfig
	NavigationConfig     = runtimeconfig.NavigationConfig
	ThemeConfig          = runtimeconfig.ThemeConfig
	SearchConfig         = runtimeconfig.SearchConfig
	ServeConfig          = runtimeconfig.ServeConfig
	LintConfig           = runtimeconfig.LintConfig
	MarkdownParserConfig = runtimeconfig.MarkdownParserConfig
	Features             = runtimeconfig.Features
	CommandsConfig       = runtimeconfig.CommandsConfig
	LoggingConfig        = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
