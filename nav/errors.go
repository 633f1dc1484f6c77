package nav

import "errors"

var (
	ErrCorpusRequired     = errors.New("nav: documents service is required")
	ErrDefinitionRequired = errors.New("nav: site definition is required")
)
