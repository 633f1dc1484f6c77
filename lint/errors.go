package lint

import "errors"

var ErrCorpusRequired = errors.New("lint: documents service is required")
