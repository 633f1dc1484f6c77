package documents

import "strings"

const (
	listIncludeDrafts ListOption = "documents:list:include_drafts"
	listLocalePrefix  ListOption = "documents:list:locale:"
	listSectionPrefix ListOption = "documents:list:section:"
	listTagPrefix     ListOption = "documents:list:tag:"
)

type listOptions struct {
	includeDrafts bool
	locale        string
	section       string
	tag           string
}

func parseListOptions(args ...ListOption) listOptions {
	var opts listOptions
	for _, raw := range args {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		switch {
		case token == listIncludeDrafts:
			opts.includeDrafts = true
		case strings.HasPrefix(token, listLocalePrefix):
			opts.locale = strings.TrimPrefix(token, listLocalePrefix)
		case strings.HasPrefix(token, listSectionPrefix):
			opts.section = strings.TrimPrefix(token, listSectionPrefix)
		case strings.HasPrefix(token, listTagPrefix):
			opts.tag = strings.TrimPrefix(token, listTagPrefix)
		}
	}
	return opts
}
