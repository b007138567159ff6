package source

import (
	"fmt"
)

const (
	NameNews   = "news"
	NameSocial = "social"
	NameForum  = "forum"
	NameReview = "review"
	NameSample = "sample"
)

// DefaultOrder is the priority order adapters are tried in.
var DefaultOrder = []string{NameNews, NameSocial, NameForum, NameReview}

// Known reports whether Build accepts name.
func Known(name string) bool {
	switch name {
	case NameNews, NameSocial, NameForum, NameReview, NameSample:
		return true
	default:
		return false
	}
}

// Build instantiates adapters in the given order.
func Build(names []string, cfg Config) ([]Adapter, error) {
	adapters := make([]Adapter, 0, len(names))
	for _, name := range names {
		switch name {
		case NameNews:
			adapters = append(adapters, NewGoogleNews(cfg))
		case NameSocial:
			adapters = append(adapters, NewNitter(cfg))
		case NameForum:
			adapters = append(adapters, NewReddit(cfg))
		case NameReview:
			adapters = append(adapters, NewTrustpilot(cfg))
		case NameSample:
			adapters = append(adapters, NewSample())
		default:
			return nil, fmt.Errorf("unknown adapter %q", name)
		}
	}
	return adapters, nil
}
