package model

import "time"

// Source identifies the kind of origin a mention was observed on.
type Source string

const (
	SourceForum      Source = "forum"
	SourceReviewSite Source = "review_site"
	SourceNews       Source = "news"
	SourceSocial     Source = "social"
	SourceSample     Source = "sample"
)

func (s Source) Valid() bool {
	switch s {
	case SourceForum, SourceReviewSite, SourceNews, SourceSocial, SourceSample:
		return true
	default:
		return false
	}
}

// RawItem is one record as an adapter scraped it. Field names are
// adapter-specific ("title", "text", "comment", "body", ...); each adapter
// declares which of them carry content, url and date.
type RawItem map[string]string

// Mention is a single observed piece of public text about the tracked entity.
// Mentions are created by the normalizer and never mutated afterwards.
type Mention struct {
	Content   string    `json:"content"`
	Source    Source    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	URL       *string   `json:"url,omitempty"`
	Publisher string    `json:"publisher,omitempty"` // e.g. the outlet of a news item
	DedupKey  string    `json:"dedup_key"`
}
