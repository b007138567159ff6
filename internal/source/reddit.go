package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"samilabs.app/pulse/internal/mention"
	"samilabs.app/pulse/internal/model"
)

const (
	redditPageSize = 100
	redditMaxPages = 5
	redditLinkBase = "https://reddit.com"
)

// Reddit searches posts and comments through the public search.json listing.
// Field order: title, text (selftext), comment (body).
type Reddit struct {
	baseURL string
	cfg     Config
}

func NewReddit(cfg Config) *Reddit {
	cfg = cfg.withDefaults()
	return &Reddit{baseURL: strings.TrimRight(cfg.RedditURL, "/"), cfg: cfg}
}

func (r *Reddit) Name() string { return NameForum }

func (r *Reddit) Schema() mention.Schema {
	return mention.Schema{
		Source:        model.SourceForum,
		ContentFields: []string{"title", "text", "comment"},
		URLField:      "url",
		TimeField:     "created_utc",
		TimeLayouts:   []string{mention.TimeUnix},
	}
}

type redditListing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data struct {
				Title      string      `json:"title"`
				Selftext   string      `json:"selftext"`
				Body       string      `json:"body"`
				Permalink  string      `json:"permalink"`
				CreatedUTC json.Number `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *Reddit) Fetch(ctx context.Context, query string, limit int) Result {
	f := newFetcher(r.cfg)
	var items []model.RawItem
	after := ""

	for page := 0; page < redditMaxPages && len(items) < limit; page++ {
		params := url.Values{}
		params.Set("q", query)
		params.Set("sort", "new")
		params.Set("limit", strconv.Itoa(min(limit-len(items), redditPageSize)))
		if after != "" {
			params.Set("after", after)
		}

		body, err := f.get(ctx, r.baseURL+"/search.json?"+params.Encode(), "application/json")
		if err != nil {
			if page == 0 {
				return failed(outcomeOf(err))
			}
			break
		}

		var listing redditListing
		if err := json.Unmarshal(body, &listing); err != nil {
			if page == 0 {
				return failed(model.ParseError(fmt.Errorf("decode listing: %w", err)))
			}
			break
		}

		for _, child := range listing.Data.Children {
			d := child.Data
			item := model.RawItem{
				"title":       d.Title,
				"text":        d.Selftext,
				"comment":     d.Body,
				"created_utc": d.CreatedUTC.String(),
			}
			if d.Permalink != "" {
				item["url"] = redditLinkBase + d.Permalink
			}
			items = append(items, item)
		}

		after = listing.Data.After
		if after == "" || len(listing.Data.Children) == 0 {
			break
		}
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return succeeded(items)
}
