package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"samilabs.app/pulse/internal/mention"
	"samilabs.app/pulse/internal/model"
)

const (
	nitterMaxPages = 3
	nitterLinkBase = "https://twitter.com"
	// Nitter renders tweet dates as e.g. "Mar 4, 2025 · 9:15 PM UTC".
	nitterDateLayout = "Jan 2, 2006 · 3:04 PM MST"
)

// Nitter scrapes the tweet search timeline of a Nitter instance.
// Field order: text.
type Nitter struct {
	baseURL string
	cfg     Config
}

func NewNitter(cfg Config) *Nitter {
	cfg = cfg.withDefaults()
	return &Nitter{baseURL: strings.TrimRight(cfg.NitterURL, "/"), cfg: cfg}
}

func (n *Nitter) Name() string { return NameSocial }

func (n *Nitter) Schema() mention.Schema {
	return mention.Schema{
		Source:        model.SourceSocial,
		ContentFields: []string{"text"},
		URLField:      "permalink",
		TimeField:     "date",
		TimeLayouts:   []string{nitterDateLayout},
	}
}

func (n *Nitter) Fetch(ctx context.Context, query string, limit int) Result {
	f := newFetcher(n.cfg)
	var items []model.RawItem
	cursor := ""

	for page := 0; page < nitterMaxPages && len(items) < limit; page++ {
		params := url.Values{}
		params.Set("f", "tweets")
		params.Set("q", query)
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		body, err := f.get(ctx, n.baseURL+"/search?"+params.Encode(), "text/html")
		if err != nil {
			if page == 0 {
				return failed(outcomeOf(err))
			}
			break
		}

		doc, err := html.Parse(bytes.NewReader(body))
		if err != nil {
			if page == 0 {
				return failed(model.ParseError(fmt.Errorf("parse timeline: %w", err)))
			}
			break
		}

		tweets := findAll(doc, isTweet)
		for _, t := range tweets {
			item := model.RawItem{"text": textContent(findFirst(t, byClass("tweet-content")))}
			if link := findFirst(t, byClass("tweet-link")); link != nil {
				if href, ok := attr(link, "href"); ok {
					item["permalink"] = nitterLinkBase + strings.TrimSuffix(href, "#m")
				}
			}
			if date := findFirst(t, byClass("tweet-date")); date != nil {
				if a := findFirst(date, byTag("a")); a != nil {
					item["date"], _ = attr(a, "title")
				}
			}
			items = append(items, item)
		}

		cursor = nextCursor(doc)
		if cursor == "" || len(tweets) == 0 {
			break
		}
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return succeeded(items)
}

// isTweet matches timeline entries. The "Load newest" banner on cursor pages
// is also a timeline-item and carries show-more.
func isTweet(n *html.Node) bool {
	return hasClass(n, "timeline-item") && !hasClass(n, "show-more")
}

// nextCursor reads the "Load more" link at the bottom of the timeline.
func nextCursor(doc *html.Node) string {
	more := findAll(doc, byClass("show-more"))
	if len(more) == 0 {
		return ""
	}
	a := findFirst(more[len(more)-1], byTag("a"))
	if a == nil {
		return ""
	}
	href, _ := attr(a, "href")
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get("cursor")
}
