package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"samilabs.app/pulse/internal/mention"
	"samilabs.app/pulse/internal/model"
)

// GoogleNews reads the Google News RSS search feed for "<entity> stock".
// Field order: title, description.
type GoogleNews struct {
	baseURL string
	cfg     Config
}

func NewGoogleNews(cfg Config) *GoogleNews {
	cfg = cfg.withDefaults()
	return &GoogleNews{baseURL: strings.TrimRight(cfg.NewsURL, "/"), cfg: cfg}
}

func (g *GoogleNews) Name() string { return NameNews }

func (g *GoogleNews) Schema() mention.Schema {
	return mention.Schema{
		Source:         model.SourceNews,
		ContentFields:  []string{"title", "description"},
		URLField:       "link",
		TimeField:      "pubDate",
		TimeLayouts:    []string{time.RFC1123Z, time.RFC1123},
		PublisherField: "source",
	}
}

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			PubDate     string `xml:"pubDate"`
			Description string `xml:"description"`
			Source      string `xml:"source"`
		} `xml:"item"`
	} `xml:"channel"`
}

func (g *GoogleNews) Fetch(ctx context.Context, query string, limit int) Result {
	params := url.Values{}
	params.Set("q", query+" stock")
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	body, err := newFetcher(g.cfg).get(ctx, g.baseURL+"/rss/search?"+params.Encode(), "application/rss+xml, application/xml")
	if err != nil {
		return failed(outcomeOf(err))
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return failed(model.ParseError(fmt.Errorf("decode rss: %w", err)))
	}

	items := make([]model.RawItem, 0, min(len(feed.Channel.Items), limit))
	for _, it := range feed.Channel.Items {
		if len(items) >= limit {
			break
		}
		items = append(items, model.RawItem{
			"title":       it.Title,
			"description": stripTags(it.Description),
			"link":        it.Link,
			"pubDate":     it.PubDate,
			"source":      it.Source,
		})
	}
	return succeeded(items)
}
