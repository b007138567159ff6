package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"samilabs.app/pulse/internal/mention"
	"samilabs.app/pulse/internal/model"
)

const (
	trustpilotPageSize = 20
	trustpilotMaxPages = 5
)

// Trustpilot scrapes review cards from a company's review pages. Pages are
// fetched by a small worker pool that shares one pacer.
// Field order: body, title.
type Trustpilot struct {
	baseURL string
	cfg     Config
}

func NewTrustpilot(cfg Config) *Trustpilot {
	cfg = cfg.withDefaults()
	return &Trustpilot{baseURL: strings.TrimRight(cfg.TrustpilotURL, "/"), cfg: cfg}
}

func (t *Trustpilot) Name() string { return NameReview }

func (t *Trustpilot) Schema() mention.Schema {
	return mention.Schema{
		Source:        model.SourceReviewSite,
		ContentFields: []string{"body", "title"},
		URLField:      "url",
		TimeField:     "date",
		TimeLayouts:   []string{time.RFC3339Nano, time.RFC3339},
	}
}

// Slug maps an entity name to the Trustpilot company slug: a name that
// already looks like a domain is used as is, otherwise ".com" is appended.
func Slug(entity string) string {
	s := strings.ToLower(strings.Join(strings.Fields(entity), ""))
	if strings.Contains(s, ".") {
		return s
	}
	return s + ".com"
}

func (t *Trustpilot) Fetch(ctx context.Context, query string, limit int) Result {
	pages := min((limit+trustpilotPageSize-1)/trustpilotPageSize, trustpilotMaxPages)
	if pages < 1 {
		pages = 1
	}

	f := newFetcher(t.cfg)
	base := t.baseURL + "/review/" + url.PathEscape(Slug(query))
	perPage := make([]reviewPage, pages)
	var first model.FetchOutcome

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.MaxConcurrency)
	for i := range pages {
		page := i + 1
		g.Go(func() error {
			pageURL := base
			if page > 1 {
				pageURL = fmt.Sprintf("%s?page=%d", base, page)
			}
			body, err := f.get(gctx, pageURL, "text/html")
			if err != nil {
				if page == 1 {
					first = outcomeOf(err)
					return err
				}
				if !isNotFound(err) {
					perPage[i].failed = outcomeOf(err).String()
				}
				return nil
			}
			items, err := t.parsePage(body, pageURL)
			if err != nil {
				if page == 1 {
					first = model.ParseError(err)
					return err
				}
				perPage[i].failed = err.Error()
				return nil
			}
			perPage[i].items = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return failed(first)
	}

	var items []model.RawItem
	for i, p := range perPage {
		if p.failed != "" {
			slog.WarnContext(ctx, "review page skipped", "page", i+1, "error", p.failed)
			continue
		}
		if len(p.items) == 0 {
			// a 404 or an empty page means the reviews ran out
			break
		}
		items = append(items, p.items...)
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return succeeded(items)
}

// reviewPage is one fetched page. failed is set when a later page could not
// be read; the pages after it are still used.
type reviewPage struct {
	items  []model.RawItem
	failed string
}

func (t *Trustpilot) parsePage(body []byte, pageURL string) ([]model.RawItem, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse review page: %w", err)
	}
	base, _ := url.Parse(pageURL)

	var items []model.RawItem
	for _, card := range findAll(doc, byTag("article")) {
		item := model.RawItem{
			"body":  textContent(findFirst(card, byAttr("data-service-review-text-typography"))),
			"title": textContent(findFirst(card, byAttr("data-service-review-title-typography"))),
		}
		if ts := findFirst(card, byTag("time")); ts != nil {
			item["date"], _ = attr(ts, "datetime")
		}
		if link := findFirst(card, func(n *html.Node) bool {
			href, ok := attr(n, "href")
			return n.Data == "a" && ok && strings.Contains(href, "/reviews/")
		}); link != nil && base != nil {
			href, _ := attr(link, "href")
			if ref, err := url.Parse(href); err == nil {
				item["url"] = base.ResolveReference(ref).String()
			}
		}
		items = append(items, item)
	}
	return items, nil
}
