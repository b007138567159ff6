package source_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"samilabs.app/pulse/internal/mention"
	"samilabs.app/pulse/internal/model"
	"samilabs.app/pulse/internal/source"
)

var _ = Describe("Reddit", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
		calls   atomic.Int32
	)

	BeforeEach(func() {
		calls.Store(0)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newAdapter := func() *source.Reddit {
		return source.NewReddit(source.Config{RedditURL: server.URL})
	}

	It("maps listing children to raw items with declared fields", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/search.json"))
			Expect(r.URL.Query().Get("q")).To(Equal("Acme"))
			Expect(r.Header.Get("User-Agent")).NotTo(BeEmpty())
			fmt.Fprint(w, `{"data":{"after":"","children":[
				{"data":{"title":"Acme launched a new widget line today","selftext":"","permalink":"/r/acme/1","created_utc":1700000000.0}},
				{"data":{"title":"","body":"I had a terrible time with Acme support","permalink":"/r/acme/2/c","created_utc":1700000100}}
			]}}`)
		}

		res := newAdapter().Fetch(context.Background(), "Acme", 10)
		Expect(res.Outcome.Kind).To(Equal(model.OutcomeOK))
		Expect(res.Outcome.Count).To(Equal(2))
		Expect(res.Items[0]["url"]).To(Equal("https://reddit.com/r/acme/1"))

		mentions, unresolved := mention.NormalizeAll(res.Items, newAdapter().Schema(), time.Now())
		Expect(unresolved).To(BeZero())
		Expect(mentions[1].Content).To(Equal("I had a terrible time with Acme support"))
		Expect(mentions[0].Timestamp).To(BeTemporally("==", time.Unix(1700000000, 0).UTC()))
	})

	It("follows the after cursor until the limit is met", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("after") == "" {
				fmt.Fprint(w, `{"data":{"after":"t3_next","children":[{"data":{"title":"first page post"}}]}}`)
				return
			}
			fmt.Fprint(w, `{"data":{"after":"t3_more","children":[{"data":{"title":"second page post"}},{"data":{"title":"extra"}}]}}`)
		}

		res := newAdapter().Fetch(context.Background(), "Acme", 2)
		Expect(res.Items).To(HaveLen(2))
		Expect(calls.Load()).To(Equal(int32(2)))
	})

	DescribeTable("classifies failures",
		func(status int, body string, expected model.OutcomeKind) {
			handler = func(w http.ResponseWriter, r *http.Request) {
				if status == http.StatusTooManyRequests {
					w.Header().Set("Retry-After", "7")
				}
				w.WriteHeader(status)
				fmt.Fprint(w, body)
			}
			res := newAdapter().Fetch(context.Background(), "Acme", 5)
			Expect(res.Items).To(BeEmpty())
			Expect(res.Outcome.Kind).To(Equal(expected))
			if expected == model.OutcomeRateLimited {
				Expect(res.Outcome.RetryAfter).To(Equal(7 * time.Second))
			}
		},
		Entry("rate limited", http.StatusTooManyRequests, "", model.OutcomeRateLimited),
		Entry("server error", http.StatusBadGateway, "", model.OutcomeSourceUnavailable),
		Entry("malformed json", http.StatusOK, "<html>blocked</html>", model.OutcomeParseError),
		Entry("no results", http.StatusOK, `{"data":{"children":[]}}`, model.OutcomeEmpty),
	)

	It("reports an unreachable host as unavailable", func() {
		server.Close()
		res := newAdapter().Fetch(context.Background(), "Acme", 5)
		Expect(res.Outcome.Kind).To(Equal(model.OutcomeSourceUnavailable))
	})

	It("reports a context deadline as unavailable", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		res := newAdapter().Fetch(ctx, "Acme", 5)
		Expect(res.Outcome.Kind).To(Equal(model.OutcomeSourceUnavailable))
	})
})
