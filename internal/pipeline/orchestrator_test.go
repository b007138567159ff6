package pipeline_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"samilabs.app/pulse/internal/model"
	"samilabs.app/pulse/internal/pipeline"
	"samilabs.app/pulse/internal/source"
)

var _ = Describe("Orchestrator", func() {
	var (
		cfg    pipeline.Config
		forum  *mockAdapter
		review *mockAdapter
		news   *mockAdapter
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg = pipeline.Config{
			MinYield:          5,
			QualityThreshold:  30,
			PerAdapterTimeout: time.Second,
			Retry:             pipeline.RetryPolicy{MaxRetries: 1, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond},
		}
		forum = &mockAdapter{name: "forum", src: model.SourceForum}
		review = &mockAdapter{name: "review", src: model.SourceReviewSite}
		news = &mockAdapter{name: "news", src: model.SourceNews}
	})

	aggregate := func(limit int, adapters ...source.Adapter) (*model.AggregationResult, error) {
		return pipeline.NewOrchestrator(adapters, cfg).Aggregate(ctx, "Acme", limit)
	}

	It("takes qualifying forum mentions then fills the remaining budget from reviews", func() {
		forum.fetchFn = itemsFn(
			longText("Acme forum thread one"),
			"too short",
			longText("Acme forum thread two"),
		)
		review.fetchFn = itemsFn(numbered("Acme review", 5)...)

		res, err := aggregate(5, forum, review)
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Mentions).To(HaveLen(5))
		Expect(res.Mentions[0].Source).To(Equal(model.SourceForum))
		Expect(res.Mentions[1].Source).To(Equal(model.SourceForum))
		Expect(res.Counts).To(Equal(map[model.Source]int{model.SourceForum: 2, model.SourceReviewSite: 3}))
		Expect(review.Limits()).To(Equal([]int{3}))
		Expect(res.Dropped.LowQuality).To(Equal(1))
		Expect(res.Attempts).To(HaveLen(2))
		Expect(res.Attempts[1].Requested).To(Equal(3))
		Expect(res.Attempts[1].Accepted).To(Equal(3))
		Expect(res.Partial).To(BeFalse())
	})

	It("never invokes later adapters once the first meets the minimum yield", func() {
		news.fetchFn = itemsFn(numbered("Acme news", 10)...)

		res, err := aggregate(20, news, forum, review)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Mentions).To(HaveLen(10))
		Expect(news.Calls()).To(Equal(1))
		Expect(forum.Calls()).To(BeZero())
		Expect(review.Calls()).To(BeZero())
	})

	It("stops at the limit when the limit is below the minimum yield", func() {
		news.fetchFn = itemsFn(numbered("Acme news", 2)...)
		forum.fetchFn = itemsFn(numbered("Acme forum", 2)...)

		res, err := aggregate(2, news, forum)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Mentions).To(HaveLen(2))
		Expect(forum.Calls()).To(BeZero())
	})

	It("drops duplicates across adapters keeping the first-seen mention", func() {
		shared := longText("Acme customer support is great")
		news.fetchFn = itemsFn(shared)
		forum.fetchFn = itemsFn("ACME customer   support is GREAT detail detail detail detail detail", longText("Acme forum unique"))

		res, err := aggregate(10, news, forum)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Mentions).To(HaveLen(2))
		Expect(res.Mentions[0].Source).To(Equal(model.SourceNews))
		Expect(res.Dropped.Duplicate).To(Equal(1))
		Expect(forum.Limits()).To(Equal([]int{9}))
	})

	It("truncates an adapter that returns more than it was asked for", func() {
		news.fetchFn = func(context.Context, string, int) source.Result {
			return itemsFn(numbered("Acme news", 8)...)(ctx, "", 8)
		}

		res, err := aggregate(3, news)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Mentions).To(HaveLen(3))
		Expect(res.Dropped.OverBudget).To(Equal(5))
	})

	It("counts unresolved records", func() {
		news.fetchFn = func(context.Context, string, int) source.Result {
			return source.Result{
				Items:   []model.RawItem{{"headline": "wrong field"}, {"text": longText("Acme ok")}},
				Outcome: model.Ok(2),
			}
		}

		res, err := aggregate(5, news)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Dropped.Unresolved).To(Equal(1))
	})

	Describe("failures", func() {
		It("survives an adapter that always fails and records it", func() {
			news.fetchFn = func(context.Context, string, int) source.Result {
				return source.Result{Outcome: model.SourceUnavailable(errors.New("connection refused"))}
			}
			forum.fetchFn = itemsFn(numbered("Acme forum", 5)...)

			res, err := aggregate(5, news, forum)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Mentions).To(HaveLen(5))
			Expect(res.Attempts[0].Outcome).To(Equal(model.OutcomeSourceUnavailable))
			Expect(res.Attempts[0].Error).To(ContainSubstring("connection refused"))
			Expect(res.Attempts[0].Tries).To(Equal(2))
			Expect(news.Calls()).To(Equal(2))
		})

		It("retries a transient failure with the same budget", func() {
			news.fetchFn = func(_ context.Context, q string, limit int) source.Result {
				if news.Calls() == 1 {
					return source.Result{Outcome: model.RateLimited(0, errors.New("http 429"))}
				}
				return itemsFn(numbered("Acme news", 5)...)(ctx, q, limit)
			}

			res, err := aggregate(5, news)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Mentions).To(HaveLen(5))
			Expect(news.Limits()).To(Equal([]int{5, 5}))
			Expect(res.Attempts[0].Tries).To(Equal(2))
		})

		It("does not retry parse errors or empty results", func() {
			news.fetchFn = func(context.Context, string, int) source.Result {
				return source.Result{Outcome: model.ParseError(errors.New("unexpected markup"))}
			}
			forum.fetchFn = func(context.Context, string, int) source.Result {
				return source.Result{Outcome: model.Empty()}
			}
			review.fetchFn = itemsFn(numbered("Acme review", 1)...)

			_, err := aggregate(5, news, forum, review)
			Expect(err).NotTo(HaveOccurred())
			Expect(news.Calls()).To(Equal(1))
			Expect(forum.Calls()).To(Equal(1))
		})

		It("honours a zero retry budget", func() {
			cfg.Retry.MaxRetries = 0
			news.fetchFn = func(context.Context, string, int) source.Result {
				return source.Result{Outcome: model.SourceUnavailable(errors.New("down"))}
			}
			forum.fetchFn = itemsFn(numbered("Acme forum", 1)...)

			_, err := aggregate(5, news, forum)
			Expect(err).NotTo(HaveOccurred())
			Expect(news.Calls()).To(Equal(1))
		})

		It("caps retries at two", func() {
			cfg.Retry.MaxRetries = 9
			news.fetchFn = func(context.Context, string, int) source.Result {
				return source.Result{Outcome: model.SourceUnavailable(errors.New("down"))}
			}
			forum.fetchFn = itemsFn(numbered("Acme forum", 1)...)

			_, err := aggregate(5, news, forum)
			Expect(err).NotTo(HaveOccurred())
			Expect(news.Calls()).To(Equal(3))
		})

		It("treats an adapter timeout as unavailable and moves on", func() {
			cfg.PerAdapterTimeout = 20 * time.Millisecond
			cfg.Retry.MaxRetries = 0
			news.fetchFn = func(ctx context.Context, _ string, _ int) source.Result {
				<-ctx.Done()
				return source.Result{Outcome: model.SourceUnavailable(ctx.Err())}
			}
			forum.fetchFn = itemsFn(numbered("Acme forum", 3)...)

			res, err := aggregate(5, news, forum)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Attempts[0].Outcome).To(Equal(model.OutcomeSourceUnavailable))
			Expect(res.Mentions).To(HaveLen(3))
		})

		It("does not wait on an adapter that ignores its context", func() {
			cfg.PerAdapterTimeout = 20 * time.Millisecond
			cfg.Retry.MaxRetries = 0
			release := make(chan struct{})
			DeferCleanup(func() { close(release) })
			news.fetchFn = func(context.Context, string, int) source.Result {
				<-release
				return source.Result{Outcome: model.Empty()}
			}
			forum.fetchFn = itemsFn(numbered("Acme forum", 1)...)

			res, err := aggregate(5, news, forum)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Attempts[0].Error).To(ContainSubstring("timed out"))
		})

		It("recovers from a panicking adapter", func() {
			cfg.Retry.MaxRetries = 0
			news.fetchFn = func(context.Context, string, int) source.Result {
				panic("nil map write")
			}
			forum.fetchFn = itemsFn(numbered("Acme forum", 2)...)

			res, err := aggregate(5, news, forum)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Attempts[0].Outcome).To(Equal(model.OutcomeSourceUnavailable))
			Expect(res.Attempts[0].Error).To(ContainSubstring("panicked"))
			Expect(res.Mentions).To(HaveLen(2))
		})
	})

	Describe("no data", func() {
		It("returns NoDataFound with every adapter attempted when all are empty", func() {
			_, err := aggregate(5, news, forum, review)
			Expect(err).To(MatchError(pipeline.ErrNoDataFound))

			var nd *pipeline.NoDataFoundError
			Expect(errors.As(err, &nd)).To(BeTrue())
			Expect(nd.SourcesTried()).To(Equal([]string{"news", "forum", "review"}))
			Expect(nd.Attempts).To(HaveLen(3))
			for _, a := range nd.Attempts {
				Expect(a.Outcome).To(Equal(model.OutcomeEmpty))
			}
			Expect(err.Error()).To(ContainSubstring("sources tried: [news, forum, review]"))
		})

		It("returns NoDataFound when everything was filtered out", func() {
			news.fetchFn = itemsFn("short", "also short")

			_, err := aggregate(5, news)
			Expect(err).To(MatchError(pipeline.ErrNoDataFound))
		})
	})

	Describe("overall deadline", func() {
		It("finishes with what was collected so far", func() {
			cfg.OverallDeadline = 50 * time.Millisecond
			news.fetchFn = itemsFn(numbered("Acme news", 2)...)
			forum.fetchFn = func(ctx context.Context, _ string, _ int) source.Result {
				<-ctx.Done()
				return source.Result{Outcome: model.SourceUnavailable(ctx.Err())}
			}

			res, err := aggregate(10, news, forum, review)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Partial).To(BeTrue())
			Expect(res.Mentions).To(HaveLen(2))
			Expect(review.Calls()).To(BeZero())
		})

		It("reports NoDataFound when the deadline expires before anything arrives", func() {
			cfg.OverallDeadline = 30 * time.Millisecond
			news.fetchFn = func(ctx context.Context, _ string, _ int) source.Result {
				<-ctx.Done()
				return source.Result{Outcome: model.SourceUnavailable(ctx.Err())}
			}

			_, err := aggregate(10, news, forum)
			var nd *pipeline.NoDataFoundError
			Expect(errors.As(err, &nd)).To(BeTrue())
			Expect(nd.Partial).To(BeTrue())
			Expect(forum.Calls()).To(BeZero())
		})
	})

	It("returns the caller's cancellation", func() {
		c, cancel := context.WithCancel(context.Background())
		ctx = c
		news.fetchFn = func(context.Context, string, int) source.Result {
			cancel()
			return source.Result{Outcome: model.Empty()}
		}

		_, err := aggregate(5, news, forum)
		Expect(err).To(MatchError(context.Canceled))
	})

	DescribeTable("rejects invalid input",
		func(query string, limit int, expected error) {
			_, err := pipeline.NewOrchestrator(nil, cfg).Aggregate(ctx, query, limit)
			Expect(err).To(MatchError(expected))
		},
		Entry("blank query", "   ", 5, pipeline.ErrEmptyQuery),
		Entry("zero limit", "Acme", 0, pipeline.ErrInvalidLimit),
	)

	It("keeps every mention above the quality floor", func() {
		news.fetchFn = itemsFn("tiny", longText("Acme one"), "   padded but short    ", longText("Acme two"))

		res, err := aggregate(10, news)
		Expect(err).NotTo(HaveOccurred())
		for _, m := range res.Mentions {
			Expect(len([]rune(m.Content))).To(BeNumerically(">=", 30))
		}
	})
})
