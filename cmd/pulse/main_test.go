package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"samilabs.app/pulse/core/config"
	"samilabs.app/pulse/internal/analysis"
	"samilabs.app/pulse/internal/conversation"
	"samilabs.app/pulse/internal/export"
	"samilabs.app/pulse/internal/model"
	"samilabs.app/pulse/internal/pipeline"
	"samilabs.app/pulse/internal/service"
	"samilabs.app/pulse/internal/source"
)

type fakeAggregator struct {
	err error
}

func (f fakeAggregator) Aggregate(context.Context, string, int) (*model.AggregationResult, error) {
	return nil, f.err
}

type recordingInvoker struct {
	mu    sync.Mutex
	calls [][]model.Turn
	err   error
}

func (r *recordingInvoker) Analyze(_ context.Context, turns []model.Turn, mode model.AnalysisMode) (*model.AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, turns)
	if r.err != nil {
		return nil, r.err
	}
	return &model.AnalysisResult{Mode: mode, Raw: "answer " + string(rune('A'+len(r.calls)-1))}, nil
}

var _ = Describe("pulse", func() {
	var (
		a       *app
		invoker *recordingInvoker
		stdout  *bytes.Buffer
		stderr  *bytes.Buffer
		stdin   string
	)

	BeforeEach(func() {
		invoker = &recordingInvoker{}
		stdout, stderr, stdin = &bytes.Buffer{}, &bytes.Buffer{}, ""

		a = &app{
			loadConfig: func() (config.Config, error) {
				cfg := config.Config{Env: "test", Aggregation: config.DefaultAggregation()}
				cfg.Aggregation.AdapterOrder = []string{"sample"}
				cfg.Aggregation.JitterMin, cfg.Aggregation.JitterMax = 0, 0
				return cfg, nil
			},
			newAggregator: func(cfg config.Config) (service.Aggregator, error) {
				adapters, err := source.Build(cfg.Aggregation.AdapterOrder, source.Config{})
				if err != nil {
					return nil, err
				}
				return pipeline.NewOrchestrator(adapters, pipeline.Config{MinYield: cfg.Aggregation.MinYield}), nil
			},
			newInvoker: func(config.LLMConfig) (conversation.Invoker, error) {
				return invoker, nil
			},
		}
	})

	run := func(args ...string) error {
		root := newRootCmd(a)
		root.SetArgs(args)
		root.SetOut(stdout)
		root.SetErr(stderr)
		root.SetIn(strings.NewReader(stdin))
		return root.ExecuteContext(context.Background())
	}

	Describe("search", func() {
		It("prints a table by default", func() {
			Expect(run("search", "Acme", "--limit", "3")).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("SOURCE"))
			Expect(stdout.String()).To(ContainSubstring("Sample Trustpilot review for Acme #3"))
			Expect(stdout.String()).To(ContainSubstring("3 mentions from 1 sources tried: sample=ok(+3)"))
		})

		It("writes csv rows", func() {
			Expect(run("search", "Acme", "Corp", "-n", "2", "-f", "csv")).To(Succeed())

			records, err := csv.NewReader(stdout).ReadAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(3))
			Expect(records[0]).To(Equal([]string{"content", "source", "date", "url"}))
			Expect(records[1][0]).To(Equal("Sample Trustpilot review for Acme Corp #1"))
			Expect(records[1][1]).To(Equal("sample"))
		})

		It("writes json to a file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "out.json")
			Expect(run("search", "Acme", "-f", "json", "-o", path)).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			var result model.AggregationResult
			Expect(json.Unmarshal(data, &result)).To(Succeed())
			Expect(result.Query).To(Equal("Acme"))
			Expect(result.Mentions).To(HaveLen(10))
			Expect(stderr.String()).To(ContainSubstring("Saved 10 mentions"))
		})

		It("names the file after the entity when given a directory", func() {
			dir := GinkgoT().TempDir()
			Expect(run("search", "Acme", "Corp", "-f", "csv", "-o", dir)).To(Succeed())
			Expect(filepath.Join(dir, "acme-corp_mentions.csv")).To(BeARegularFile())
		})

		It("reports the sources tried when nothing is found", func() {
			a.newAggregator = func(config.Config) (service.Aggregator, error) {
				return fakeAggregator{err: &pipeline.NoDataFoundError{
					Query:    "Nobody",
					Attempts: []model.Attempt{{Adapter: "news"}, {Adapter: "social"}},
				}}, nil
			}

			err := run("search", "Nobody")
			Expect(err).To(MatchError(pipeline.ErrNoDataFound))
			Expect(stderr.String()).To(ContainSubstring("Sources tried: news, social"))
		})

		It("rejects an unknown format and an unknown adapter", func() {
			Expect(run("search", "Acme", "-f", "xml")).To(MatchError(ContainSubstring("unknown format")))
			Expect(run("search", "Acme", "--adapters", "myspace")).To(HaveOccurred())
		})
	})

	Describe("analyze", func() {
		It("asks about the collected mentions", func() {
			Expect(run("analyze", "Acme", "-n", "5")).To(Succeed())

			Expect(invoker.calls).To(HaveLen(1))
			turns := invoker.calls[0]
			Expect(turns[0].Role).To(Equal(model.RoleSystem))
			Expect(turns[1].Content).To(HavePrefix("Based on the following user comments about 'Acme'"))
			Expect(stdout.String()).To(ContainSubstring("Collected 5 mentions of Acme"))
			Expect(stdout.String()).To(ContainSubstring("answer A"))
		})

		It("keeps follow-up questions within the window", func() {
			stdin = "q1\n\nq2\nq3\nq4\nquit\nq5\n"
			Expect(run("analyze", "Acme", "-i")).To(Succeed())

			Expect(invoker.calls).To(HaveLen(5))
			for _, turns := range invoker.calls {
				Expect(len(turns) - 1).To(BeNumerically("<=", config.DefaultAggregation().WindowSize))
			}
			last := invoker.calls[4]
			Expect(last[len(last)-1].Content).To(Equal("q4"))
			Expect(stdout.String()).To(ContainSubstring("answer E"))
		})

		It("prints a failed analysis and still saves the mentions", func() {
			invoker.err = context.DeadlineExceeded
			path := filepath.Join(GinkgoT().TempDir(), "report.json")

			Expect(run("analyze", "Acme", "--save", path)).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("Analysis failed: context deadline exceeded"))

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"entity": "Acme"`))
			Expect(string(data)).NotTo(ContainSubstring(`"analysis"`))
		})

		It("suggests asking again after a retryable failure", func() {
			invoker.err = analysis.NewRetryableError(errors.New("http 503"))

			Expect(run("analyze", "Acme")).To(Succeed())
			Expect(stdout.String()).To(ContainSubstring("Analysis failed: http 503"))
			Expect(stdout.String()).To(ContainSubstring("asking again may work"))
		})

		It("rejects an unknown mode", func() {
			Expect(run("analyze", "Acme", "--mode", "poem")).To(MatchError(ContainSubstring("unknown analysis mode")))
		})
	})
})

type closeFailer struct {
	bytes.Buffer
	closeErr error
	closed   int
}

func (c *closeFailer) Close() error {
	c.closed++
	return c.closeErr
}

var _ = Describe("writeAndClose", func() {
	It("returns a close failure after a successful write", func() {
		wc := &closeFailer{closeErr: errors.New("disk full")}
		err := writeAndClose(wc, func(w io.Writer) error {
			_, err := io.WriteString(w, "{}")
			return err
		})
		Expect(err).To(MatchError(ContainSubstring("disk full")))
		Expect(wc.closed).To(Equal(1))
	})

	It("prefers the write error and still closes", func() {
		wc := &closeFailer{closeErr: errors.New("disk full")}
		err := writeAndClose(wc, func(io.Writer) error { return errors.New("encode failed") })
		Expect(err).To(MatchError("encode failed"))
		Expect(wc.closed).To(Equal(1))
	})

	It("succeeds when both write and close do", func() {
		wc := &closeFailer{}
		Expect(writeAndClose(wc, func(w io.Writer) error {
			_, err := io.WriteString(w, "ok")
			return err
		})).To(Succeed())
		Expect(wc.String()).To(Equal("ok"))
	})
})

var _ = Describe("saveReport", func() {
	It("reports a path that cannot be created", func() {
		path := filepath.Join(GinkgoT().TempDir(), "missing", "report.json")
		Expect(saveReport(path, export.Report{Entity: "Acme"})).To(HaveOccurred())
	})
})
