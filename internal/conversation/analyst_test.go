package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"samilabs.app/pulse/internal/conversation"
	"samilabs.app/pulse/internal/model"
)

type mockInvoker struct {
	analyzeFn func(ctx context.Context, turns []model.Turn, mode model.AnalysisMode) (*model.AnalysisResult, error)
	seen      [][]model.Turn
}

func (m *mockInvoker) Analyze(ctx context.Context, turns []model.Turn, mode model.AnalysisMode) (*model.AnalysisResult, error) {
	m.seen = append(m.seen, turns)
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, turns, mode)
	}
	return &model.AnalysisResult{Mode: mode, Raw: "answer to " + turns[len(turns)-1].Content}, nil
}

var _ = Describe("Analyst", func() {
	var (
		invoker *mockInvoker
		analyst *conversation.Analyst
		session *conversation.Session
	)

	BeforeEach(func() {
		invoker = &mockInvoker{}
		analyst = conversation.NewAnalyst(invoker)
		session = conversation.NewManager(6).NewSession(conversation.DefaultSystemPrompt)
	})

	It("records the question and the answer", func() {
		reply := analyst.Ask(context.Background(), session, "how is Acme?", model.AnalysisSummary)
		Expect(reply.Failed).To(BeFalse())
		Expect(reply.Content).To(Equal("answer to how is Acme?"))

		turns := session.Turns()
		Expect(turns).To(HaveLen(3))
		Expect(turns[1].Role).To(Equal(model.RoleUser))
		Expect(turns[2].Role).To(Equal(model.RoleAssistant))
	})

	It("sends a bounded context no matter how many rounds have run", func() {
		for i := 0; i < 10; i++ {
			analyst.Ask(context.Background(), session, fmt.Sprintf("q%d", i), model.AnalysisSummary)
		}
		for _, sent := range invoker.seen {
			Expect(len(sent)).To(BeNumerically("<=", 7))
			Expect(sent[0].Role).To(Equal(model.RoleSystem))
		}
	})

	It("records an analysis error as the assistant turn and stays usable", func() {
		invoker.analyzeFn = func(context.Context, []model.Turn, model.AnalysisMode) (*model.AnalysisResult, error) {
			return nil, errors.New("rate limited by provider")
		}

		reply := analyst.Ask(context.Background(), session, "how is Acme?", model.AnalysisSummary)
		Expect(reply.Failed).To(BeTrue())
		Expect(reply.Err).To(MatchError("rate limited by provider"))
		Expect(reply.Content).To(Equal("Analysis failed: rate limited by provider"))
		Expect(session.Turns()[2].Content).To(Equal(reply.Content))

		invoker.analyzeFn = nil
		reply = analyst.Ask(context.Background(), session, "try again", model.AnalysisSummary)
		Expect(reply.Failed).To(BeFalse())
		Expect(session.Len()).To(Equal(4))
	})

	It("survives a panicking invoker", func() {
		invoker.analyzeFn = func(context.Context, []model.Turn, model.AnalysisMode) (*model.AnalysisResult, error) {
			panic("boom")
		}

		reply := analyst.Ask(context.Background(), session, "q", model.AnalysisSummary)
		Expect(reply.Failed).To(BeTrue())
		Expect(reply.Content).To(ContainSubstring("panicked"))
	})

	It("treats a nil result as a failure", func() {
		invoker.analyzeFn = func(context.Context, []model.Turn, model.AnalysisMode) (*model.AnalysisResult, error) {
			return nil, nil
		}

		reply := analyst.Ask(context.Background(), session, "q", model.AnalysisSummary)
		Expect(reply.Failed).To(BeTrue())
	})
})

var _ = Describe("BuildMentionsPrompt", func() {
	mentions := func(n int) []model.Mention {
		out := make([]model.Mention, n)
		for i := range out {
			out[i] = model.Mention{Content: fmt.Sprintf("comment %d\nwith   newline", i+1), Timestamp: time.Now()}
		}
		return out
	}

	It("renders the header and one bullet per mention", func() {
		prompt := conversation.BuildMentionsPrompt("Acme", mentions(2), 10)
		Expect(prompt).To(Equal("Based on the following user comments about 'Acme', summarize sentiment and brand reputation:\n\n" +
			"- comment 1 with newline\n" +
			"- comment 2 with newline\n"))
	})

	It("caps the number of mentions", func() {
		prompt := conversation.BuildMentionsPrompt("Acme", mentions(25), 10)
		Expect(strings.Count(prompt, "\n- ")).To(Equal(10))
	})

	It("defaults to ten items", func() {
		prompt := conversation.BuildMentionsPrompt("Acme", mentions(25), 0)
		Expect(strings.Count(prompt, "\n- ")).To(Equal(10))
	})
})
