package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"samilabs.app/pulse/common/logger"
	"samilabs.app/pulse/internal/model"
)

// Invoker is the external analysis capability.
type Invoker interface {
	Analyze(ctx context.Context, turns []model.Turn, mode model.AnalysisMode) (*model.AnalysisResult, error)
}

// Reply is the outcome of one question. When Failed is set, Content holds
// the failure description that was recorded as the assistant turn.
type Reply struct {
	Content string
	Result  *model.AnalysisResult
	Failed  bool
	Err     error
}

// Analyst asks questions within a session and records both sides.
type Analyst struct {
	invoker Invoker
}

func NewAnalyst(invoker Invoker) *Analyst {
	return &Analyst{invoker: invoker}
}

// Ask appends question as a user turn, calls the invoker with the bounded
// context and appends the answer. An invoker failure or panic becomes the
// assistant turn content and the session stays usable.
func (a *Analyst) Ask(ctx context.Context, s *Session, question string, mode model.AnalysisMode) Reply {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		AnalysisMode: logger.Ptr(string(mode)),
		Component:    "pulse.conversation.analyst",
	})
	sc := logger.StartSpan(ctx, "pulse.analysis.ask")
	defer sc.End()
	ctx = sc.Context()

	s.AppendUser(question)

	res, err := a.invoke(ctx, s.RequestContext(), mode)
	if err != nil {
		sc.RecordError(err)
		content := FailureContent(err)
		s.AppendAssistant(content)
		slog.WarnContext(ctx, "analysis failed, recorded as assistant turn", "error", err)
		return Reply{Content: content, Failed: true, Err: err}
	}

	s.AppendAssistant(res.Raw)
	slog.DebugContext(ctx, "analysis recorded",
		"turns", s.Len(),
		"answer", logger.Truncate(res.Raw, 120))
	return Reply{Content: res.Raw, Result: res}
}

func (a *Analyst) invoke(ctx context.Context, turns []model.Turn, mode model.AnalysisMode) (res *model.AnalysisResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("analysis invoker panicked: %v", p)
		}
	}()
	res, err = a.invoker.Analyze(ctx, turns, mode)
	if err == nil && res == nil {
		err = errors.New("analysis invoker returned no result")
	}
	return res, err
}

// FailureContent renders an analysis failure as assistant turn text.
func FailureContent(err error) string {
	return "Analysis failed: " + err.Error()
}
