package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"samilabs.app/pulse/common/logger"
	"samilabs.app/pulse/internal/conversation"
	"samilabs.app/pulse/internal/model"
)

// SessionSnapshot is a point-in-time copy of a session's turns.
type SessionSnapshot struct {
	ID        int64
	Window    int
	Turns     []model.Turn
	CreatedAt time.Time
}

// AskResult holds the reply and the session turns right after it was
// recorded.
type AskResult struct {
	SessionID int64
	Reply     conversation.Reply
	Turns     []model.Turn
}

type EntityAnalysis struct {
	AskResult
	Mentions *model.AggregationResult
}

type AnalysisService interface {
	CreateSession(ctx context.Context, systemPrompt string) (*SessionSnapshot, error)
	GetSession(ctx context.Context, sessionID int64) (*SessionSnapshot, error)
	DeleteSession(ctx context.Context, sessionID int64) error
	Ask(ctx context.Context, sessionID int64, question string, mode model.AnalysisMode) (*AskResult, error)
	AnalyzeEntity(ctx context.Context, sessionID int64, entity string, limit int, mode model.AnalysisMode) (*EntityAnalysis, error)
}

type analysisService struct {
	manager    *conversation.Manager
	analyst    *conversation.Analyst
	aggregator Aggregator
	store      *sessionStore
}

func NewAnalysisService(manager *conversation.Manager, invoker conversation.Invoker, aggregator Aggregator) AnalysisService {
	return &analysisService{
		manager:    manager,
		analyst:    conversation.NewAnalyst(invoker),
		aggregator: aggregator,
		store:      newSessionStore(),
	}
}

func (s *analysisService) CreateSession(ctx context.Context, systemPrompt string) (*SessionSnapshot, error) {
	if systemPrompt == "" {
		systemPrompt = conversation.DefaultSystemPrompt
	}
	e := s.store.add(s.manager.NewSession(systemPrompt))

	e.mu.Lock()
	defer e.mu.Unlock()

	slog.InfoContext(ctx, "session created", "session_id", e.id, "window", s.manager.Window())
	return snapshot(e), nil
}

func (s *analysisService) GetSession(ctx context.Context, sessionID int64) (*SessionSnapshot, error) {
	e, err := s.store.get(sessionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e), nil
}

func (s *analysisService) DeleteSession(ctx context.Context, sessionID int64) error {
	if err := s.store.delete(sessionID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "session deleted", "session_id", sessionID)
	return nil
}

// Ask records question and the answer in the session. Analysis failures are
// part of the reply, not the returned error.
func (s *analysisService) Ask(ctx context.Context, sessionID int64, question string, mode model.AnalysisMode) (*AskResult, error) {
	e, err := s.store.get(sessionID)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{SessionID: logger.Ptr(sessionID)})

	return s.ask(ctx, e, question, mode), nil
}

// AnalyzeEntity aggregates mentions of entity and asks for an analysis of
// them in the session.
func (s *analysisService) AnalyzeEntity(ctx context.Context, sessionID int64, entity string, limit int, mode model.AnalysisMode) (*EntityAnalysis, error) {
	e, err := s.store.get(sessionID)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{SessionID: logger.Ptr(sessionID)})

	result, err := s.aggregator.Aggregate(ctx, entity, limit)
	if err != nil {
		return nil, fmt.Errorf("analyzing %q: %w", entity, err)
	}

	prompt := conversation.BuildMentionsPrompt(result.Query, result.Mentions, conversation.DefaultPromptItems)

	return &EntityAnalysis{AskResult: *s.ask(ctx, e, prompt, mode), Mentions: result}, nil
}

func (s *analysisService) ask(ctx context.Context, e *sessionEntry, question string, mode model.AnalysisMode) *AskResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	reply := s.analyst.Ask(ctx, e.session, question, mode)
	return &AskResult{SessionID: e.id, Reply: reply, Turns: e.session.Turns()}
}

func snapshot(e *sessionEntry) *SessionSnapshot {
	return &SessionSnapshot{
		ID:        e.id,
		Window:    e.session.Window(),
		Turns:     e.session.Turns(),
		CreatedAt: e.createdAt,
	}
}
