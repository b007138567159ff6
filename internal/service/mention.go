package service

import (
	"context"
	"fmt"
	"log/slog"

	"samilabs.app/pulse/internal/model"
)

// Aggregator collects mentions of a query. Implemented by the pipeline
// orchestrator.
type Aggregator interface {
	Aggregate(ctx context.Context, query string, limit int) (*model.AggregationResult, error)
}

type MentionService interface {
	Search(ctx context.Context, entity string, limit int) (*model.AggregationResult, error)
}

type mentionService struct {
	aggregator Aggregator
}

func NewMentionService(aggregator Aggregator) MentionService {
	return &mentionService{aggregator: aggregator}
}

func (s *mentionService) Search(ctx context.Context, entity string, limit int) (*model.AggregationResult, error) {
	result, err := s.aggregator.Aggregate(ctx, entity, limit)
	if err != nil {
		return nil, fmt.Errorf("searching mentions: %w", err)
	}

	slog.InfoContext(ctx, "mentions collected",
		"entity", entity,
		"mentions", len(result.Mentions),
		"partial", result.Partial)
	return result, nil
}
