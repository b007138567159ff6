package dto

import (
	"time"

	"samilabs.app/pulse/internal/model"
)

const DefaultSearchLimit = 20

type SearchMentionsRequest struct {
	Entity string `json:"entity" binding:"required,min=1,max=200"`
	Limit  int    `json:"limit" binding:"omitempty,min=1,max=500"`
}

type MentionResponse struct {
	Content   string       `json:"content"`
	Source    model.Source `json:"source"`
	Timestamp time.Time    `json:"timestamp"`
	URL       *string      `json:"url,omitempty"`
	Publisher string       `json:"publisher,omitempty"`
}

type AttemptResponse struct {
	Adapter    string            `json:"adapter"`
	Source     model.Source      `json:"source"`
	Outcome    model.OutcomeKind `json:"outcome"`
	Tries      int               `json:"tries"`
	Requested  int               `json:"requested"`
	Accepted   int               `json:"accepted"`
	Error      string            `json:"error,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

type SearchMentionsResponse struct {
	Entity     string               `json:"entity"`
	Mentions   []MentionResponse    `json:"mentions"`
	Counts     map[model.Source]int `json:"counts"`
	Attempts   []AttemptResponse    `json:"attempts"`
	Dropped    model.DropStats      `json:"dropped"`
	Partial    bool                 `json:"partial"`
	DurationMs int64                `json:"duration_ms"`
}

type NoDataResponse struct {
	Error        string   `json:"error"`
	SourcesTried []string `json:"sources_tried"`
}

func ToSearchMentionsResponse(r *model.AggregationResult) *SearchMentionsResponse {
	mentions := make([]MentionResponse, 0, len(r.Mentions))
	for _, m := range r.Mentions {
		mentions = append(mentions, MentionResponse{
			Content:   m.Content,
			Source:    m.Source,
			Timestamp: m.Timestamp,
			URL:       m.URL,
			Publisher: m.Publisher,
		})
	}
	attempts := make([]AttemptResponse, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		attempts = append(attempts, AttemptResponse{
			Adapter:    a.Adapter,
			Source:     a.Source,
			Outcome:    a.Outcome,
			Tries:      a.Tries,
			Requested:  a.Requested,
			Accepted:   a.Accepted,
			Error:      a.Error,
			DurationMs: a.Duration.Milliseconds(),
		})
	}
	return &SearchMentionsResponse{
		Entity:     r.Query,
		Mentions:   mentions,
		Counts:     r.Counts,
		Attempts:   attempts,
		Dropped:    r.Dropped,
		Partial:    r.Partial,
		DurationMs: r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
	}
}
