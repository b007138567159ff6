package model

import (
	"time"
)

// Attempt records one adapter invocation made by the orchestrator,
// including its retries.
type Attempt struct {
	Adapter   string        `json:"adapter"`
	Source    Source        `json:"source"`
	Outcome   OutcomeKind   `json:"outcome"`
	Tries     int           `json:"tries"`
	Requested int           `json:"requested"`
	Raw       int           `json:"raw"`
	Accepted  int           `json:"accepted"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// DropStats accounts for every raw item that did not become a mention.
type DropStats struct {
	Unresolved int `json:"unresolved"`
	LowQuality int `json:"low_quality"`
	Duplicate  int `json:"duplicate"`
	OverBudget int `json:"over_budget"`
}

// AggregationResult is the ordered mention collection produced for one query.
type AggregationResult struct {
	Query      string         `json:"query"`
	Mentions   []Mention      `json:"mentions"`
	Counts     map[Source]int `json:"counts"`
	Attempts   []Attempt      `json:"attempts"`
	Dropped    DropStats      `json:"dropped"`
	Partial    bool           `json:"partial"` // overall deadline hit before the chain finished
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Row is the flat export shape: content, source, date, url.
type Row struct {
	Content string
	Source  Source
	Date    time.Time
	URL     string
}

func (r *AggregationResult) Rows() []Row {
	rows := make([]Row, 0, len(r.Mentions))
	for _, m := range r.Mentions {
		row := Row{Content: m.Content, Source: m.Source, Date: m.Timestamp}
		if m.URL != nil {
			row.URL = *m.URL
		}
		rows = append(rows, row)
	}
	return rows
}
