package model

import (
	"encoding/json"
	"fmt"
)

type AnalysisMode string

const (
	// AnalysisSummary asks for a plain natural-language answer.
	AnalysisSummary AnalysisMode = "summary"
	// AnalysisReport asks for a structured JSON report.
	AnalysisReport AnalysisMode = "report"
)

func ParseAnalysisMode(s string) (AnalysisMode, error) {
	switch AnalysisMode(s) {
	case "", AnalysisSummary:
		return AnalysisSummary, nil
	case AnalysisReport:
		return AnalysisReport, nil
	default:
		return "", fmt.Errorf("unknown analysis mode %q", s)
	}
}

type SentimentBreakdown struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// Report holds the recognized top-level keys of a structured analysis.
// Anything else the model returned at the top level is kept in Extra.
type Report struct {
	OverallScore       *float64                   `json:"overall_score,omitempty"`
	SentimentBreakdown *SentimentBreakdown        `json:"sentiment_breakdown,omitempty"`
	TopStrengths       []string                   `json:"top_strengths,omitempty"`
	TopWeaknesses      []string                   `json:"top_weaknesses,omitempty"`
	Extra              map[string]json.RawMessage `json:"extra,omitempty"`
}

// AnalysisResult is what the analysis invoker returns for one request.
// Raw is stored verbatim as the assistant turn.
type AnalysisResult struct {
	Mode         AnalysisMode `json:"mode"`
	Raw          string       `json:"raw"`
	Report       *Report      `json:"report,omitempty"`
	PromptTokens int          `json:"prompt_tokens"`
	OutputTokens int          `json:"output_tokens"`
}
