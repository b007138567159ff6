package analysis

import (
	"encoding/json"
	"fmt"

	"samilabs.app/pulse/common/llm"
	"samilabs.app/pulse/internal/model"
)

// ReportPayload is the shape requested from the model in report mode.
type ReportPayload struct {
	OverallScore       float64                  `json:"overall_score" jsonschema_description:"Overall brand reputation score from 1 (very poor) to 10 (excellent)"`
	SentimentBreakdown model.SentimentBreakdown `json:"sentiment_breakdown" jsonschema_description:"Share of positive, negative and neutral mentions; the three values sum to 1"`
	TopStrengths       []string                 `json:"top_strengths" jsonschema_description:"Most frequently praised aspects, most important first"`
	TopWeaknesses      []string                 `json:"top_weaknesses" jsonschema_description:"Most frequent complaints, most important first"`
	BySource           []SourceScore            `json:"by_source" jsonschema_description:"Reputation score per mention source"`
	CrisisAlerts       []string                 `json:"crisis_alerts" jsonschema_description:"Issues that could escalate into a reputation crisis; empty if none"`
	Overview           string                   `json:"overview" jsonschema_description:"Two or three sentence summary"`
}

type SourceScore struct {
	Source string  `json:"source" jsonschema:"enum=forum,enum=review_site,enum=news,enum=social,enum=sample"`
	Score  float64 `json:"score" jsonschema_description:"Score from 1 to 10"`
}

const reportSchemaName = "brand_report"

var reportSchema = llm.GenerateSchema[ReportPayload]()

// ParseReport extracts the recognized top-level keys from a JSON analysis
// payload. Unrecognized keys are kept verbatim in Report.Extra.
func ParseReport(raw string) (*model.Report, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		return nil, fmt.Errorf("report is not a JSON object: %w", err)
	}

	report := &model.Report{}
	for key, value := range top {
		switch key {
		case "overall_score":
			var score float64
			if json.Unmarshal(value, &score) == nil {
				report.OverallScore = &score
			}
		case "sentiment_breakdown":
			var sb model.SentimentBreakdown
			if json.Unmarshal(value, &sb) == nil {
				report.SentimentBreakdown = &sb
			}
		case "top_strengths":
			_ = json.Unmarshal(value, &report.TopStrengths)
		case "top_weaknesses":
			_ = json.Unmarshal(value, &report.TopWeaknesses)
		default:
			if report.Extra == nil {
				report.Extra = make(map[string]json.RawMessage)
			}
			report.Extra[key] = value
		}
	}
	return report, nil
}
