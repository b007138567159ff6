package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"samilabs.app/pulse/internal/model"
)

var Header = []string{"content", "source", "date", "url"}

// WriteCSV writes the flat content,source,date,url table.
func WriteCSV(w io.Writer, rows []model.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Content, string(r.Source), r.Date.UTC().Format(time.RFC3339), r.URL}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Report is the downloadable bundle of one analysis: the mentions it was
// based on and the model's answer.
type Report struct {
	Entity      string                `json:"entity"`
	GeneratedAt time.Time             `json:"generated_at"`
	Counts      map[model.Source]int  `json:"counts"`
	Mentions    []model.Mention       `json:"mentions"`
	Analysis    *model.AnalysisResult `json:"analysis,omitempty"`
}

func NewReport(result *model.AggregationResult, analysis *model.AnalysisResult) Report {
	return Report{
		Entity:      result.Query,
		GeneratedAt: time.Now().UTC(),
		Counts:      result.Counts,
		Mentions:    result.Mentions,
		Analysis:    analysis,
	}
}

func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
