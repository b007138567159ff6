package source

import (
	"context"
	"fmt"

	"samilabs.app/pulse/internal/mention"
	"samilabs.app/pulse/internal/model"
)

const sampleSize = 10

// Sample produces deterministic placeholder reviews without network access.
type Sample struct{}

func NewSample() *Sample { return &Sample{} }

func (s *Sample) Name() string { return NameSample }

func (s *Sample) Schema() mention.Schema {
	return mention.Schema{
		Source:        model.SourceSample,
		ContentFields: []string{"text"},
	}
}

func (s *Sample) Fetch(ctx context.Context, query string, limit int) Result {
	if err := ctx.Err(); err != nil {
		return failed(model.SourceUnavailable(err))
	}
	n := min(limit, sampleSize)
	items := make([]model.RawItem, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, model.RawItem{"text": fmt.Sprintf("Sample Trustpilot review for %s #%d", query, i)})
	}
	return succeeded(items)
}
