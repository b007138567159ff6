package mention

import (
	"strings"
	"unicode/utf8"

	"samilabs.app/pulse/internal/model"
)

const DefaultQualityThreshold = 30

// QualityFilter drops mentions whose trimmed content is shorter than
// MinLength characters.
type QualityFilter struct {
	MinLength int
}

func NewQualityFilter(minLength int) QualityFilter {
	if minLength < 1 {
		minLength = DefaultQualityThreshold
	}
	return QualityFilter{MinLength: minLength}
}

func (f QualityFilter) Keep(m model.Mention) bool {
	return utf8.RuneCountInString(strings.TrimSpace(m.Content)) >= f.MinLength
}

// Apply returns the kept mentions in order and the number dropped.
func (f QualityFilter) Apply(mentions []model.Mention) ([]model.Mention, int) {
	kept := make([]model.Mention, 0, len(mentions))
	for _, m := range mentions {
		if f.Keep(m) {
			kept = append(kept, m)
		}
	}
	return kept, len(mentions) - len(kept)
}
