package conversation

import (
	"fmt"
	"strings"

	"samilabs.app/pulse/internal/model"
)

const (
	DefaultSystemPrompt = "You are a helpful market research assistant specializing in brand reputation analysis."
	DefaultPromptItems  = 10
)

// BuildMentionsPrompt renders the opening question for a brand reputation
// analysis from the first n mentions.
func BuildMentionsPrompt(entity string, mentions []model.Mention, n int) string {
	if n <= 0 {
		n = DefaultPromptItems
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Based on the following user comments about '%s', summarize sentiment and brand reputation:\n\n", entity)
	for i, m := range mentions {
		if i >= n {
			break
		}
		sb.WriteString("- ")
		sb.WriteString(strings.Join(strings.Fields(m.Content), " "))
		sb.WriteByte('\n')
	}
	return sb.String()
}
