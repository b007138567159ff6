package mention

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"samilabs.app/pulse/internal/model"
)

// Key derives the dedup key from content: lower-cased, whitespace runs
// collapsed to one space, hashed.
func Key(content string) string {
	canonical := strings.Join(strings.Fields(strings.ToLower(content)), " ")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:16])
}

// WithKeys returns a copy of mentions with DedupKey filled in.
func WithKeys(mentions []model.Mention) []model.Mention {
	out := make([]model.Mention, len(mentions))
	for i, m := range mentions {
		m.DedupKey = Key(m.Content)
		out[i] = m
	}
	return out
}

// Dedupe keeps the first mention for each dedup key and drops the rest,
// without reordering survivors. Mentions without a key get one computed.
func Dedupe(mentions []model.Mention) []model.Mention {
	seen := make(map[string]struct{}, len(mentions))
	out := make([]model.Mention, 0, len(mentions))
	for _, m := range mentions {
		if m.DedupKey == "" {
			m.DedupKey = Key(m.Content)
		}
		if _, dup := seen[m.DedupKey]; dup {
			continue
		}
		seen[m.DedupKey] = struct{}{}
		out = append(out, m)
	}
	return out
}
