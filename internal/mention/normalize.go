package mention

import (
	"strconv"
	"strings"
	"time"

	"samilabs.app/pulse/internal/model"
)

// TimeUnix is a pseudo-layout for fields holding unix seconds.
const TimeUnix = "unix"

// Schema declares how one adapter's raw records map onto a Mention.
// ContentFields are tried in order and the first non-blank value wins.
type Schema struct {
	Source         model.Source
	ContentFields  []string
	URLField       string
	TimeField      string
	TimeLayouts    []string
	PublisherField string
}

// Normalize maps a raw record to a Mention using only the fields the schema
// declares. ok is false when no content field resolves.
func Normalize(raw model.RawItem, schema Schema, fetchedAt time.Time) (model.Mention, bool) {
	content := ""
	for _, field := range schema.ContentFields {
		if v := strings.TrimSpace(raw[field]); v != "" {
			content = v
			break
		}
	}
	if content == "" {
		return model.Mention{}, false
	}

	m := model.Mention{
		Content:   content,
		Source:    schema.Source,
		Timestamp: fetchedAt,
	}

	if schema.URLField != "" {
		if u := strings.TrimSpace(raw[schema.URLField]); u != "" {
			m.URL = &u
		}
	}
	if schema.PublisherField != "" {
		m.Publisher = strings.TrimSpace(raw[schema.PublisherField])
	}
	if schema.TimeField != "" {
		if ts, ok := parseTime(raw[schema.TimeField], schema.TimeLayouts); ok {
			m.Timestamp = ts
		}
	}

	return m, true
}

// NormalizeAll normalizes a batch, preserving order, and reports how many
// records could not be resolved.
func NormalizeAll(items []model.RawItem, schema Schema, fetchedAt time.Time) ([]model.Mention, int) {
	out := make([]model.Mention, 0, len(items))
	unresolved := 0
	for _, item := range items {
		m, ok := Normalize(item, schema, fetchedAt)
		if !ok {
			unresolved++
			continue
		}
		out = append(out, m)
	}
	return out, unresolved
}

func parseTime(value string, layouts []string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if layout == TimeUnix {
			secs, err := strconv.ParseFloat(value, 64)
			if err != nil || secs <= 0 {
				continue
			}
			return time.Unix(int64(secs), 0).UTC(), true
		}
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
