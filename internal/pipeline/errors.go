package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"samilabs.app/pulse/internal/model"
)

var (
	ErrNoDataFound  = errors.New("no data found")
	ErrEmptyQuery   = errors.New("query must not be empty")
	ErrInvalidLimit = errors.New("limit must be positive")
)

// NoDataFoundError is returned when every adapter was exhausted without a
// single mention surviving the pipeline. It carries the attempt record.
type NoDataFoundError struct {
	Query    string
	Attempts []model.Attempt
	Partial  bool
}

func (e *NoDataFoundError) Error() string {
	return fmt.Sprintf("no data found for %q, sources tried: [%s]", e.Query, strings.Join(e.SourcesTried(), ", "))
}

func (e *NoDataFoundError) Is(target error) bool {
	return target == ErrNoDataFound
}

// SourcesTried lists adapter names in the order they were attempted.
func (e *NoDataFoundError) SourcesTried() []string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, a.Adapter)
	}
	return names
}
