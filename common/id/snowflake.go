package id

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets up the generator for this process. Only the first call has an
// effect; nodeID must be unique per running server instance.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New returns a time-ordered unique ID. Used for conversation session IDs.
func New() int64 {
	return node.Generate().Int64()
}

// Parse reads a session ID as it appears in URLs and JSON bodies.
func Parse(s string) (int64, error) {
	v, err := snowflake.ParseString(s)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", s, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("parse id %q: not positive", s)
	}
	return v.Int64(), nil
}
