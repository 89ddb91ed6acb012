package idgen

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Initialize sets up the Snowflake ID generator with a node ID.
// Only the first call has an effect.
func Initialize(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// GenerateID generates a new Snowflake ID as a string
func GenerateID() string {
	if node == nil {
		_ = Initialize(1)
	}
	return node.Generate().String()
}

// RequestID returns a compact base58 ID suitable for X-Request-ID headers
func RequestID() string {
	if node == nil {
		_ = Initialize(1)
	}
	return node.Generate().Base58()
}
