package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string. Time entry
// identifiers use this format; ksuid.Parse is the well-formedness check
// on the way back in.
func NewKSUID() string {
	return ksuid.New().String()
}

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewSnowflakeID generates a snowflake ID string for request
// correlation. The node ID comes from SNOWFLAKE_NODE (default 1) and is
// initialized once; if initialization fails a KSUID is returned so an
// ID is always produced.
func NewSnowflakeID() string {
	nodeOnce.Do(func() {
		nodeID := int64(1)
		if env := os.Getenv("SNOWFLAKE_NODE"); env != "" {
			if v, err := strconv.ParseInt(env, 10, 64); err == nil {
				nodeID = v
			}
		}
		node, _ = snowflake.NewNode(nodeID)
	})
	if node == nil {
		return NewKSUID()
	}
	return node.Generate().String()
}
