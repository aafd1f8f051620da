package utilities

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/caarlos0/env/v11"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

type IDConfig struct {
	SnowflakeNode int64 `env:"SNOWFLAKE_NODE" envDefault:"1"`
}

// IDConfigFromEnv reads the snowflake node id from SNOWFLAKE_NODE.
func IDConfigFromEnv() (IDConfig, error) {
	var cfg IDConfig
	if err := env.Parse(&cfg); err != nil {
		return IDConfig{}, fmt.Errorf("parse id env: %w", err)
	}
	return cfg, nil
}

// IDGenerator hands out time-ordered snowflake IDs from a single node.
// The node must be shared: two nodes with the same number produce
// colliding IDs within the same millisecond.
type IDGenerator struct {
	node *snowflake.Node
}

// NewIDGenerator sets up the snowflake node. If the node cannot be
// initialized the generator falls back to KSUID strings.
func NewIDGenerator(nodeID int64) *IDGenerator {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return &IDGenerator{}
	}
	return &IDGenerator{node: node}
}

// Next returns a new unique ID string.
func (g *IDGenerator) Next() string {
	if g == nil || g.node == nil {
		return NewKSUID()
	}
	return g.node.Generate().String()
}
