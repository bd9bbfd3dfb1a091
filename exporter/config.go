package exporter

import (
	"fmt"
	"time"
)

type Config struct {
	// OffsetsTopic is the internal topic that stores every consumer group's
	// offset commits.
	OffsetsTopic string `koanf:"offsetsTopic"`

	// ConsumeFromStart starts consuming the offsets topic from the earliest
	// retained record instead of the latest. Starting from the earliest
	// record rebuilds the complete committed-offset state, at the cost of
	// reading the whole topic once.
	ConsumeFromStart bool `koanf:"consumeFromStart"`

	// TopologyRefreshInterval is the period between metadata requests that
	// rebuild the topic -> partition -> leader assignment.
	TopologyRefreshInterval time.Duration `koanf:"topologyRefreshInterval"`

	// HighWaterRefreshInterval is the period between the batched latest-offset
	// requests sent to each partition leader.
	HighWaterRefreshInterval time.Duration `koanf:"highWaterRefreshInterval"`
}

func (c *Config) SetDefaults() {
	c.OffsetsTopic = "__consumer_offsets"
	c.ConsumeFromStart = false
	c.TopologyRefreshInterval = 30 * time.Second
	c.HighWaterRefreshInterval = 10 * time.Second
}

func (c *Config) Validate() error {
	if c.OffsetsTopic == "" {
		return fmt.Errorf("offsets topic must not be empty")
	}
	if c.TopologyRefreshInterval <= 0 {
		return fmt.Errorf("topology refresh interval must be positive")
	}
	if c.HighWaterRefreshInterval <= 0 {
		return fmt.Errorf("high water refresh interval must be positive")
	}

	return nil
}
