package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()

	assert.Equal(t, "__consumer_offsets", cfg.OffsetsTopic)
	assert.False(t, cfg.ConsumeFromStart)
	assert.Equal(t, 30*time.Second, cfg.TopologyRefreshInterval)
	assert.Equal(t, 10*time.Second, cfg.HighWaterRefreshInterval)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	cfg.OffsetsTopic = ""
	assert.Error(t, cfg.Validate())

	cfg.SetDefaults()
	cfg.TopologyRefreshInterval = 0
	assert.Error(t, cfg.Validate())

	cfg.SetDefaults()
	cfg.HighWaterRefreshInterval = -time.Second
	assert.Error(t, cfg.Validate())
}
