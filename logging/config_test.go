package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	assert.NoError(t, cfg.Validate())

	cfg.Level = "warn"
	cfg.Format = FormatConsole
	assert.NoError(t, cfg.Validate())

	cfg.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg.SetDefaults()
	cfg.Format = "logfmt"
	assert.Error(t, cfg.Validate())
}
