package prometheus

import (
	"fmt"
	"regexp"
)

var namespaceExpr = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

type Config struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Namespace is the prefix of all exposed metric names.
	Namespace string `koanf:"namespace"`
}

func (c *Config) SetDefaults() {
	c.Port = 9208
	c.Namespace = "kafka_consumer_group"
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("given port '%v' is invalid", c.Port)
	}
	if !namespaceExpr.MatchString(c.Namespace) {
		return fmt.Errorf("given metrics namespace '%v' is not a valid metric name prefix", c.Namespace)
	}

	return nil
}
