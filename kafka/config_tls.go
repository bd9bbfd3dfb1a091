package kafka

import "fmt"

// TLSConfig to connect to Kafka via TLS
type TLSConfig struct {
	Enabled               bool   `koanf:"enabled"`
	CaFilepath            string `koanf:"caFilepath"`
	CertFilepath          string `koanf:"certFilepath"`
	KeyFilepath           string `koanf:"keyFilepath"`
	Passphrase            string `koanf:"passphrase"`
	InsecureSkipTLSVerify bool   `koanf:"insecureSkipTlsVerify"`
}

func (c *TLSConfig) SetDefaults() {
	c.Enabled = false
}

func (c *TLSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.KeyFilepath != "" && c.CertFilepath == "" {
		return fmt.Errorf("config key 'keyFilepath' is set but 'certFilepath' is missing")
	}
	if c.CertFilepath != "" && c.KeyFilepath == "" {
		return fmt.Errorf("config key 'certFilepath' is set but 'keyFilepath' is missing")
	}

	return nil
}
