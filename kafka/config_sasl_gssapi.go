package kafka

import "fmt"

const (
	GSSAPIAuthTypeUser   = "USER_AUTH"
	GSSAPIAuthTypeKeytab = "KEYTAB_AUTH"
)

// SASLGSSAPIConfig represents the Kafka Kerberos config
type SASLGSSAPIConfig struct {
	AuthType           string `koanf:"authType"`
	KeyTabPath         string `koanf:"keyTabPath"`
	KerberosConfigPath string `koanf:"kerberosConfigPath"`
	ServiceName        string `koanf:"serviceName"`
	Username           string `koanf:"username"`
	Password           string `koanf:"password"`
	Realm              string `koanf:"realm"`
	EnableFast         bool   `koanf:"enableFast"`
}

func (c *SASLGSSAPIConfig) SetDefaults() {
	c.AuthType = GSSAPIAuthTypeUser
	c.EnableFast = true
}

func (c *SASLGSSAPIConfig) Validate() error {
	switch c.AuthType {
	case GSSAPIAuthTypeUser, GSSAPIAuthTypeKeytab:
	default:
		return fmt.Errorf("given gssapi auth type '%v' is invalid, must be one of %v or %v",
			c.AuthType, GSSAPIAuthTypeUser, GSSAPIAuthTypeKeytab)
	}

	if c.KerberosConfigPath == "" {
		return fmt.Errorf("gssapi is enabled but no kerberos config path is set")
	}

	return nil
}
