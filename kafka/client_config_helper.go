package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/jcmturner/gokrb5/v8/client"
	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/kerberos"
	"github.com/twmb/franz-go/pkg/sasl/oauth"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"
	"go.uber.org/zap"

	krbconfig "github.com/jcmturner/gokrb5/v8/config"
)

// NewKgoConfig creates a new Config for the Kafka client as exposed by the franz-go library.
// If TLS certificates can't be read an error will be returned.
func NewKgoConfig(cfg Config, logger *zap.Logger, hooks kgo.Hook) ([]kgo.Opt, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.WithHooks(hooks),
		// Refreshing metadata more often than 5s (default) mitigates issues with
		// partitions that were created or moved shortly before.
		kgo.MetadataMinAge(time.Second),
	}

	kgoLogger := KgoZapLogger{
		logger: logger.With(zap.String("source", "kafka_client")).Sugar(),
	}
	opts = append(opts, kgo.WithLogger(kgoLogger))

	if cfg.RackID != "" {
		opts = append(opts, kgo.Rack(cfg.RackID))
	}

	if cfg.SASL.Enabled {
		saslOpt, err := newSASLOpt(cfg.SASL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, saslOpt)
	}

	if cfg.TLS.Enabled {
		tlsDialer, err := newTLSDialer(cfg.TLS, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kgo.Dialer(tlsDialer.DialContext))
	}

	return opts, nil
}

func newSASLOpt(cfg SASLConfig) (kgo.Opt, error) {
	switch cfg.Mechanism {
	case SASLMechanismPlain:
		mechanism := plain.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}.AsMechanism()
		return kgo.SASL(mechanism), nil

	case SASLMechanismScramSHA256, SASLMechanismScramSHA512:
		var mechanism sasl.Mechanism
		scramAuth := scram.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}
		if cfg.Mechanism == SASLMechanismScramSHA256 {
			mechanism = scramAuth.AsSha256Mechanism()
		} else {
			mechanism = scramAuth.AsSha512Mechanism()
		}
		return kgo.SASL(mechanism), nil

	case SASLMechanismGSSAPI:
		kerbCfg, err := krbconfig.Load(cfg.GSSAPI.KerberosConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create kerberos config from specified config filepath: %w", err)
		}

		var krbClient *client.Client
		switch cfg.GSSAPI.AuthType {
		case GSSAPIAuthTypeUser:
			krbClient = client.NewWithPassword(
				cfg.GSSAPI.Username,
				cfg.GSSAPI.Realm,
				cfg.GSSAPI.Password,
				kerbCfg,
				client.DisablePAFXFAST(!cfg.GSSAPI.EnableFast))
		case GSSAPIAuthTypeKeytab:
			ktb, err := keytab.Load(cfg.GSSAPI.KeyTabPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load keytab: %w", err)
			}
			krbClient = client.NewWithKeytab(
				cfg.GSSAPI.Username,
				cfg.GSSAPI.Realm,
				ktb,
				kerbCfg,
				client.DisablePAFXFAST(!cfg.GSSAPI.EnableFast))
		}
		mechanism := kerberos.Auth{
			Client:           krbClient,
			Service:          cfg.GSSAPI.ServiceName,
			PersistAfterAuth: true,
		}.AsMechanism()
		return kgo.SASL(mechanism), nil

	case SASLMechanismOAuthBearer:
		oauthCfg := cfg.OAuthBearer
		mechanism := oauth.Oauth(func(ctx context.Context) (oauth.Auth, error) {
			token, err := oauthCfg.getToken(ctx)
			return oauth.Auth{
				Zid:   oauthCfg.ClientID,
				Token: token,
			}, err
		})
		return kgo.SASL(mechanism), nil
	}

	return nil, fmt.Errorf("given sasl mechanism '%v' is invalid", cfg.Mechanism)
}

func newTLSDialer(cfg TLSConfig, logger *zap.Logger) (*tls.Dialer, error) {
	var caCertPool *x509.CertPool
	if cfg.CaFilepath != "" {
		ca, err := os.ReadFile(cfg.CaFilepath)
		if err != nil {
			return nil, fmt.Errorf("failed to load ca cert: %w", err)
		}
		caCertPool = x509.NewCertPool()
		isSuccessful := caCertPool.AppendCertsFromPEM(ca)
		if !isSuccessful {
			logger.Warn("failed to append ca file to cert pool, is this a valid PEM format?")
		}
	}

	// If configured load TLS cert & key - mutual TLS
	var certificates []tls.Certificate
	if cfg.CertFilepath != "" && cfg.KeyFilepath != "" {
		cert, err := os.ReadFile(cfg.CertFilepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read TLS certificate: %w", err)
		}

		privateKey, err := os.ReadFile(cfg.KeyFilepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read TLS key: %w", err)
		}

		if cfg.Passphrase != "" {
			privateKey, err = decryptPrivateKey(privateKey, cfg.Passphrase)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt private key: %w", err)
			}
		}

		tlsCert, err := tls.X509KeyPair(cert, privateKey)
		if err != nil {
			return nil, fmt.Errorf("cannot parse pem: %w", err)
		}
		certificates = []tls.Certificate{tlsCert}
	}

	return &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: 10 * time.Second},
		Config: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipTLSVerify,
			Certificates:       certificates,
			RootCAs:            caCertPool,
		},
	}, nil
}

// decryptPrivateKey decrypts a passphrase-protected PEM-encoded private key.
// An unencrypted key is returned as-is.
func decryptPrivateKey(keyPEM []byte, passphrase string) ([]byte, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block containing private key")
	}

	if !x509.IsEncryptedPEMBlock(block) { //nolint:staticcheck // legacy PEM encryption is what passphrase-protected Kafka keys use in practice
		return keyPEM, nil
	}

	decrypted, err := x509.DecryptPEMBlock(block, []byte(passphrase)) //nolint:staticcheck // see above
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt PEM private key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: decrypted}), nil
}
