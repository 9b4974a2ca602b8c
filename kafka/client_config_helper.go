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
	"github.com/twmb/franz-go/pkg/sasl/aws"
	"github.com/twmb/franz-go/pkg/sasl/kerberos"
	"github.com/twmb/franz-go/pkg/sasl/oauth"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"
	"go.uber.org/zap"

	krbconfig "github.com/jcmturner/gokrb5/v8/config"
)

// NewKgoConfig creates the options for the admin client as exposed by the franz-go library.
// If TLS certificates or Kerberos files can't be read an error will be returned.
func NewKgoConfig(cfg Config, logger *zap.Logger, hooks kgo.Hook) ([]kgo.Opt, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		// Created topics show up in metadata responses shortly after creation, refreshing more
		// often than the 5s default keeps follow-up requests from hitting stale metadata.
		kgo.MetadataMinAge(time.Second),
		kgo.WithLogger(KgoZapLogger{logger: logger.Sugar()}),
	}

	if hooks != nil {
		opts = append(opts, kgo.WithHooks(hooks))
	}

	if cfg.RackID != "" {
		opts = append(opts, kgo.Rack(cfg.RackID))
	}

	if cfg.SASL.Enabled {
		mechanism, err := newSASLMechanism(cfg.SASL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kgo.SASL(mechanism))
	}

	if cfg.TLS.Enabled {
		tlsCfg, err := newTLSConfig(cfg.TLS, logger)
		if err != nil {
			return nil, err
		}
		tlsDialer := &tls.Dialer{
			NetDialer: &net.Dialer{Timeout: 10 * time.Second},
			Config:    tlsCfg,
		}
		opts = append(opts, kgo.Dialer(tlsDialer.DialContext))
	}

	return opts, nil
}

func newSASLMechanism(cfg SASLConfig) (sasl.Mechanism, error) {
	switch cfg.Mechanism {
	case SASLMechanismPlain:
		return plain.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}.AsMechanism(), nil

	case SASLMechanismScramSHA256, SASLMechanismScramSHA512:
		scramAuth := scram.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}
		if cfg.Mechanism == SASLMechanismScramSHA256 {
			return scramAuth.AsSha256Mechanism(), nil
		}
		return scramAuth.AsSha512Mechanism(), nil

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
		default:
			return nil, fmt.Errorf("kafka.sasl.gssapi.authType must be one of USER_AUTH or KEYTAB_AUTH")
		}

		return kerberos.Auth{
			Client:           krbClient,
			Service:          cfg.GSSAPI.ServiceName,
			PersistAfterAuth: true,
		}.AsMechanism(), nil

	case SASLMechanismOAuthBearer:
		oauthCfg := cfg.OAuthBearer
		return oauth.Oauth(func(ctx context.Context) (oauth.Auth, error) {
			token, err := oauthCfg.getToken(ctx)
			return oauth.Auth{
				Zid:   oauthCfg.ClientID,
				Token: token,
			}, err
		}), nil

	case SASLMechanismAWSMSKIAM:
		awsCfg := cfg.AWS
		return aws.ManagedStreamingIAM(func(ctx context.Context) (aws.Auth, error) {
			return aws.Auth{
				AccessKey:    awsCfg.AccessKey,
				SecretKey:    awsCfg.SecretKey,
				SessionToken: awsCfg.SessionToken,
				UserAgent:    awsCfg.UserAgent,
			}, nil
		}), nil
	}

	return nil, fmt.Errorf("given sasl mechanism '%v' is invalid", cfg.Mechanism)
}

func newTLSConfig(cfg TLSConfig, logger *zap.Logger) (*tls.Config, error) {
	var caCertPool *x509.CertPool
	if cfg.CaFilepath != "" || len(cfg.Ca) > 0 {
		ca := []byte(cfg.Ca)
		if cfg.CaFilepath != "" {
			caBytes, err := os.ReadFile(cfg.CaFilepath)
			if err != nil {
				return nil, fmt.Errorf("failed to load ca cert: %w", err)
			}
			ca = caBytes
		}
		caCertPool = x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(ca) {
			logger.Warn("failed to append ca file to cert pool, is this a valid PEM format?")
		}
	}

	// Mutual TLS if a cert or key is configured
	var certificates []tls.Certificate
	hasCertFile := cfg.CertFilepath != "" || len(cfg.Cert) > 0
	hasKeyFile := cfg.KeyFilepath != "" || len(cfg.Key) > 0
	if hasCertFile || hasKeyFile {
		cert := []byte(cfg.Cert)
		privateKey := []byte(cfg.Key)
		if cfg.CertFilepath != "" {
			certBytes, err := os.ReadFile(cfg.CertFilepath)
			if err != nil {
				return nil, fmt.Errorf("failed to read TLS certificate: %w", err)
			}
			cert = certBytes
		}
		if cfg.KeyFilepath != "" {
			keyBytes, err := os.ReadFile(cfg.KeyFilepath)
			if err != nil {
				return nil, fmt.Errorf("failed to read TLS key: %w", err)
			}
			privateKey = keyBytes
		}

		if cfg.Passphrase != "" {
			var err error
			privateKey, err = decryptPrivateKey(privateKey, cfg.Passphrase, logger)
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

	return &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipTLSVerify,
		Certificates:       certificates,
		RootCAs:            caCertPool,
	}, nil
}

// decryptPrivateKey decrypts a PEM encoded private key that was encrypted with the legacy PEM
// encryption. Keys that are not encrypted are returned as-is.
func decryptPrivateKey(keyPEM []byte, passphrase string, logger *zap.Logger) ([]byte, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block containing private key")
	}

	if !x509.IsEncryptedPEMBlock(block) { //nolint:staticcheck // legacy keys are still in use
		return keyPEM, nil
	}

	logger.Warn("using legacy PEM encryption for the kafka client key, consider converting it to PKCS#8")
	decrypted, err := x509.DecryptPEMBlock(block, []byte(passphrase)) //nolint:staticcheck // legacy keys are still in use
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt PEM private key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: decrypted}), nil
}
