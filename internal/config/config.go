// Package config handles configuration loading for gateway clients.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax). This allows the key password
// and the merchant login to be injected at runtime.
//
// # Configuration Sections
//
//   - environment: production, development or test
//   - gateway: URL override, timeout, TLS verification
//   - credential: merchant private key (PKCS#12 or PEM) and gateway public key
//   - merchant: optional login fields and processing level
//   - codec: document indentation
//   - journal: optional MongoDB exchange journal
//   - notify: inbound notice endpoint
//   - logging: log level and format
//
// # Example Configuration
//
//	environment: production
//
//	gateway:
//	  timeout: 30s
//
//	credential:
//	  privateKeyPath: /etc/allinpay/merchant.pfx
//	  privateKeyPassword: ${ALLINPAY_KEY_PASSWORD}
//	  publicKeyPath: /etc/allinpay/allinpay.cer
//
//	journal:
//	  mongodb:
//	    uri: ${MONGODB_URI}
//	    database: allinpay
//
// See [Load] for loading configuration from a file.
package config

import (
	"crypto"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yeeli/allinpay/pkg/codec"
	"github.com/yeeli/allinpay/pkg/gateway"
	"github.com/yeeli/allinpay/pkg/request"
	"github.com/yeeli/allinpay/pkg/security"
	"github.com/yeeli/allinpay/pkg/transport"
)

// Config is the root configuration structure
type Config struct {
	Environment string           `yaml:"environment"`
	Gateway     GatewayConfig    `yaml:"gateway"`
	Credential  CredentialConfig `yaml:"credential"`
	Merchant    MerchantConfig   `yaml:"merchant"`
	Codec       CodecConfig      `yaml:"codec"`
	Journal     JournalConfig    `yaml:"journal"`
	Notify      NotifyConfig     `yaml:"notify"`
	Logging     LoggingConfig    `yaml:"logging"`
}

// GatewayConfig holds endpoint and transport settings
type GatewayConfig struct {
	// URL overrides the environment's endpoint
	URL                string        `yaml:"url"`
	Timeout            time.Duration `yaml:"timeout"`
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify"`
}

// CredentialConfig locates the key material
type CredentialConfig struct {
	PrivateKeyPath     string `yaml:"privateKeyPath"`
	PrivateKeyPassword string `yaml:"privateKeyPassword"`
	PublicKeyPath      string `yaml:"publicKeyPath"`
	// Hash is the signature digest: sha1 (gateway default) or sha256
	Hash string `yaml:"hash"`
}

// MerchantConfig holds the optional header login fields
type MerchantConfig struct {
	UserName string `yaml:"userName"`
	UserPass string `yaml:"userPass"`
	Level    string `yaml:"level"`
}

// CodecConfig holds document encoding settings
type CodecConfig struct {
	// Indent is the number of spaces per level; absent means compact
	Indent *int `yaml:"indent"`
}

// JournalConfig holds exchange journal settings
type JournalConfig struct {
	MongoDB MongoDBConfig `yaml:"mongodb"`
}

// MongoDBConfig holds MongoDB connection settings
type MongoDBConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Enabled reports whether a journal is configured.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// NotifyConfig holds the inbound notice endpoint settings
type NotifyConfig struct {
	Listen   string `yaml:"listen"`
	Path     string `yaml:"path"`
	CertFile string `yaml:"certFile"`
	KeyFile  string `yaml:"keyFile"`
	// DuplicateWindow is how long a received notice is remembered
	DuplicateWindow time.Duration `yaml:"duplicateWindow"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse reads configuration from YAML bytes
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = string(gateway.Production)
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = 30 * time.Second
	}
	if c.Credential.Hash == "" {
		c.Credential.Hash = "sha1"
	}
	if c.Merchant.Level == "" {
		c.Merchant.Level = request.DefaultLevel
	}
	if c.Journal.MongoDB.Database == "" {
		c.Journal.MongoDB.Database = "allinpay"
	}
	if c.Journal.MongoDB.Collection == "" {
		c.Journal.MongoDB.Collection = "exchanges"
	}
	if c.Notify.Listen == "" {
		c.Notify.Listen = ":8443"
	}
	if c.Notify.Path == "" {
		c.Notify.Path = "/allinpay/notify"
	}
	if c.Notify.DuplicateWindow == 0 {
		c.Notify.DuplicateWindow = 24 * time.Hour
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) validate() error {
	if _, err := gateway.ParseEnvironment(c.Environment); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if c.Credential.PrivateKeyPath == "" {
		return fmt.Errorf("credential.privateKeyPath is required")
	}
	if c.Credential.PublicKeyPath == "" {
		return fmt.Errorf("credential.publicKeyPath is required")
	}
	if _, err := c.hash(); err != nil {
		return err
	}
	if c.Gateway.Timeout < 0 {
		return fmt.Errorf("gateway.timeout must not be negative")
	}
	if (c.Notify.CertFile == "") != (c.Notify.KeyFile == "") {
		return fmt.Errorf("notify.certFile and notify.keyFile must be set together")
	}
	if (c.Merchant.UserName == "") != (c.Merchant.UserPass == "") {
		return fmt.Errorf("merchant.userName and merchant.userPass must be set together")
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json', got '%s'", c.Logging.Format)
	}
	return nil
}

func (c *Config) hash() (crypto.Hash, error) {
	switch strings.ToLower(c.Credential.Hash) {
	case "sha1":
		return crypto.SHA1, nil
	case "sha256":
		return crypto.SHA256, nil
	default:
		return 0, fmt.Errorf("credential.hash must be 'sha1' or 'sha256', got '%s'", c.Credential.Hash)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// SecurityCredential returns the credential for the signature provider.
func (c *Config) SecurityCredential() security.Credential {
	return security.Credential{
		PrivateKeyPath:     c.Credential.PrivateKeyPath,
		PrivateKeyPassword: c.Credential.PrivateKeyPassword,
		PublicKeyPath:      c.Credential.PublicKeyPath,
	}
}

// HTTPS returns the transport configuration.
func (c *Config) HTTPS() *transport.HTTPSConfig {
	cfg := transport.DefaultHTTPSConfig()
	cfg.Timeout = c.Gateway.Timeout
	cfg.InsecureSkipVerify = c.Gateway.InsecureSkipVerify
	return cfg
}

// NotifyHTTPS returns the server configuration for the notice endpoint.
func (c *Config) NotifyHTTPS() (*transport.HTTPSConfig, error) {
	cfg := transport.DefaultHTTPSConfig()
	cfg.Timeout = c.Gateway.Timeout
	if c.Notify.CertFile == "" {
		return cfg, nil
	}
	cert, err := tls.LoadX509KeyPair(c.Notify.CertFile, c.Notify.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("loading notify certificate: %w", err)
	}
	cfg.Certificates = []tls.Certificate{cert}
	return cfg, nil
}

// NewCodec returns the configured codec.
func (c *Config) NewCodec() *codec.Codec {
	if c.Codec.Indent == nil {
		return codec.New()
	}
	return codec.New(codec.WithIndent(*c.Codec.Indent))
}

// NewAssembler returns the configured request assembler.
func (c *Config) NewAssembler() *request.Assembler {
	opts := []request.Option{request.WithLevel(c.Merchant.Level)}
	if c.Merchant.UserName != "" {
		opts = append(opts, request.WithMerchant(c.Merchant.UserName, c.Merchant.UserPass))
	}
	return request.NewAssembler(opts...)
}

// NewLogger returns a logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Logging.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ClientConfig returns the gateway client configuration. Tracker and journal are
// left for the caller to attach.
func (c *Config) ClientConfig(logger *slog.Logger) gateway.Config {
	hash, _ := c.hash()
	return gateway.Config{
		Environment:     gateway.Environment(strings.ToLower(c.Environment)),
		URL:             c.Gateway.URL,
		Credential:      c.SecurityCredential(),
		ProviderOptions: []security.ProviderOption{security.WithHash(hash)},
		Codec:           c.NewCodec(),
		Assembler:       c.NewAssembler(),
		HTTPS:           c.HTTPS(),
		Logger:          logger,
	}
}
