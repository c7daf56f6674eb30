// Package config loads the YAML configuration file for the server and CLI.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	chainvoice "github.com/chainvoice/chainvoice-go"
	"github.com/chainvoice/chainvoice-go/validation"
)

// Config is the top-level configuration document.
type Config struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ChainID         uint64        `yaml:"chain_id"`
	RPCURL          string        `yaml:"rpc_url"`
	ContractAddress string        `yaml:"contract_address"`
	Pinata          PinataConfig  `yaml:"pinata"`
	QRCode          *QRCodeConfig `yaml:"qr_code"`
	Signer          *SignerConfig `yaml:"signer"`
}

// PinataConfig holds the pinning-service credentials. Empty credentials are
// valid for read-only deployments that never create invoices.
type PinataConfig struct {
	APIKey     string `yaml:"api_key"`
	APISecret  string `yaml:"api_secret"`
	GatewayURL string `yaml:"gateway_url"`
}

// QRCodeConfig overrides the QR encoding defaults.
type QRCodeConfig struct {
	Size  int     `yaml:"size"`
	Level *string `yaml:"level"`
}

// SignerConfig selects the transaction-signing key source. Exactly one of the
// sources may be set.
type SignerConfig struct {
	PrivateKey       string `yaml:"private_key"`
	KeystorePath     string `yaml:"keystore_path"`
	KeystorePassword string `yaml:"keystore_password"`
	Mnemonic         string `yaml:"mnemonic"`
	AccountIndex     int    `yaml:"account_index"`
}

// DefaultListenAddr is used when listen_addr is omitted.
const DefaultListenAddr = ":8080"

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the document for field-level errors.
func (c *Config) Validate() error {
	if c.ChainID == 0 {
		return chainvoice.InvalidFieldError("chain_id", "must be set")
	}
	if c.RPCURL == "" {
		return chainvoice.InvalidFieldError("rpc_url", "must be set")
	}
	if c.ContractAddress != "" {
		if err := validation.ValidateAddress(c.ContractAddress); err != nil {
			return chainvoice.InvalidFieldError("contract_address", "must be a 0x-prefixed 40-hex-digit address")
		}
	}
	if c.Signer != nil {
		sources := 0
		if c.Signer.PrivateKey != "" {
			sources++
		}
		if c.Signer.KeystorePath != "" {
			sources++
		}
		if c.Signer.Mnemonic != "" {
			sources++
		}
		if sources > 1 {
			return chainvoice.InvalidFieldError("signer", "at most one key source may be set")
		}
	}
	return nil
}

// QRSize returns the configured QR size or the package default.
func (c *Config) QRSize() int {
	if c.QRCode == nil || c.QRCode.Size == 0 {
		return 0
	}
	return c.QRCode.Size
}

// QRLevel returns the configured recovery level, empty for the default.
func (c *Config) QRLevel() string {
	if c.QRCode == nil || c.QRCode.Level == nil {
		return ""
	}
	return *c.QRCode.Level
}

// GatewayURL returns the configured IPFS gateway or empty for the default.
func (c *Config) GatewayURL() string {
	return c.Pinata.GatewayURL
}
