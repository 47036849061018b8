package config

import (
	"path/filepath"
)

// DefaultConfigFile is the configuration file name looked up in a directory.
const DefaultConfigFile = "propledgerd.toml"

// EnvPrefix prefixes environment overrides, e.g. PROPLEDGERD_SERVER_HTTP_ADDRESS.
const EnvPrefix = "PROPLEDGERD"

// Config represents the complete propledgerd configuration
type Config struct {
	// Listeners and request handling
	Server ServerConfig `toml:"server" mapstructure:"server"`

	// Ledger state store
	NodeDB NodeDBConfig `toml:"node_db" mapstructure:"node_db"`

	// Event journal
	Journal JournalConfig `toml:"journal" mapstructure:"journal"`

	// Initial ledger, applied only when the store is empty
	Genesis GenesisConfig `toml:"genesis" mapstructure:"genesis"`

	// Marketplace and yield limits
	Market MarketConfig `toml:"market" mapstructure:"market"`

	configPath string `toml:"-" mapstructure:"-"`
}

// MarketConfig represents the [market] section
type MarketConfig struct {
	// MaxBatchClaim caps the assets in one BatchClaimYield
	MaxBatchClaim int `toml:"max_batch_claim" mapstructure:"max_batch_claim"`
}

// ConfigPathFromDir returns the configuration file path inside configDir
func ConfigPathFromDir(configDir string) string {
	return filepath.Join(configDir, DefaultConfigFile)
}

// GetConfigPath returns the path the configuration was read from, or ""
// when only defaults and environment were used
func (c *Config) GetConfigPath() string {
	return c.configPath
}
