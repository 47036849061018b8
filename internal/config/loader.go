package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (propledgerd.toml), skipped when path is empty
// 3. Environment variables (PROPLEDGERD_ prefix)
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		if err := loadMainConfig(v, path); err != nil {
			return nil, fmt.Errorf("failed to load main config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = path

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// loadMainConfig loads the main configuration file
func loadMainConfig(v *viper.Viper, configPath string) error {
	v.SetConfigFile(configPath)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return nil
}

// LoadConfigFromDir loads propledgerd.toml from configDir
func LoadConfigFromDir(configDir string) (*Config, error) {
	return LoadConfig(ConfigPathFromDir(configDir))
}

// SaveExampleConfig writes a configuration file holding every default, with
// admin as the genesis administrator
func SaveExampleConfig(configPath, admin string) error {
	v := viper.New()
	setDefaults(v)
	v.Set("genesis.admin", admin)
	v.SetConfigFile(configPath)
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}
	return nil
}
