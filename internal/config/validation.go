package config

import (
	"fmt"
	"strconv"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := config.NodeDB.Validate(); err != nil {
		return fmt.Errorf("node_db validation failed: %w", err)
	}
	if err := config.Journal.Validate(); err != nil {
		return fmt.Errorf("journal validation failed: %w", err)
	}
	if err := config.Genesis.Validate(); err != nil {
		return fmt.Errorf("genesis validation failed: %w", err)
	}
	if config.Market.MaxBatchClaim <= 0 {
		return fmt.Errorf("market validation failed: max_batch_claim must be positive, got %d", config.Market.MaxBatchClaim)
	}
	if err := validateCrossReferences(config); err != nil {
		return fmt.Errorf("cross-reference validation failed: %w", err)
	}
	return nil
}

// validateCrossReferences checks settings that span sections
func validateCrossReferences(config *Config) error {
	if config.Journal.Enabled && config.Journal.Driver == "sqlite" &&
		config.NodeDB.IsPersistent() && config.Journal.Path == config.NodeDB.Path {
		return fmt.Errorf("journal path and node_db path must differ, both are %s", config.NodeDB.Path)
	}
	return nil
}

// validatePortString validates a port string
func validatePortString(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("port number out of range: %d", port)
	}
	return nil
}
