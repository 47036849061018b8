package config

import (
	"fmt"
	"net"
	"time"
)

// ServerConfig represents the [server] section
type ServerConfig struct {
	// Standalone accepts unsigned transactions
	Standalone bool `toml:"standalone" mapstructure:"standalone"`

	// HTTPAddress serves JSON-RPC on /, WebSocket on /ws and, when
	// Metrics is set, Prometheus on /metrics
	HTTPAddress string `toml:"http_address" mapstructure:"http_address"`

	// GRPCAddress serves the query API; empty disables it
	GRPCAddress string `toml:"grpc_address" mapstructure:"grpc_address"`

	Metrics bool `toml:"metrics" mapstructure:"metrics"`

	RequestTimeout  time.Duration `toml:"request_timeout" mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// HasGRPC returns true if the gRPC listener is enabled
func (s *ServerConfig) HasGRPC() bool {
	return s.GRPCAddress != ""
}

// Validate performs validation on the server configuration
func (s *ServerConfig) Validate() error {
	if err := validateAddress("http_address", s.HTTPAddress); err != nil {
		return err
	}
	if s.HasGRPC() {
		if err := validateAddress("grpc_address", s.GRPCAddress); err != nil {
			return err
		}
		if s.GRPCAddress == s.HTTPAddress {
			return fmt.Errorf("grpc_address and http_address must differ, both are %s", s.HTTPAddress)
		}
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", s.RequestTimeout)
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", s.ShutdownTimeout)
	}
	return nil
}

func validateAddress(name, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", name)
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, addr, err)
	}
	if err := validatePortString(port); err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, addr, err)
	}
	return nil
}
