// Package grpc serves the read-only ledger query API over gRPC.
package grpc

import (
	"fmt"
	"net"
	"time"
)

// ServerConfig holds configuration for the gRPC server.
type ServerConfig struct {
	// Address is the address to listen on (e.g., "127.0.0.1:50551")
	Address string

	// MaxRecvMsgSize is the maximum message size in bytes the server can receive.
	MaxRecvMsgSize int

	// MaxSendMsgSize is the maximum message size in bytes the server can send.
	MaxSendMsgSize int

	// RequestTimeout bounds every call; zero leaves calls unbounded
	RequestTimeout time.Duration
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:        "127.0.0.1:50551",
		MaxRecvMsgSize: 1 << 20,
		MaxSendMsgSize: 4 << 20,
		RequestTimeout: 10 * time.Second,
	}
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	host, port, err := net.SplitHostPort(c.Address)
	if err != nil {
		return fmt.Errorf("invalid address format: %w", err)
	}
	if host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.MaxRecvMsgSize <= 0 {
		return fmt.Errorf("max_recv_msg_size must be positive")
	}
	if c.MaxSendMsgSize <= 0 {
		return fmt.Errorf("max_send_msg_size must be positive")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout cannot be negative")
	}
	return nil
}
