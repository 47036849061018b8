package relationaldb

import (
	"errors"
	"fmt"
)

// Error types for different categories of database errors
var (
	// Configuration errors
	ErrMissingHost           = errors.New("database host is required")
	ErrMissingDatabase       = errors.New("database name is required")
	ErrMissingUsername       = errors.New("database username is required")
	ErrInvalidPort           = errors.New("invalid database port")
	ErrInvalidDriver         = errors.New("invalid database driver")
	ErrInvalidMaxOpenConns   = errors.New("max open connections must be >= 0")
	ErrInvalidMaxIdleConns   = errors.New("max idle connections must be >= 0")
	ErrMaxIdleExceedsMaxOpen = errors.New("max idle connections cannot exceed max open connections")
	ErrInvalidTimeout        = errors.New("timeout must be positive")

	// Connection errors
	ErrDatabaseClosed = errors.New("database connection is closed")

	// Query errors
	ErrInvalidLimit  = errors.New("invalid query limit")
	ErrInvalidOffset = errors.New("invalid query offset")
)

// ErrorType represents different categories of database errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeConnection
	ErrorTypeTransaction
	ErrorTypeQuery
	ErrorTypeSchema
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeConfiguration:
		return "configuration"
	case ErrorTypeConnection:
		return "connection"
	case ErrorTypeTransaction:
		return "transaction"
	case ErrorTypeQuery:
		return "query"
	case ErrorTypeSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// DatabaseError provides detailed information about database errors
type DatabaseError struct {
	Type      ErrorType `json:"type"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	Cause     error     `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *DatabaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause error
func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(errorType ErrorType, operation, message string, cause error) *DatabaseError {
	return &DatabaseError{
		Type:      errorType,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeConfiguration, operation, message, cause)
}

// NewConnectionError creates a connection error
func NewConnectionError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeConnection, operation, message, cause)
}

// NewTransactionError creates a transaction error
func NewTransactionError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeTransaction, operation, message, cause)
}

// NewQueryError creates a query error
func NewQueryError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeQuery, operation, message, cause)
}

// NewSchemaError creates a schema error
func NewSchemaError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeSchema, operation, message, cause)
}
