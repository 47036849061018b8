package relationaldb

import (
	"fmt"
	"net/url"
	"time"
)

// Config contains journal database settings
type Config struct {
	// Database connection settings
	Driver           string `json:"driver" yaml:"driver" mapstructure:"driver"`
	ConnectionString string `json:"connection_string" yaml:"connection_string" mapstructure:"dsn"`
	Host             string `json:"host" yaml:"host" mapstructure:"host"`
	Port             int    `json:"port" yaml:"port" mapstructure:"port"`
	Database         string `json:"database" yaml:"database" mapstructure:"database"`
	Username         string `json:"username" yaml:"username" mapstructure:"username"`
	Password         string `json:"password" yaml:"password" mapstructure:"password"`
	SSLMode          string `json:"ssl_mode" yaml:"ssl_mode" mapstructure:"ssl_mode"`

	// Connection pool settings
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`

	// DefaultTimeout bounds every statement
	DefaultTimeout time.Duration `json:"default_timeout" yaml:"default_timeout" mapstructure:"default_timeout"`

	// SQLite only
	EnableWALMode bool `json:"enable_wal_mode" yaml:"enable_wal_mode" mapstructure:"enable_wal_mode"`
}

// NewConfig creates a new Config with sensible defaults
func NewConfig() *Config {
	return &Config{
		Driver:          "sqlite",
		Host:            "localhost",
		Port:            5432,
		Database:        "propledger.db",
		Username:        "propledger",
		SSLMode:         "prefer",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		DefaultTimeout:  time.Second * 10,
		EnableWALMode:   true,
	}
}

// PostgresConfig creates a PostgreSQL-specific configuration
func PostgresConfig() *Config {
	config := NewConfig()
	config.Driver = "postgres"
	config.Database = "propledger"
	return config
}

// SQLiteConfig creates a SQLite-specific configuration
func SQLiteConfig(dbPath string) *Config {
	config := NewConfig()
	config.Driver = "sqlite"
	config.Database = dbPath
	config.MaxOpenConns = 1 // SQLite limitation
	config.MaxIdleConns = 1
	return config
}

// Validate checks the configuration for common errors
func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "postgresql":
		c.Driver = "postgres"
	case "sqlite3", "sqlite":
		c.Driver = "sqlite"
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDriver, c.Driver)
	}

	if c.Driver == "postgres" && c.ConnectionString == "" {
		if c.Host == "" {
			return ErrMissingHost
		}
		if c.Port <= 0 || c.Port > 65535 {
			return ErrInvalidPort
		}
		if c.Username == "" {
			return ErrMissingUsername
		}
		switch c.SSLMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
		}
	}
	if c.Database == "" && c.ConnectionString == "" {
		return ErrMissingDatabase
	}

	if c.MaxOpenConns < 0 {
		return ErrInvalidMaxOpenConns
	}
	if c.MaxIdleConns < 0 {
		return ErrInvalidMaxIdleConns
	}
	if c.MaxIdleConns > c.MaxOpenConns && c.MaxOpenConns > 0 {
		return ErrMaxIdleExceedsMaxOpen
	}
	if c.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// BuildConnectionString builds a connection string from the config
func (c *Config) BuildConnectionString() (string, error) {
	if c.ConnectionString != "" {
		return c.ConnectionString, nil
	}

	switch c.Driver {
	case "postgres":
		return c.buildPostgresConnectionString(), nil
	case "sqlite":
		return c.buildSQLiteConnectionString(), nil
	default:
		return "", fmt.Errorf("unsupported driver for connection string building: %s", c.Driver)
	}
}

func (c *Config) buildPostgresConnectionString() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	params.Set("connect_timeout", "30")
	params.Set("application_name", "propledgerd")

	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: params.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	} else {
		u.User = url.User(c.Username)
	}
	return u.String()
}

// buildSQLiteConnectionString uses modernc's _pragma parameters
func (c *Config) buildSQLiteConnectionString() string {
	params := url.Values{}
	if c.EnableWALMode {
		params.Add("_pragma", "journal_mode(WAL)")
	}
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Add("_pragma", "busy_timeout(5000)")
	return "file:" + c.Database + "?" + params.Encode()
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
