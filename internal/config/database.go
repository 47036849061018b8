package config

import (
	"fmt"
	"time"

	"github.com/LeJamon/goPropLedger/internal/storage/kvdb"
	"github.com/LeJamon/goPropLedger/internal/storage/relationaldb"
)

// NodeDBConfig represents the [node_db] section
// Configures the key/value store holding the ledger state
type NodeDBConfig struct {
	Type      string `toml:"type" mapstructure:"type"`
	Path      string `toml:"path" mapstructure:"path"`
	CacheSize int    `toml:"cache_size" mapstructure:"cache_size"`
}

// JournalConfig represents the [journal] section
type JournalConfig struct {
	Enabled bool `toml:"enabled" mapstructure:"enabled"`

	// Driver is sqlite or postgres
	Driver string `toml:"driver" mapstructure:"driver"`

	// Path is the SQLite database file
	Path string `toml:"path" mapstructure:"path"`

	// DSN is the PostgreSQL connection string
	DSN string `toml:"dsn" mapstructure:"dsn"`

	Timeout time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// Validate performs validation on the NodeDB configuration
func (n *NodeDBConfig) Validate() error {
	validTypes := []string{kvdb.BackendMemory, kvdb.BackendPebble, kvdb.BackendBBolt, kvdb.BackendLevelDB}
	if !containsSlice(validTypes, n.Type) {
		return fmt.Errorf("invalid node_db type: %q (valid options: %v)", n.Type, validTypes)
	}
	if n.Type != kvdb.BackendMemory && n.Path == "" {
		return fmt.Errorf("node_db path is required for type %s", n.Type)
	}
	if n.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", n.CacheSize)
	}
	return nil
}

// IsPersistent returns true if the ledger survives a restart
func (n *NodeDBConfig) IsPersistent() bool {
	return n.Type != kvdb.BackendMemory
}

// Validate performs validation on the journal configuration
func (j *JournalConfig) Validate() error {
	if !j.Enabled {
		return nil
	}
	_, err := j.Relational()
	return err
}

// Relational builds the journal database settings.
func (j *JournalConfig) Relational() (*relationaldb.Config, error) {
	var cfg *relationaldb.Config
	switch j.Driver {
	case "sqlite":
		if j.Path == "" {
			return nil, fmt.Errorf("journal path is required for sqlite")
		}
		cfg = relationaldb.SQLiteConfig(j.Path)
	case "postgres":
		if j.DSN == "" {
			return nil, fmt.Errorf("journal dsn is required for postgres")
		}
		cfg = relationaldb.PostgresConfig()
		cfg.ConnectionString = j.DSN
	default:
		return nil, fmt.Errorf("invalid journal driver: %q (valid options: sqlite, postgres)", j.Driver)
	}
	if j.Timeout > 0 {
		cfg.DefaultTimeout = j.Timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func containsSlice(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
