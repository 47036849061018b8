// Package postgres is the PostgreSQL event journal backend.
package postgres

import (
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/LeJamon/goPropLedger/internal/storage/relationaldb"
)

func init() {
	relationaldb.RegisterDriver("postgres", NewDatabase)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		seq BIGINT PRIMARY KEY,
		tx_hash VARCHAR(64) NOT NULL,
		time BIGINT NOT NULL,
		stream VARCHAR(16) NOT NULL,
		type VARCHAR(32) NOT NULL,
		asset_id BIGINT,
		payload TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS event_accounts (
		seq BIGINT NOT NULL REFERENCES events(seq) ON DELETE CASCADE,
		account VARCHAR(42) NOT NULL,
		PRIMARY KEY (seq, account)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_asset ON events(asset_id, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_event_accounts_account ON event_accounts(account, seq)`,
}

// NewDatabase creates a PostgreSQL journal
func NewDatabase(config *relationaldb.Config) (relationaldb.Database, error) {
	return relationaldb.NewSQLDatabase(config, relationaldb.Dialect{
		DriverName:           "postgres",
		Schema:               schema,
		NumberedPlaceholders: true,
	}), nil
}
