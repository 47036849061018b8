// Package sqlite is the embedded event journal backend, used by default.
package sqlite

import (
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/LeJamon/goPropLedger/internal/storage/relationaldb"
)

func init() {
	relationaldb.RegisterDriver("sqlite", NewDatabase)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY,
		tx_hash TEXT NOT NULL,
		time INTEGER NOT NULL,
		stream TEXT NOT NULL,
		type TEXT NOT NULL,
		asset_id INTEGER,
		payload TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS event_accounts (
		seq INTEGER NOT NULL,
		account TEXT NOT NULL,
		PRIMARY KEY (seq, account)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_asset ON events(asset_id, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_event_accounts_account ON event_accounts(account, seq)`,
}

// NewDatabase creates a SQLite journal
func NewDatabase(config *relationaldb.Config) (relationaldb.Database, error) {
	return relationaldb.NewSQLDatabase(config, relationaldb.Dialect{
		DriverName: "sqlite",
		Schema:     schema,
	}), nil
}
