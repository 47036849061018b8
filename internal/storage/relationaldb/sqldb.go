package relationaldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

// Dialect captures what differs between the SQL backends.
type Dialect struct {
	// DriverName is the database/sql driver to open
	DriverName string

	// Schema statements run on open, in order
	Schema []string

	// Numbered placeholders ($1, $2) instead of ?
	NumberedPlaceholders bool
}

// executor allows using both sql.DB and sql.Tx
type executor interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SQLDatabase is the database/sql journal shared by the backends.
type SQLDatabase struct {
	db      *sql.DB
	config  *Config
	dialect Dialect
}

// NewSQLDatabase creates a journal over a database/sql driver.
func NewSQLDatabase(config *Config, dialect Dialect) *SQLDatabase {
	return &SQLDatabase{config: config, dialect: dialect}
}

// Open opens the connection and initializes the schema
func (s *SQLDatabase) Open(ctx context.Context) error {
	connStr, err := s.config.BuildConnectionString()
	if err != nil {
		return NewConfigurationError("open", "failed to build connection string", err)
	}

	sqlDB, err := sql.Open(s.dialect.DriverName, connStr)
	if err != nil {
		return NewConnectionError("open", "failed to open database connection", err)
	}
	sqlDB.SetMaxOpenConns(s.config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(s.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(s.config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return NewConnectionError("open", "failed to ping database", err)
	}
	for _, stmt := range s.dialect.Schema {
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			sqlDB.Close()
			return NewSchemaError("open", "failed to initialize schema", err)
		}
	}

	s.db = sqlDB
	return nil
}

// Close closes the database connection
func (s *SQLDatabase) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}

// Ping tests the database connection
func (s *SQLDatabase) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return NewConnectionError("ping", "database ping failed", err)
	}
	return nil
}

// SaveEvents implements EventRepository
func (s *SQLDatabase) SaveEvents(ctx context.Context, events []tx.Event) error {
	if s.db == nil {
		return ErrDatabaseClosed
	}
	if len(events) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewTransactionError("save_events", "failed to begin transaction", err)
	}
	for _, ev := range events {
		if err := s.saveEvent(ctx, sqlTx, ev); err != nil {
			sqlTx.Rollback()
			return err
		}
	}
	if err := sqlTx.Commit(); err != nil {
		return NewTransactionError("save_events", "failed to commit", err)
	}
	return nil
}

func (s *SQLDatabase) saveEvent(ctx context.Context, ex executor, ev tx.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return NewQueryError("save_event", "failed to encode event", err)
	}
	var assetID sql.NullInt64
	if ev.AssetID != nil {
		assetID = sql.NullInt64{Int64: int64(*ev.AssetID), Valid: true}
	}

	_, err = ex.ExecContext(ctx, s.rebind(`
		INSERT INTO events (seq, tx_hash, time, stream, type, asset_id, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (seq) DO NOTHING`),
		int64(ev.Sequence), ev.TxHash, ev.Time, ev.Stream, ev.Type, assetID, string(payload))
	if err != nil {
		return NewQueryError("save_event", fmt.Sprintf("failed to insert event %d", ev.Sequence), err)
	}

	for _, acct := range ev.Accounts {
		_, err := ex.ExecContext(ctx, s.rebind(`
			INSERT INTO event_accounts (seq, account) VALUES (?, ?)
			ON CONFLICT (seq, account) DO NOTHING`),
			int64(ev.Sequence), acct.String())
		if err != nil {
			return NewQueryError("save_event", fmt.Sprintf("failed to index event %d", ev.Sequence), err)
		}
	}
	return nil
}

// QueryEvents implements EventRepository
func (s *SQLDatabase) QueryEvents(ctx context.Context, q EventQuery) ([]tx.Event, error) {
	if s.db == nil {
		return nil, ErrDatabaseClosed
	}
	if err := q.Normalize(); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []interface{}
	)
	if q.AssetID != nil {
		where = append(where, "e.asset_id = ?")
		args = append(args, int64(*q.AssetID))
	}
	if q.Type != "" {
		where = append(where, "e.type = ?")
		args = append(args, q.Type)
	}
	if q.Stream != "" {
		where = append(where, "e.stream = ?")
		args = append(args, q.Stream)
	}
	if q.MinSequence > 0 {
		where = append(where, "e.seq >= ?")
		args = append(args, int64(q.MinSequence))
	}
	if q.Account != nil {
		where = append(where, "EXISTS (SELECT 1 FROM event_accounts a WHERE a.seq = e.seq AND a.account = ?)")
		args = append(args, q.Account.String())
	}

	var b strings.Builder
	b.WriteString("SELECT e.payload FROM events e")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if q.Newest {
		b.WriteString(" ORDER BY e.seq DESC")
	} else {
		b.WriteString(" ORDER BY e.seq ASC")
	}
	b.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, q.Limit, q.Offset)

	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.rebind(b.String()), args...)
	if err != nil {
		return nil, NewQueryError("query_events", "failed to query events", err)
	}
	defer rows.Close()

	var out []tx.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, NewQueryError("query_events", "failed to scan event", err)
		}
		var ev tx.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, NewQueryError("query_events", "failed to decode event", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError("query_events", "row iteration failed", err)
	}
	return out, nil
}

// GetStats implements EventRepository
func (s *SQLDatabase) GetStats(ctx context.Context) (*Stats, error) {
	if s.db == nil {
		return nil, ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	var (
		count int64
		last  sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*), MAX(seq) FROM events").Scan(&count, &last)
	if err != nil {
		return nil, NewQueryError("get_stats", "failed to read journal stats", err)
	}
	return &Stats{Events: count, LastSequence: uint64(last.Int64)}, nil
}

// rebind rewrites ? placeholders for dialects that number them.
func (s *SQLDatabase) rebind(query string) string {
	if !s.dialect.NumberedPlaceholders {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
