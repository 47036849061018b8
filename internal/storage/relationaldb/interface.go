package relationaldb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

// DefaultQueryLimit applies when a query does not set a limit
const DefaultQueryLimit = 200

// MaxQueryLimit caps the number of events returned by one query
const MaxQueryLimit = 1000

// EventQuery selects journal events. Zero-valued filters match everything.
type EventQuery struct {
	AssetID *uint64     `json:"asset_id,omitempty"`
	Account *account.ID `json:"account,omitempty"`
	Type    string      `json:"type,omitempty"`
	Stream  string      `json:"stream,omitempty"`

	// MinSequence excludes events before it, for resuming a feed
	MinSequence uint64 `json:"min_sequence,omitempty"`

	Limit  int  `json:"limit,omitempty"`
	Offset int  `json:"offset,omitempty"`
	Newest bool `json:"newest,omitempty"`
}

// Normalize applies the default limit and rejects out of range paging.
func (q *EventQuery) Normalize() error {
	if q.Limit < 0 || q.Limit > MaxQueryLimit {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, q.Limit)
	}
	if q.Offset < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOffset, q.Offset)
	}
	if q.Limit == 0 {
		q.Limit = DefaultQueryLimit
	}
	return nil
}

// Stats summarizes the journal contents
type Stats struct {
	Events       int64  `json:"events"`
	LastSequence uint64 `json:"last_sequence"`
}

// EventRepository stores and queries committed events
type EventRepository interface {
	// SaveEvents appends events in one database transaction. Events whose
	// sequence is already stored are skipped.
	SaveEvents(ctx context.Context, events []tx.Event) error
	QueryEvents(ctx context.Context, q EventQuery) ([]tx.Event, error)
	GetStats(ctx context.Context) (*Stats, error)
}

// Database is a journal backend
type Database interface {
	EventRepository

	Open(ctx context.Context) error
	Close(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Factory builds a Database for a validated configuration
type Factory func(config *Config) (Database, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Factory)
)

// RegisterDriver makes a backend available by driver name. Backend packages
// call it from init.
func RegisterDriver(name string, factory Factory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, dup := drivers[name]; dup {
		panic("relationaldb: driver registered twice: " + name)
	}
	drivers[name] = factory
}

// Drivers lists the registered backends.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDatabase creates a backend for config.Driver.
func NewDatabase(config *Config) (Database, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigurationError("new_database", "invalid configuration", err)
	}
	driversMu.RLock()
	factory, ok := drivers[config.Driver]
	driversMu.RUnlock()
	if !ok {
		return nil, NewConfigurationError("new_database", "driver not linked in: "+config.Driver, ErrInvalidDriver)
	}
	return factory(config)
}
