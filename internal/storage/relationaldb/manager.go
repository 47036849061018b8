// Package relationaldb is the event journal: every committed event is
// appended to a SQL database and can be queried by asset, account and type.
package relationaldb

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

// Logger interface for dependency injection
type Logger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// DefaultLogger provides a basic logger implementation
type DefaultLogger struct {
	logger *log.Logger
}

func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{logger: log.Default()}
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.logger.Printf("[INFO] journal: "+msg, fields...)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.logger.Printf("[WARN] journal: "+msg, fields...)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.logger.Printf("[ERROR] journal: "+msg, fields...)
}

// Manager owns the journal database and feeds it from the engine.
type Manager struct {
	db     Database
	logger Logger

	healthCheckInterval time.Duration
	healthCancel        context.CancelFunc
	healthWg            sync.WaitGroup

	mu        sync.RWMutex
	connected bool
	lastError error
	failed    uint64
}

// ManagerOption defines functional options for Manager
type ManagerOption func(*Manager)

// WithLogger sets the logger for the manager
func WithLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHealthCheckInterval sets the health check interval; zero disables it
func WithHealthCheckInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		m.healthCheckInterval = interval
	}
}

// NewManager creates a manager for db.
func NewManager(db Database, opts ...ManagerOption) *Manager {
	m := &Manager{
		db:                  db,
		logger:              NewDefaultLogger(),
		healthCheckInterval: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open builds and opens the backend named by config.Driver.
func Open(ctx context.Context, config *Config, opts ...ManagerOption) (*Manager, error) {
	db, err := NewDatabase(config)
	if err != nil {
		return nil, err
	}
	m := NewManager(db, opts...)
	if err := m.Start(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Start opens the database and begins health checking
func (m *Manager) Start(ctx context.Context) error {
	if err := m.db.Open(ctx); err != nil {
		m.setState(false, err)
		return err
	}
	m.setState(true, nil)
	m.logger.Info("database opened")

	if m.healthCheckInterval > 0 {
		hctx, cancel := context.WithCancel(context.Background())
		m.healthCancel = cancel
		m.healthWg.Add(1)
		go m.healthLoop(hctx)
	}
	return nil
}

// Close stops health checking and closes the database
func (m *Manager) Close(ctx context.Context) error {
	if m.healthCancel != nil {
		m.healthCancel()
		m.healthWg.Wait()
	}
	m.setState(false, nil)
	return m.db.Close(ctx)
}

func (m *Manager) healthLoop(ctx context.Context) {
	defer m.healthWg.Done()
	ticker := time.NewTicker(m.healthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := m.db.Ping(ctx)
			if err != nil && ctx.Err() == nil {
				m.logger.Warn("health check failed: %v", err)
			}
			m.setState(err == nil, err)
		}
	}
}

func (m *Manager) setState(connected bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
	m.lastError = err
}

// Publish implements tx.EventSink. A journal write failure is logged and
// counted; it never affects the ledger, which has already committed.
func (m *Manager) Publish(events []tx.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.db.SaveEvents(ctx, events); err != nil {
		m.mu.Lock()
		m.failed += uint64(len(events))
		m.lastError = err
		m.mu.Unlock()
		m.logger.Error("failed to journal %d events: %v", len(events), err)
	}
}

// Query returns journal events matching q.
func (m *Manager) Query(ctx context.Context, q EventQuery) ([]tx.Event, error) {
	return m.db.QueryEvents(ctx, q)
}

// Stats returns the journal summary.
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	return m.db.GetStats(ctx)
}

// Status reports connection state, the last error and the number of events
// that could not be journaled.
func (m *Manager) Status() (connected bool, lastError error, failed uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected, m.lastError, m.failed
}
