// Package service runs the ledger for the node: it owns the committed store
// and the engine, creates genesis on first start, and answers the queries of
// the RPC, WebSocket and gRPC layers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/LeJamon/goPropLedger/internal/core/ledger/genesis"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	_ "github.com/LeJamon/goPropLedger/internal/core/tx/all"
	"github.com/LeJamon/goPropLedger/internal/storage/relationaldb"
)

// Common errors
var (
	ErrNotStarted      = errors.New("ledger service not started")
	ErrJournalDisabled = errors.New("event journal is disabled")
)

// Journal is the event history the service can query.
type Journal interface {
	tx.EventSink
	Query(ctx context.Context, q relationaldb.EventQuery) ([]tx.Event, error)
	Stats(ctx context.Context) (*relationaldb.Stats, error)
}

// Config holds configuration for the Service
type Config struct {
	// Standalone accepts unsigned transactions
	Standalone bool

	// Genesis is written when the store holds no ledger yet
	Genesis genesis.Config

	// MaxBatchClaim caps BatchClaimYield
	MaxBatchClaim int

	// Store is the committed state (nil for in-memory only)
	Store view.Committer

	// Clock defaults to the system clock
	Clock tx.Clock
}

// Service manages the ledger lifecycle
type Service struct {
	mu sync.RWMutex

	config  Config
	base    view.Committer
	engine  *tx.Engine
	journal Journal
	started time.Time
}

// New creates a new Service
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		cfg.Store = view.NewMemory()
	}
	if cfg.Clock == nil {
		cfg.Clock = tx.SystemClock{}
	}
	s := &Service{config: cfg, base: cfg.Store}
	s.engine = tx.NewEngine(cfg.Store, cfg.Clock, tx.EngineConfig{
		Standalone:    cfg.Standalone,
		MaxBatchClaim: cfg.MaxBatchClaim,
	})
	return s, nil
}

// Start writes genesis if the store is empty.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	initialized, err := genesis.Initialized(s.base)
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}
	if !initialized {
		gen := s.config.Genesis
		if gen.Time == 0 {
			gen.Time = s.config.Clock.Now().Unix()
		}
		if err := genesis.Create(s.base, gen); err != nil {
			return fmt.Errorf("failed to create genesis ledger: %w", err)
		}
		log.Printf("ledger: genesis created, administrator %s", gen.Admin)
	} else {
		log.Printf("ledger: resuming existing ledger")
	}
	s.started = s.config.Clock.Now()
	return nil
}

// AttachJournal feeds every committed event to j and serves event queries from it.
func (s *Service) AttachJournal(j Journal) {
	s.mu.Lock()
	s.journal = j
	s.mu.Unlock()
	s.engine.Subscribe(j)
}

// Subscribe adds a sink for committed events.
func (s *Service) Subscribe(sink tx.EventSink) {
	s.engine.Subscribe(sink)
}

// Observe adds an observer of every transaction outcome.
func (s *Service) Observe(o tx.ResultObserver) {
	s.engine.Observe(o)
}

// Engine returns the transaction engine.
func (s *Service) Engine() *tx.Engine {
	return s.engine
}

// View returns the committed state.
func (s *Service) View() view.Reader {
	return s.base
}

// IsStandalone reports whether unsigned transactions are accepted.
func (s *Service) IsStandalone() bool {
	return s.config.Standalone
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.started.IsZero() {
		return ErrNotStarted
	}
	return nil
}

// SubmitTransaction parses, authenticates and applies a JSON transaction.
// Outside standalone mode the transaction must carry a valid signature.
func (s *Service) SubmitTransaction(txJSON []byte) (*tx.ApplyResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	t, err := tx.FromJSON(txJSON)
	if err != nil {
		if errors.Is(err, tx.ErrUnknownTransactionType) {
			return rejected(tx.Fail(tx.TemUNKNOWN_TX, "%v", err)), nil
		}
		return rejected(tx.Fail(tx.TemMALFORMED, "%v", err)), nil
	}
	return s.Submit(t), nil
}

// Submit applies a parsed transaction. Outside standalone mode a signed
// transaction must carry its account's next Sequence, so each signature
// can be applied at most once.
func (s *Service) Submit(t tx.Transaction) *tx.ApplyResult {
	if !s.config.Standalone || t.GetCommon().TxnSignature != "" {
		if err := tx.VerifySignature(t); err != nil {
			return rejected(err)
		}
	}
	if !s.config.Standalone && t.GetCommon().Sequence == 0 {
		return rejected(tx.Fail(tx.TemMALFORMED, "signed transactions must carry a Sequence"))
	}
	res := s.engine.Apply(t)
	return &res
}

func rejected(err error) *tx.ApplyResult {
	r := tx.ResultOf(err)
	return &tx.ApplyResult{Result: r, Message: err.Error()}
}
