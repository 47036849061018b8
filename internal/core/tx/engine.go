package tx

import (
	"encoding/hex"
	"log"
	"sync"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
)

// DefaultMaxBatchClaim is the batch claim limit when none is configured.
const DefaultMaxBatchClaim = 100

// EngineConfig holds configuration for the transaction engine
type EngineConfig struct {
	// Standalone accepts unsigned transactions
	Standalone bool

	// MaxBatchClaim caps the number of assets in one BatchClaimYield
	MaxBatchClaim int
}

// BatchLimit returns the configured batch claim cap.
func (c EngineConfig) BatchLimit() int {
	if c.MaxBatchClaim <= 0 {
		return DefaultMaxBatchClaim
	}
	return c.MaxBatchClaim
}

// ApplyResult contains the result of applying a transaction
type ApplyResult struct {
	// Result is the transaction result code
	Result Result `json:"engine_result"`

	// Applied indicates if the transaction changed the ledger
	Applied bool `json:"applied"`

	// Hash identifies the transaction
	Hash string `json:"hash"`

	// AffectedNodes lists the entries the transaction changed
	AffectedNodes []view.AffectedNode `json:"affected_nodes,omitempty"`

	// Events are the events published for the transaction
	Events []Event `json:"events,omitempty"`

	// Message is a human-readable result message
	Message string `json:"engine_result_message"`

	err error
}

// Err returns the failure as an error wrapping the result code, or nil on success.
func (r ApplyResult) Err() error {
	if r.Result.IsSuccess() {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	return r.Result
}

// Engine serializes transactions against the committed view. Each transaction
// runs against its own staged table; only successful transactions commit.
type Engine struct {
	mu        sync.Mutex
	base      view.Committer
	config    EngineConfig
	clock     Clock
	sinks     []EventSink
	observers []ResultObserver

	hooksMu sync.RWMutex
	hooks   map[account.ID]ReceiverHook
}

// NewEngine creates an engine over the committed view.
func NewEngine(base view.Committer, clock Clock, config EngineConfig) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{
		base:   base,
		config: config,
		clock:  clock,
		hooks:  make(map[account.ID]ReceiverHook),
	}
}

// Subscribe adds a sink that receives events after every commit.
func (e *Engine) Subscribe(sink EventSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, sink)
}

// Observe adds an observer of every transaction outcome.
func (e *Engine) Observe(o ResultObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// SetReceiverHook registers (or with nil, removes) the hook run when acct receives an asset.
func (e *Engine) SetReceiverHook(acct account.ID, hook ReceiverHook) {
	e.hooksMu.Lock()
	defer e.hooksMu.Unlock()
	if hook == nil {
		delete(e.hooks, acct)
		return
	}
	e.hooks[acct] = hook
}

func (e *Engine) receiverHook(acct account.ID) ReceiverHook {
	e.hooksMu.RLock()
	defer e.hooksMu.RUnlock()
	return e.hooks[acct]
}

// View returns the committed state.
func (e *Engine) View() view.Reader {
	return e.base
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Now returns the engine clock's current Unix time.
func (e *Engine) Now() int64 {
	return e.clock.Now().Unix()
}

// Apply runs one transaction to completion. No other transaction is applied
// concurrently.
func (e *Engine) Apply(t Transaction) ApplyResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := e.apply(t)
	for _, o := range e.observers {
		o.ObserveResult(t.TxType(), res.Result)
	}
	if res.Applied {
		for _, sink := range e.sinks {
			sink.Publish(res.Events)
		}
	}
	return res
}

func (e *Engine) apply(t Transaction) ApplyResult {
	// Step 1: Preflight checks (syntax validation)
	if err := t.Validate(); err != nil {
		return failed(t, malformed(err), [32]byte{})
	}

	appliable, ok := t.(Appliable)
	if !ok {
		return failed(t, Fail(TemUNKNOWN_TX, "%s cannot be applied", t.TxType()), [32]byte{})
	}

	txHash, err := Hash(t)
	if err != nil {
		return failed(t, Fail(TefINTERNAL, "failed to compute transaction hash: %v", err), txHash)
	}

	// Step 2: Apply against a staged table
	common := t.GetCommon()
	ctx := NewApplyContext(e.base, common.Account, e.Now(), e.config)
	ctx.TxHash = txHash
	ctx.Engine = e

	if err := consumeSequence(ctx, common); err != nil {
		return failed(t, err, txHash)
	}
	if err := appliable.Apply(ctx); err != nil {
		return failed(t, err, txHash)
	}

	// Step 3: Invariants, then stamp events and commit in one batch
	if err := checkInvariants(ctx); err != nil {
		log.Printf("tx: %s %x rejected by invariant: %v", t.TxType(), txHash[:8], err)
		return failed(t, err, txHash)
	}
	events, err := e.finalize(ctx)
	if err != nil {
		return failed(t, err, txHash)
	}
	nodes := ctx.table.AffectedNodes()
	if err := ctx.table.Apply(e.base); err != nil {
		log.Printf("tx: commit of %x failed: %v", txHash[:8], err)
		return failed(t, Fail(TefINTERNAL, "commit: %v", err), txHash)
	}

	return ApplyResult{
		Result:        TesSUCCESS,
		Applied:       true,
		Hash:          hex.EncodeToString(txHash[:]),
		AffectedNodes: nodes,
		Events:        events,
		Message:       TesSUCCESS.Message(),
	}
}

// finalize advances the ledger header and assigns event sequence numbers.
func (e *Engine) finalize(ctx *ApplyContext) ([]Event, error) {
	header, err := view.Get[entry.Header](ctx.View, keylet.Header())
	if err != nil {
		return nil, err
	}
	if header == nil {
		header = &entry.Header{GenesisTime: ctx.Now}
	}
	header.TxCount++
	header.LastTxHash = ctx.TxHash
	header.LastTxTime = ctx.Now

	hash := hex.EncodeToString(ctx.TxHash[:])
	events := make([]Event, len(ctx.events))
	for i, ev := range ctx.events {
		header.EventCount++
		ev.Sequence = header.EventCount
		ev.TxHash = hash
		ev.Time = ctx.Now
		events[i] = ev
	}
	if err := view.Put(ctx.View, keylet.Header(), header); err != nil {
		return nil, err
	}
	return events, nil
}

// consumeSequence enforces and advances the account sequence when the transaction carries one.
func consumeSequence(ctx *ApplyContext, c *Common) error {
	if c.Sequence == 0 {
		return nil
	}
	seq, err := view.Get[entry.AccountSequence](ctx.View, keylet.Sequence(c.Account))
	if err != nil {
		return err
	}
	if seq == nil {
		seq = &entry.AccountSequence{Account: c.Account, Next: 1}
	}
	if c.Sequence != seq.Next {
		return Fail(TecBAD_SEQUENCE, "expected sequence %d, got %d", seq.Next, c.Sequence)
	}
	seq.Next++
	return view.Put(ctx.View, keylet.Sequence(c.Account), seq)
}

// NextSequence returns the sequence the account's next transaction must carry.
func NextSequence(r view.Reader, acct account.ID) (uint64, error) {
	seq, err := view.Get[entry.AccountSequence](r, keylet.Sequence(acct))
	if err != nil {
		return 0, err
	}
	if seq == nil {
		return 1, nil
	}
	return seq.Next, nil
}

func malformed(err error) error {
	if r := ResultOf(err); r.IsTem() {
		return err
	}
	return &Failure{Result: TemMALFORMED, Detail: err.Error()}
}

func failed(t Transaction, err error, txHash [32]byte) ApplyResult {
	r := ResultOf(err)
	if r == TesSUCCESS {
		r = TefINTERNAL
	}
	if r == TefINTERNAL {
		log.Printf("tx: %s failed internally: %v", t.TxType(), err)
	}
	return ApplyResult{
		Result:  r,
		Applied: false,
		Hash:    hex.EncodeToString(txHash[:]),
		Message: err.Error(),
		err:     err,
	}
}
