package tx

import (
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
)

// MaxHookDepth bounds how deeply receiver hooks may re-enter the engine.
const MaxHookDepth = 4

// ReceiverHook is invoked when an asset is transferred to the account it is
// registered for. It runs inside the transfer and may call back into any
// entry point with the same context. Returning an error aborts the transaction.
type ReceiverHook func(ctx *ApplyContext, operator, from account.ID, assetID uint64) error

// ApplyContext provides all the state and helpers needed to apply a transaction.
type ApplyContext struct {
	// View provides read/write access to ledger state (the staged table)
	View view.LedgerView

	// Account is the account that signed the transaction
	Account account.ID

	// TxHash is the hash of the current transaction
	TxHash [32]byte

	// Now is the ledger time for this transaction, in Unix seconds
	Now int64

	// Config holds engine configuration
	Config EngineConfig

	// Engine provides access to hooks
	Engine *Engine

	table     *view.Table
	events    []Event
	hookDepth int
}

// Emit buffers an event. Buffered events are published only if the transaction commits.
func (ctx *ApplyContext) Emit(e Event) {
	ctx.events = append(ctx.events, e)
}

// Events returns the events emitted so far.
func (ctx *ApplyContext) Events() []Event {
	return ctx.events
}

// Table returns the staged table the transaction applies against.
func (ctx *ApplyContext) Table() *view.Table {
	return ctx.table
}

// NotifyReceiver runs the receiver hook registered for to, if any.
func (ctx *ApplyContext) NotifyReceiver(operator, from, to account.ID, assetID uint64) error {
	if ctx.Engine == nil {
		return nil
	}
	hook := ctx.Engine.receiverHook(to)
	if hook == nil {
		return nil
	}
	if ctx.hookDepth >= MaxHookDepth {
		return Fail(TecINVALID_OPERATION, "receiver hook nesting exceeds %d", MaxHookDepth)
	}
	ctx.hookDepth++
	defer func() { ctx.hookDepth-- }()
	return hook(ctx, operator, from, assetID)
}

// Atomic runs fn as one all-or-nothing step. At the top level the engine
// already discards a failed transaction, so fn runs directly. Inside a
// receiver hook fn runs over a savepoint: its writes and events reach ctx
// only when it succeeds, so a hook that swallows the error sees no partial
// state.
func (ctx *ApplyContext) Atomic(fn func(*ApplyContext) error) error {
	if ctx.hookDepth == 0 {
		return fn(ctx)
	}
	child := view.NewTable(ctx.View)
	sub := *ctx
	sub.View = child
	sub.table = child
	sub.events = nil
	if err := fn(&sub); err != nil {
		return err
	}
	if err := child.ApplyTo(ctx.View); err != nil {
		return Fail(TefINTERNAL, "release savepoint: %v", err)
	}
	ctx.events = append(ctx.events, sub.events...)
	return nil
}

// NewApplyContext builds a context over a fresh staged table. It is used by
// the engine and by tests that drive entry points directly.
func NewApplyContext(base view.LedgerView, signer account.ID, now int64, config EngineConfig) *ApplyContext {
	table := view.NewTable(base)
	return &ApplyContext{
		View:    table,
		Account: signer,
		Now:     now,
		Config:  config,
		table:   table,
	}
}
