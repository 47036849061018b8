package testing

import (
	"sync"
	"testing"
	"time"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/genesis"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/asset"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	"github.com/LeJamon/goPropLedger/internal/core/tx/token"
	"github.com/LeJamon/goPropLedger/internal/core/tx/yield"
)

// TestEnv manages a test ledger environment for transaction testing.
// It provides a simplified interface for creating accounts, funding them,
// submitting transactions, and verifying results.
type TestEnv struct {
	t      *testing.T
	base   *view.Memory
	engine *tx.Engine
	clock  *ManualClock
	admin  *Account

	mu     sync.Mutex
	events []tx.Event
}

// NewTestEnv creates a new test environment with the default genesis.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return NewTestEnvWithConfig(t, genesis.DefaultConfig(AdminAccount().ID), tx.EngineConfig{Standalone: true})
}

// NewTestEnvWithConfig creates a test environment with a custom genesis and engine config.
func NewTestEnvWithConfig(t *testing.T, gen genesis.Config, cfg tx.EngineConfig) *TestEnv {
	t.Helper()

	clock := NewManualClock()
	gen.Time = clock.Now().Unix()
	base := view.NewMemory()
	if err := genesis.Create(base, gen); err != nil {
		t.Fatalf("Failed to create genesis ledger: %v", err)
	}

	env := &TestEnv{
		t:     t,
		base:  base,
		clock: clock,
		admin: AdminAccount(),
	}
	env.engine = tx.NewEngine(base, clock, cfg)
	env.engine.Subscribe(env)
	return env
}

// Publish records committed events.
func (e *TestEnv) Publish(events []tx.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, events...)
}

// Events returns every event committed so far.
func (e *TestEnv) Events() []tx.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]tx.Event(nil), e.events...)
}

// EventsOfType returns the committed events of one type.
func (e *TestEnv) EventsOfType(typ string) []tx.Event {
	var out []tx.Event
	for _, ev := range e.Events() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Submit applies a transaction.
func (e *TestEnv) Submit(txn tx.Transaction) tx.ApplyResult {
	e.t.Helper()
	return e.engine.Apply(txn)
}

// SubmitSigned signs the transaction with signer's keys, verifies the
// signature the way the RPC layer does, and applies it.
func (e *TestEnv) SubmitSigned(txn tx.Transaction, signer *Account) tx.ApplyResult {
	e.t.Helper()
	if err := tx.Sign(txn, signer.Keys); err != nil {
		e.t.Fatalf("Failed to sign transaction: %v", err)
	}
	if err := tx.VerifySignature(txn); err != nil {
		return tx.ApplyResult{Result: tx.ResultOf(err), Message: err.Error()}
	}
	return e.engine.Apply(txn)
}

// mustSubmit applies a setup transaction and fails the test if it does not succeed.
func (e *TestEnv) mustSubmit(txn tx.Transaction) tx.ApplyResult {
	e.t.Helper()
	res := e.engine.Apply(txn)
	if !res.Applied {
		e.t.Fatalf("%s failed: %s (%s)", txn.TxType(), res.Result, res.Message)
	}
	return res
}

// Fund transfers amt from the administrator to each account.
func (e *TestEnv) Fund(amt amount.Amount, accounts ...*Account) {
	e.t.Helper()
	for _, acc := range accounts {
		e.mustSubmit(token.NewTokenTransfer(e.admin.ID, acc.ID, amt))
	}
}

// MintAsset mints a new asset to owner and returns its id.
func (e *TestEnv) MintAsset(owner *Account) uint64 {
	e.t.Helper()
	id, err := asset.Registry{}.TotalAssets(e.base)
	if err != nil {
		e.t.Fatalf("Failed to read asset counter: %v", err)
	}
	e.mustSubmit(asset.NewAssetMint(e.admin.ID, owner.ID))
	return id
}

// ApproveMarket makes the market an operator for every asset of owner.
func (e *TestEnv) ApproveMarket(owner *Account) {
	e.t.Helper()
	e.mustSubmit(asset.NewAssetSetApprovalForAll(owner.ID, account.Market, true))
}

// RevokeMarket withdraws the market's operator approval.
func (e *TestEnv) RevokeMarket(owner *Account) {
	e.t.Helper()
	e.mustSubmit(asset.NewAssetSetApprovalForAll(owner.ID, account.Market, false))
}

// RegisterYield starts yield accrual for an asset.
func (e *TestEnv) RegisterYield(assetID uint64) {
	e.t.Helper()
	e.mustSubmit(yield.NewRegisterProperty(e.admin.ID, assetID))
}

// TransferAsset moves an asset directly between accounts.
func (e *TestEnv) TransferAsset(from, to *Account, assetID uint64) {
	e.t.Helper()
	e.mustSubmit(asset.NewAssetTransfer(from.ID, assetID, to.ID))
}

// Balance returns the token balance of an account.
func (e *TestEnv) Balance(acc *Account) amount.Amount {
	e.t.Helper()
	return e.BalanceOf(acc.ID)
}

// BalanceOf returns the token balance of any account id, including module accounts.
func (e *TestEnv) BalanceOf(id account.ID) amount.Amount {
	e.t.Helper()
	bal, err := token.Ledger{}.BalanceOf(e.base, id)
	if err != nil {
		e.t.Fatalf("Failed to read balance: %v", err)
	}
	return bal
}

// Owner returns the current owner of an asset.
func (e *TestEnv) Owner(assetID uint64) account.ID {
	e.t.Helper()
	owner, err := asset.Registry{}.OwnerOf(e.base, assetID)
	if err != nil {
		e.t.Fatalf("Failed to read owner of asset %d: %v", assetID, err)
	}
	return owner
}

// Listing returns the listing slot of an asset, or nil.
func (e *TestEnv) Listing(assetID uint64) *entry.Listing {
	e.t.Helper()
	l, err := market.Listing(e.base, assetID)
	if err != nil {
		e.t.Fatalf("Failed to read listing: %v", err)
	}
	return l
}

// Offer returns an offer, or nil.
func (e *TestEnv) Offer(assetID, offerID uint64) *entry.Offer {
	e.t.Helper()
	o, err := market.Offer(e.base, assetID, offerID)
	if err != nil {
		e.t.Fatalf("Failed to read offer: %v", err)
	}
	return o
}

// Escrow returns the custody held for an asset's offers.
func (e *TestEnv) Escrow(assetID uint64) amount.Amount {
	e.t.Helper()
	held, err := market.EscrowHeld(e.base, assetID)
	if err != nil {
		e.t.Fatalf("Failed to read escrow: %v", err)
	}
	return held
}

// PendingYield returns the yield a claim would mint now.
func (e *TestEnv) PendingYield(assetID uint64) (amount.Amount, error) {
	return yield.PendingYield(e.base, assetID, e.clock.Now().Unix())
}

// Engine returns the transaction engine.
func (e *TestEnv) Engine() *tx.Engine {
	return e.engine
}

// View returns the committed ledger state.
func (e *TestEnv) View() *view.Memory {
	return e.base
}

// Admin returns the administrator account.
func (e *TestEnv) Admin() *Account {
	return e.admin
}

// Now returns the current ledger time.
func (e *TestEnv) Now() time.Time {
	return e.clock.Now()
}

// AdvanceTime moves the ledger clock forward.
func (e *TestEnv) AdvanceTime(d time.Duration) {
	e.clock.Advance(d)
}

// SetTime sets the ledger clock.
func (e *TestEnv) SetTime(t time.Time) {
	e.clock.Set(t)
}
