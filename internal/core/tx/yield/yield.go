// Package yield implements per-asset reward accrual. A registered asset
// accrues at the current rate for every second since its last claim, and the
// whole backlog is minted to whoever owns the asset when it is claimed.
// Ownership changes do not reset accrual, and rate changes apply to the
// unclaimed backlog as well as to future time.
package yield

import (
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/asset"
	"github.com/LeJamon/goPropLedger/internal/core/tx/token"
)

// DefaultRatePerSecond is 0.01 token per second.
const DefaultRatePerSecond = amount.UnitsPerToken / 100

// Owners resolves the live owner of an asset.
type Owners interface {
	OwnerOf(r view.Reader, id uint64) (account.ID, error)
}

// Minter issues new tokens on behalf of an authority.
type Minter interface {
	Mint(v view.LedgerView, authority, to account.ID, amt amount.Amount) error
}

// Ledger runs the yield entry points.
type Ledger struct {
	owners    Owners
	minter    Minter
	authority account.ID
}

// New creates a yield ledger that mints as the yield module account.
func New(owners Owners, minter Minter) *Ledger {
	return &Ledger{owners: owners, minter: minter, authority: account.YieldMinter}
}

// Default is the yield ledger wired to the ledger's own asset and token tables.
var Default = New(asset.Registry{}, token.Ledger{})

// Registration returns the registration of an asset, or nil.
func Registration(r view.Reader, assetID uint64) (*entry.YieldRegistration, error) {
	return view.Get[entry.YieldRegistration](r, keylet.YieldRegistration(assetID))
}

// Registrations lists every registered asset in id order.
func Registrations(r view.Reader) ([]*entry.YieldRegistration, error) {
	var out []*entry.YieldRegistration
	err := view.Each[entry.YieldRegistration](r, keylet.AllYieldRegistrations(), func(reg *entry.YieldRegistration) bool {
		out = append(out, reg)
		return true
	})
	return out, err
}

// Config returns the yield settings.
func Config(r view.Reader) (*entry.YieldConfig, error) {
	cfg, err := view.Get[entry.YieldConfig](r, keylet.YieldConfig())
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, tx.Fail(tx.TefINTERNAL, "ledger has no yield config")
	}
	return cfg, nil
}

func registered(r view.Reader, assetID uint64) (*entry.YieldRegistration, error) {
	reg, err := Registration(r, assetID)
	if err != nil {
		return nil, err
	}
	if reg == nil || !reg.Registered {
		return nil, tx.Fail(tx.TecNOT_REGISTERED, "asset %d is not registered for yield", assetID)
	}
	return reg, nil
}

// Accrued is the yield for the time between last and now at rate. A clock
// that reads earlier than last accrues nothing.
func Accrued(last, now int64, rate amount.Amount) (amount.Amount, error) {
	if now <= last {
		return amount.Zero, nil
	}
	return rate.Mul(uint64(now - last))
}

// PendingYield returns what a claim at time now would mint, at the current rate.
func PendingYield(r view.Reader, assetID uint64, now int64) (amount.Amount, error) {
	reg, err := registered(r, assetID)
	if err != nil {
		return amount.Zero, err
	}
	cfg, err := Config(r)
	if err != nil {
		return amount.Zero, err
	}
	pending, err := Accrued(reg.LastAccrualTime, now, cfg.RatePerSecond)
	if err != nil {
		return amount.Zero, tx.Fail(tx.TecPRECONDITION_FAILED, "pending yield of asset %d: %v", assetID, err)
	}
	return pending, nil
}

// Register starts accrual for an asset. Only the administrator may register.
func (l *Ledger) Register(ctx *tx.ApplyContext, caller account.ID, assetID uint64) error {
	return ctx.Atomic(func(ctx *tx.ApplyContext) error {
		return l.register(ctx, caller, assetID)
	})
}

func (l *Ledger) register(ctx *tx.ApplyContext, caller account.ID, assetID uint64) error {
	if err := tx.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	reg, err := Registration(ctx.View, assetID)
	if err != nil {
		return err
	}
	if reg != nil && reg.Registered {
		return tx.Fail(tx.TecALREADY_REGISTERED, "asset %d is already registered", assetID)
	}
	if _, err := l.owners.OwnerOf(ctx.View, assetID); err != nil {
		return err
	}

	reg = &entry.YieldRegistration{
		AssetID:         assetID,
		Registered:      true,
		RegisteredAt:    ctx.Now,
		LastAccrualTime: ctx.Now,
	}
	if err := view.Put(ctx.View, keylet.YieldRegistration(assetID), reg); err != nil {
		return err
	}
	ctx.Emit(tx.NewEvent(tx.StreamYield, tx.EventPropertyRegistered).
		WithAsset(assetID).
		SetUint("start_time", uint64(ctx.Now)))
	return nil
}

// Claim mints the pending yield of an asset to the caller, who must own the
// asset now, and restarts accrual from the current time.
func (l *Ledger) Claim(ctx *tx.ApplyContext, caller account.ID, assetID uint64) (amount.Amount, error) {
	var claimed amount.Amount
	err := ctx.Atomic(func(ctx *tx.ApplyContext) (err error) {
		claimed, err = l.claim(ctx, caller, assetID)
		return err
	})
	return claimed, err
}

func (l *Ledger) claim(ctx *tx.ApplyContext, caller account.ID, assetID uint64) (amount.Amount, error) {
	reg, err := registered(ctx.View, assetID)
	if err != nil {
		return amount.Zero, err
	}
	owner, err := l.owners.OwnerOf(ctx.View, assetID)
	if err != nil {
		return amount.Zero, err
	}
	if owner != caller {
		return amount.Zero, tx.Fail(tx.TecUNAUTHORIZED, "%s does not own asset %d", caller, assetID)
	}
	pending, err := PendingYield(ctx.View, assetID, ctx.Now)
	if err != nil {
		return amount.Zero, err
	}

	if ctx.Now > reg.LastAccrualTime {
		reg.LastAccrualTime = ctx.Now
		if err := view.Put(ctx.View, keylet.YieldRegistration(assetID), reg); err != nil {
			return amount.Zero, err
		}
	}
	if pending.IsPositive() {
		if err := l.minter.Mint(ctx.View, l.authority, caller, pending); err != nil {
			return amount.Zero, err
		}
	}

	ctx.Emit(tx.NewEvent(tx.StreamYield, tx.EventYieldClaimed).
		WithAsset(assetID).
		With("owner", caller).
		SetAmount("amount", pending))
	return pending, nil
}

// BatchClaim claims every listed asset in order. Any failure fails the whole
// batch. An id may appear more than once; repeats claim nothing.
func (l *Ledger) BatchClaim(ctx *tx.ApplyContext, caller account.ID, assetIDs []uint64) (amount.Amount, error) {
	var total amount.Amount
	err := ctx.Atomic(func(ctx *tx.ApplyContext) (err error) {
		total, err = l.batchClaim(ctx, caller, assetIDs)
		return err
	})
	return total, err
}

func (l *Ledger) batchClaim(ctx *tx.ApplyContext, caller account.ID, assetIDs []uint64) (amount.Amount, error) {
	if len(assetIDs) == 0 {
		return amount.Zero, tx.Fail(tx.TemBATCH_EMPTY, "no assets to claim")
	}
	if limit := ctx.Config.BatchLimit(); len(assetIDs) > limit {
		return amount.Zero, tx.Fail(tx.TemBATCH_LIMIT, "%d assets exceeds the limit of %d", len(assetIDs), limit)
	}
	total := amount.Zero
	for _, id := range assetIDs {
		claimed, err := l.claim(ctx, caller, id)
		if err != nil {
			return amount.Zero, err
		}
		if total, err = total.Add(claimed); err != nil {
			return amount.Zero, tx.Fail(tx.TecPRECONDITION_FAILED, "batch total: %v", err)
		}
	}
	return total, nil
}

// SetRate changes the accrual rate for all registered assets, including
// their unclaimed backlog.
func (l *Ledger) SetRate(ctx *tx.ApplyContext, caller account.ID, rate amount.Amount) error {
	return ctx.Atomic(func(ctx *tx.ApplyContext) error {
		return l.setRate(ctx, caller, rate)
	})
}

func (l *Ledger) setRate(ctx *tx.ApplyContext, caller account.ID, rate amount.Amount) error {
	if err := tx.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	cfg, err := Config(ctx.View)
	if err != nil {
		return err
	}
	old := cfg.RatePerSecond
	cfg.RatePerSecond = rate
	if err := view.Put(ctx.View, keylet.YieldConfig(), cfg); err != nil {
		return err
	}
	ctx.Emit(tx.NewEvent(tx.StreamYield, tx.EventYieldRateUpdated).
		SetAmount("old_rate", old).
		SetAmount("rate", rate))
	return nil
}
