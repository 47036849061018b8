package market

import (
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

// SetFee changes the sale fee. Only the administrator may call it.
func (m *Market) SetFee(ctx *tx.ApplyContext, caller account.ID, bps uint32) error {
	return ctx.Atomic(func(ctx *tx.ApplyContext) error {
		return m.setFee(ctx, caller, bps)
	})
}

func (m *Market) setFee(ctx *tx.ApplyContext, caller account.ID, bps uint32) error {
	if err := tx.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if bps > MaxFeeBasisPoints {
		return tx.Fail(tx.TecPRECONDITION_FAILED, "fee %d bps exceeds %d", bps, MaxFeeBasisPoints)
	}
	cfg, err := Config(ctx.View)
	if err != nil {
		return err
	}
	old := cfg.FeeBasisPoints
	cfg.FeeBasisPoints = bps
	if err := view.Put(ctx.View, keylet.MarketConfig(), cfg); err != nil {
		return err
	}
	ctx.Emit(tx.NewEvent(tx.StreamAdmin, tx.EventFeeUpdated).
		SetUint("old_fee_bps", uint64(old)).
		SetUint("fee_bps", uint64(bps)))
	return nil
}

// SetFeeCollector changes the account that receives sale fees.
func (m *Market) SetFeeCollector(ctx *tx.ApplyContext, caller, collector account.ID) error {
	return ctx.Atomic(func(ctx *tx.ApplyContext) error {
		return m.setFeeCollector(ctx, caller, collector)
	})
}

func (m *Market) setFeeCollector(ctx *tx.ApplyContext, caller, collector account.ID) error {
	if err := tx.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if collector.IsZero() {
		return tx.Fail(tx.TecPRECONDITION_FAILED, "fee collector cannot be the null account")
	}
	cfg, err := Config(ctx.View)
	if err != nil {
		return err
	}
	old := cfg.FeeCollector
	cfg.FeeCollector = collector
	if err := view.Put(ctx.View, keylet.MarketConfig(), cfg); err != nil {
		return err
	}
	ctx.Emit(tx.NewEvent(tx.StreamAdmin, tx.EventFeeCollectorUpdated).
		With("old_collector", old).
		With("collector", collector))
	return nil
}
