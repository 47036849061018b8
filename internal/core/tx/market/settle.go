package market

import (
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

// fundsSource selects where a sale's payment comes from.
type fundsSource int

const (
	// fromBuyer debits the buyer's live balance.
	fromBuyer fundsSource = iota
	// fromCustody releases funds the market already holds for an offer.
	fromCustody
)

// settlement is the outcome of a completed sale.
type settlement struct {
	fee       amount.Amount
	net       amount.Amount
	collector account.ID
}

// settle pays the seller and the fee collector and moves the asset to the
// buyer. The caller must have deactivated the originating listing or offer
// already. Any failure leaves the staged state to be discarded with the
// transaction.
func (m *Market) settle(ctx *tx.ApplyContext, assetID uint64, seller, buyer account.ID, gross amount.Amount, source fundsSource) (*settlement, error) {
	if seller == buyer {
		return nil, tx.Fail(tx.TecINVALID_OPERATION, "%s cannot buy from itself", buyer)
	}

	cfg, err := Config(ctx.View)
	if err != nil {
		return nil, err
	}
	fee, net, err := Fee(gross, cfg.FeeBasisPoints)
	if err != nil {
		return nil, tx.Fail(tx.TecPRECONDITION_FAILED, "fee on %s: %v", gross, err)
	}

	payer := buyer
	if source == fromCustody {
		payer = m.custody
	}
	if err := m.funds.Debit(ctx.View, payer, gross); err != nil {
		return nil, err
	}
	if err := m.funds.Credit(ctx.View, seller, net); err != nil {
		return nil, err
	}
	if err := m.funds.Credit(ctx.View, cfg.FeeCollector, fee); err != nil {
		return nil, err
	}

	if err := m.assets.TransferFrom(ctx, m.custody, seller, buyer, assetID); err != nil {
		return nil, err
	}
	return &settlement{fee: fee, net: net, collector: cfg.FeeCollector}, nil
}
