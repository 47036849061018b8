package market

import (
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

// MakeOffer escrows amt from the caller and records a bid on the asset.
// It returns the new offer's id.
func (m *Market) MakeOffer(ctx *tx.ApplyContext, caller account.ID, assetID uint64, amt amount.Amount) (uint64, error) {
	var offerID uint64
	err := ctx.Atomic(func(ctx *tx.ApplyContext) (err error) {
		offerID, err = m.makeOffer(ctx, caller, assetID, amt)
		return err
	})
	return offerID, err
}

func (m *Market) makeOffer(ctx *tx.ApplyContext, caller account.ID, assetID uint64, amt amount.Amount) (uint64, error) {
	owner, err := m.assets.OwnerOf(ctx.View, assetID)
	if err != nil {
		return 0, err
	}
	if owner == caller {
		return 0, tx.Fail(tx.TecINVALID_OPERATION, "%s cannot bid on its own asset", caller)
	}
	if amt.IsZero() {
		return 0, tx.Fail(tx.TecPRECONDITION_FAILED, "offer amount must be positive")
	}

	counter, err := view.Get[entry.OfferCounter](ctx.View, keylet.OfferCounter(assetID))
	if err != nil {
		return 0, err
	}
	if counter == nil {
		counter = &entry.OfferCounter{AssetID: assetID}
	}
	offerID := counter.Count
	counter.Count++

	offer := &entry.Offer{AssetID: assetID, OfferID: offerID, Buyer: caller, Amount: amt, Active: true}
	if err := view.Put(ctx.View, keylet.OfferCounter(assetID), counter); err != nil {
		return 0, err
	}
	if err := view.Put(ctx.View, keylet.Offer(assetID, offerID), offer); err != nil {
		return 0, err
	}

	if err := m.funds.Debit(ctx.View, caller, amt); err != nil {
		return 0, err
	}
	if err := m.funds.Credit(ctx.View, m.custody, amt); err != nil {
		return 0, err
	}
	if err := m.addEscrow(ctx.View, assetID, amt); err != nil {
		return 0, err
	}

	ctx.Emit(tx.NewEvent(tx.StreamMarket, tx.EventOfferMade).
		WithAsset(assetID).
		With("buyer", caller).
		SetUint("offer_id", offerID).
		SetAmount("amount", amt))
	return offerID, nil
}

// CancelOffer resolves an active offer by refunding it in full to its buyer.
func (m *Market) CancelOffer(ctx *tx.ApplyContext, caller account.ID, assetID, offerID uint64) error {
	return ctx.Atomic(func(ctx *tx.ApplyContext) error {
		return m.cancelOffer(ctx, caller, assetID, offerID)
	})
}

func (m *Market) cancelOffer(ctx *tx.ApplyContext, caller account.ID, assetID, offerID uint64) error {
	offer, err := Offer(ctx.View, assetID, offerID)
	if err != nil {
		return err
	}
	if offer == nil {
		return tx.Fail(tx.TecNOT_FOUND, "offer %d on asset %d does not exist", offerID, assetID)
	}
	if offer.Buyer != caller {
		return tx.Fail(tx.TecUNAUTHORIZED, "%s did not make offer %d", caller, offerID)
	}
	if !offer.Active {
		return tx.Fail(tx.TecALREADY_RESOLVED, "offer %d on asset %d is resolved", offerID, assetID)
	}

	offer.Active = false
	if err := view.Put(ctx.View, keylet.Offer(assetID, offerID), offer); err != nil {
		return err
	}
	if err := m.releaseEscrow(ctx.View, assetID, offer.Amount); err != nil {
		return err
	}
	if err := m.funds.Debit(ctx.View, m.custody, offer.Amount); err != nil {
		return err
	}
	if err := m.funds.Credit(ctx.View, caller, offer.Amount); err != nil {
		return err
	}

	ctx.Emit(tx.NewEvent(tx.StreamMarket, tx.EventOfferCancelled).
		WithAsset(assetID).
		With("buyer", caller).
		SetUint("offer_id", offerID).
		SetAmount("amount", offer.Amount))
	return nil
}

// AcceptOffer sells the asset to the offer's buyer for the escrowed amount.
// The caller must own the asset now. Any active listing of the asset is
// closed; other offers are left as they are.
func (m *Market) AcceptOffer(ctx *tx.ApplyContext, caller account.ID, assetID, offerID uint64) error {
	return ctx.Atomic(func(ctx *tx.ApplyContext) error {
		return m.acceptOffer(ctx, caller, assetID, offerID)
	})
}

func (m *Market) acceptOffer(ctx *tx.ApplyContext, caller account.ID, assetID, offerID uint64) error {
	owner, err := m.assets.OwnerOf(ctx.View, assetID)
	if err != nil {
		return err
	}
	if owner != caller {
		return tx.Fail(tx.TecUNAUTHORIZED, "%s does not own asset %d", caller, assetID)
	}
	offer, err := Offer(ctx.View, assetID, offerID)
	if err != nil {
		return err
	}
	if offer == nil {
		return tx.Fail(tx.TecNOT_FOUND, "offer %d on asset %d does not exist", offerID, assetID)
	}
	if !offer.Active {
		return tx.Fail(tx.TecALREADY_RESOLVED, "offer %d on asset %d is resolved", offerID, assetID)
	}

	offer.Active = false
	if err := view.Put(ctx.View, keylet.Offer(assetID, offerID), offer); err != nil {
		return err
	}
	delisted, err := closeListing(ctx.View, assetID)
	if err != nil {
		return err
	}
	if err := m.releaseEscrow(ctx.View, assetID, offer.Amount); err != nil {
		return err
	}

	s, err := m.settle(ctx, assetID, caller, offer.Buyer, offer.Amount, fromCustody)
	if err != nil {
		return err
	}

	if delisted {
		ctx.Emit(tx.NewEvent(tx.StreamMarket, tx.EventDelisted).
			WithAsset(assetID).
			With("seller", caller))
	}
	ctx.Emit(tx.NewEvent(tx.StreamMarket, tx.EventOfferAccepted).
		WithAsset(assetID).
		With("seller", caller).
		With("buyer", offer.Buyer).
		SetUint("offer_id", offerID).
		SetAmount("amount", offer.Amount).
		SetAmount("fee", s.fee).
		SetAmount("proceeds", s.net).
		Set("fee_collector", s.collector.String()))
	return nil
}
