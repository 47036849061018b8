package market

import (
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

// List puts an asset up for sale, replacing any earlier listing of it.
// The caller must own the asset and the market must be authorized to move it.
func (m *Market) List(ctx *tx.ApplyContext, caller account.ID, assetID uint64, price amount.Amount) error {
	return ctx.Atomic(func(ctx *tx.ApplyContext) error {
		return m.list(ctx, caller, assetID, price)
	})
}

func (m *Market) list(ctx *tx.ApplyContext, caller account.ID, assetID uint64, price amount.Amount) error {
	owner, err := m.assets.OwnerOf(ctx.View, assetID)
	if err != nil {
		return err
	}
	if owner != caller {
		return tx.Fail(tx.TecUNAUTHORIZED, "%s does not own asset %d", caller, assetID)
	}
	ok, err := m.marketAuthorized(ctx.View, owner, assetID)
	if err != nil {
		return err
	}
	if !ok {
		return tx.Fail(tx.TecPRECONDITION_FAILED, "market is not approved for asset %d", assetID)
	}
	if price.IsZero() {
		return tx.Fail(tx.TecPRECONDITION_FAILED, "price must be positive")
	}

	listing := &entry.Listing{AssetID: assetID, Seller: caller, Price: price, Active: true}
	if err := view.Put(ctx.View, keylet.Listing(assetID), listing); err != nil {
		return err
	}
	ctx.Emit(tx.NewEvent(tx.StreamMarket, tx.EventListed).
		WithAsset(assetID).
		With("seller", caller).
		SetAmount("price", price))
	return nil
}

// Delist withdraws an active listing. Only its seller may delist.
func (m *Market) Delist(ctx *tx.ApplyContext, caller account.ID, assetID uint64) error {
	return ctx.Atomic(func(ctx *tx.ApplyContext) error {
		return m.delist(ctx, caller, assetID)
	})
}

func (m *Market) delist(ctx *tx.ApplyContext, caller account.ID, assetID uint64) error {
	listing, err := activeListing(ctx.View, assetID)
	if err != nil {
		return err
	}
	if listing.Seller != caller {
		return tx.Fail(tx.TecUNAUTHORIZED, "%s is not the seller of asset %d", caller, assetID)
	}
	listing.Active = false
	if err := view.Put(ctx.View, keylet.Listing(assetID), listing); err != nil {
		return err
	}
	ctx.Emit(tx.NewEvent(tx.StreamMarket, tx.EventDelisted).
		WithAsset(assetID).
		With("seller", caller))
	return nil
}

// Buy purchases a listed asset at its listed price from the caller's balance.
func (m *Market) Buy(ctx *tx.ApplyContext, caller account.ID, assetID uint64) error {
	return ctx.Atomic(func(ctx *tx.ApplyContext) error {
		return m.buy(ctx, caller, assetID)
	})
}

func (m *Market) buy(ctx *tx.ApplyContext, caller account.ID, assetID uint64) error {
	listing, err := activeListing(ctx.View, assetID)
	if err != nil {
		return err
	}
	if listing.Seller == caller {
		return tx.Fail(tx.TecINVALID_OPERATION, "%s cannot buy its own listing", caller)
	}
	// Approval may have been revoked since the asset was listed.
	ok, err := m.marketAuthorized(ctx.View, listing.Seller, assetID)
	if err != nil {
		return err
	}
	if !ok {
		return tx.Fail(tx.TecPRECONDITION_FAILED, "market is no longer approved for asset %d", assetID)
	}

	listing.Active = false
	if err := view.Put(ctx.View, keylet.Listing(assetID), listing); err != nil {
		return err
	}

	s, err := m.settle(ctx, assetID, listing.Seller, caller, listing.Price, fromBuyer)
	if err != nil {
		return err
	}
	ctx.Emit(tx.NewEvent(tx.StreamMarket, tx.EventSold).
		WithAsset(assetID).
		With("seller", listing.Seller).
		With("buyer", caller).
		SetAmount("price", listing.Price).
		SetAmount("fee", s.fee).
		SetAmount("proceeds", s.net).
		Set("fee_collector", s.collector.String()))
	return nil
}

func activeListing(r view.Reader, assetID uint64) (*entry.Listing, error) {
	listing, err := Listing(r, assetID)
	if err != nil {
		return nil, err
	}
	if listing == nil || !listing.Active {
		return nil, tx.Fail(tx.TecNOT_FOUND, "asset %d is not listed", assetID)
	}
	return listing, nil
}

// closeListing deactivates the listing of an asset if one is active.
func closeListing(v view.LedgerView, assetID uint64) (bool, error) {
	listing, err := Listing(v, assetID)
	if err != nil || listing == nil || !listing.Active {
		return false, err
	}
	listing.Active = false
	return true, view.Put(v, keylet.Listing(assetID), listing)
}
