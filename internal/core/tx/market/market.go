// Package market implements the property marketplace: the listing registry,
// the offer escrow and the settlement of sales against the token ledger and
// the asset registry.
//
// Listing and offer state is always deactivated before any token or asset
// movement, so a receiver hook that re-enters the market during a transfer
// sees the listing or offer as already resolved.
//
// An offer stays acceptable for as long as it is active, by whoever owns the
// asset at the time. If the asset changes hands, the new owner may accept
// offers that were made while the previous owner held it.
package market

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

const (
	// MaxFeeBasisPoints caps the fee at 10%.
	MaxFeeBasisPoints = 1000

	// DefaultFeeBasisPoints is the fee written at genesis.
	DefaultFeeBasisPoints = 500

	basisPointsDenominator = 10_000
)

// Funds is the part of the token ledger the market needs.
type Funds interface {
	BalanceOf(r view.Reader, acct account.ID) (amount.Amount, error)
	Credit(v view.LedgerView, acct account.ID, amt amount.Amount) error
	Debit(v view.LedgerView, acct account.ID, amt amount.Amount) error
}

// Assets is the part of the asset registry the market needs.
type Assets interface {
	OwnerOf(r view.Reader, id uint64) (account.ID, error)
	GetApproved(r view.Reader, id uint64) (account.ID, error)
	IsApprovedForOperator(r view.Reader, owner, operator account.ID) (bool, error)
	TransferFrom(ctx *tx.ApplyContext, operator, from, to account.ID, id uint64) error
}

// Market runs the marketplace entry points. Escrowed funds are held by the
// custody account, which is also the operator the market moves assets as.
type Market struct {
	funds   Funds
	assets  Assets
	custody account.ID
}

// New creates a market over the given collaborators.
func New(funds Funds, assets Assets) *Market {
	return &Market{funds: funds, assets: assets, custody: account.Market}
}

// Default is the market wired to the ledger's own token and asset tables.
var Default = New(token.Ledger{}, asset.Registry{})

// Custody returns the account holding escrowed funds.
func (m *Market) Custody() account.ID {
	return m.custody
}

// Listing returns the listing slot of an asset, or nil if it was never listed.
func Listing(r view.Reader, assetID uint64) (*entry.Listing, error) {
	return view.Get[entry.Listing](r, keylet.Listing(assetID))
}

// Offer returns one offer, or nil if it does not exist.
func Offer(r view.Reader, assetID, offerID uint64) (*entry.Offer, error) {
	return view.Get[entry.Offer](r, keylet.Offer(assetID, offerID))
}

// OfferCount returns the number of offers ever made on an asset, which is also
// the id the next offer will get.
func OfferCount(r view.Reader, assetID uint64) (uint64, error) {
	c, err := view.Get[entry.OfferCounter](r, keylet.OfferCounter(assetID))
	if err != nil || c == nil {
		return 0, err
	}
	return c.Count, nil
}

// Offers lists every offer on an asset in id order. With activeOnly set,
// resolved offers are skipped.
func Offers(r view.Reader, assetID uint64, activeOnly bool) ([]*entry.Offer, error) {
	var out []*entry.Offer
	err := view.Each[entry.Offer](r, keylet.OffersOf(assetID), func(o *entry.Offer) bool {
		if !activeOnly || o.Active {
			out = append(out, o)
		}
		return true
	})
	return out, err
}

// ActiveListings returns every active listing in asset id order.
func ActiveListings(r view.Reader) ([]*entry.Listing, error) {
	var out []*entry.Listing
	err := view.Each[entry.Listing](r, keylet.AllListings(), func(l *entry.Listing) bool {
		if l.Active {
			out = append(out, l)
		}
		return true
	})
	return out, err
}

// Config returns the fee settings.
func Config(r view.Reader) (*entry.MarketConfig, error) {
	cfg, err := view.Get[entry.MarketConfig](r, keylet.MarketConfig())
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, tx.Fail(tx.TefINTERNAL, "ledger has no market config")
	}
	return cfg, nil
}

// EscrowHeld returns the custody attributable to an asset's active offers.
func EscrowHeld(r view.Reader, assetID uint64) (amount.Amount, error) {
	e, err := view.Get[entry.Escrow](r, keylet.Escrow(assetID))
	if err != nil || e == nil {
		return amount.Zero, err
	}
	return e.Held, nil
}

// TotalEscrow sums the custody held for every asset.
func TotalEscrow(r view.Reader) (amount.Amount, error) {
	total := amount.Zero
	var sumErr error
	err := view.Each[entry.Escrow](r, keylet.AllEscrows(), func(e *entry.Escrow) bool {
		total, sumErr = total.Add(e.Held)
		return sumErr == nil
	})
	if err != nil {
		return amount.Zero, err
	}
	return total, sumErr
}

// Fee splits a gross sale amount into the fee and the seller's proceeds.
// The fee truncates toward zero.
func Fee(gross amount.Amount, bps uint32) (fee, net amount.Amount, err error) {
	fee, err = gross.MulDiv(uint64(bps), basisPointsDenominator)
	if err != nil {
		return 0, 0, err
	}
	net, err = gross.Sub(fee)
	return fee, net, err
}

// marketAuthorized reports whether the market may move the owner's asset,
// either through the single-asset approval or as the owner's operator.
func (m *Market) marketAuthorized(r view.Reader, owner account.ID, assetID uint64) (bool, error) {
	approved, err := m.assets.GetApproved(r, assetID)
	if err != nil {
		return false, err
	}
	if approved == m.custody {
		return true, nil
	}
	return m.assets.IsApprovedForOperator(r, owner, m.custody)
}

func (m *Market) addEscrow(v view.LedgerView, assetID uint64, amt amount.Amount) error {
	held, err := EscrowHeld(v, assetID)
	if err != nil {
		return err
	}
	next, err := held.Add(amt)
	if err != nil {
		return tx.Fail(tx.TecPRECONDITION_FAILED, "escrow for asset %d: %v", assetID, err)
	}
	return view.Put(v, keylet.Escrow(assetID), &entry.Escrow{AssetID: assetID, Held: next})
}

func (m *Market) releaseEscrow(v view.LedgerView, assetID uint64, amt amount.Amount) error {
	held, err := EscrowHeld(v, assetID)
	if err != nil {
		return err
	}
	next, err := held.Sub(amt)
	if err != nil {
		return tx.Fail(tx.TefINTERNAL, "escrow for asset %d holds %s, releasing %s", assetID, held, amt)
	}
	return view.Put(v, keylet.Escrow(assetID), &entry.Escrow{AssetID: assetID, Held: next})
}
