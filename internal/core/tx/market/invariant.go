package market

import (
	"fmt"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/token"
)

func init() {
	tx.RegisterInvariant("escrow conservation", checkEscrowConservation)
}

// checkEscrowConservation verifies, for every asset whose offers or custody
// changed, that the active offers add up to the custody recorded for the
// asset, and that all custody together equals the market account's balance.
func checkEscrowConservation(ctx *tx.ApplyContext) error {
	table := ctx.Table()
	if table == nil {
		return nil
	}

	assets := make(map[uint64]struct{})
	for _, key := range table.Touched(keylet.AllOffers()) {
		assets[keylet.AssetIDOf(key)] = struct{}{}
	}
	escrows := table.Touched(keylet.AllEscrows())
	for _, key := range escrows {
		assets[keylet.AssetIDOf(key)] = struct{}{}
	}
	custodyKey := keylet.Balance(account.Market).Key
	custodyTouched := len(table.Touched(custodyKey[:])) > 0

	for assetID := range assets {
		if err := checkAssetEscrow(ctx.View, assetID); err != nil {
			return err
		}
	}

	if len(escrows) == 0 && !custodyTouched {
		return nil
	}
	total, err := TotalEscrow(ctx.View)
	if err != nil {
		return err
	}
	held, err := token.Ledger{}.BalanceOf(ctx.View, account.Market)
	if err != nil {
		return err
	}
	if total != held {
		return fmt.Errorf("custody account holds %s but escrows total %s", held, total)
	}
	return nil
}

func checkAssetEscrow(r view.Reader, assetID uint64) error {
	sum := amount.Zero
	var sumErr error
	err := view.Each[entry.Offer](r, keylet.OffersOf(assetID), func(o *entry.Offer) bool {
		if o.Active {
			sum, sumErr = sum.Add(o.Amount)
		}
		return sumErr == nil
	})
	if err != nil {
		return err
	}
	if sumErr != nil {
		return sumErr
	}
	held, err := EscrowHeld(r, assetID)
	if err != nil {
		return err
	}
	if sum != held {
		return fmt.Errorf("asset %d: active offers total %s but escrow holds %s", assetID, sum, held)
	}
	return nil
}
