package market_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	jtx "github.com/LeJamon/goPropLedger/internal/testing"
)

func TestReentrantBuySeesClosedListing(t *testing.T) {
	f := newFixture(t)
	f.list(t, 1000)

	var reentryErr error
	f.env.Engine().SetReceiverHook(f.bob.ID, func(ctx *tx.ApplyContext, _, _ account.ID, assetID uint64) error {
		reentryErr = market.Default.Buy(ctx, f.carol.ID, assetID)
		return nil
	})

	carolBefore := f.env.Balance(f.carol)
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewBuyProperty(f.bob.ID, f.assetID)))

	assert.ErrorIs(t, reentryErr, tx.TecNOT_FOUND)
	jtx.RequireOwner(t, f.env, f.assetID, f.bob)
	jtx.RequireBalance(t, f.env, f.carol, carolBefore)
	jtx.RequireBalance(t, f.env, f.alice, 950)
}

func TestReentrantCancelSeesAcceptedOffer(t *testing.T) {
	f := newFixture(t)
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewMakeOffer(f.carol.ID, f.assetID, 800)))
	carolBefore := f.env.Balance(f.carol)

	var reentryErr error
	f.env.Engine().SetReceiverHook(f.carol.ID, func(ctx *tx.ApplyContext, _, _ account.ID, assetID uint64) error {
		reentryErr = market.Default.CancelOffer(ctx, f.carol.ID, assetID, 0)
		return nil
	})

	jtx.RequireTxSuccess(t, f.env.Submit(market.NewAcceptOffer(f.alice.ID, f.assetID, 0)))

	assert.ErrorIs(t, reentryErr, tx.TecALREADY_RESOLVED)
	jtx.RequireOwner(t, f.env, f.assetID, f.carol)
	jtx.RequireBalance(t, f.env, f.carol, carolBefore)
	assert.Equal(t, amount.Zero, f.env.BalanceOf(account.Market))
}

func TestReentrantAcceptOfSameOfferFails(t *testing.T) {
	f := newFixture(t)
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewMakeOffer(f.carol.ID, f.assetID, 800)))

	var reentryErr error
	f.env.Engine().SetReceiverHook(f.carol.ID, func(ctx *tx.ApplyContext, _, _ account.ID, assetID uint64) error {
		reentryErr = market.Default.AcceptOffer(ctx, f.alice.ID, assetID, 0)
		return nil
	})

	jtx.RequireTxSuccess(t, f.env.Submit(market.NewAcceptOffer(f.alice.ID, f.assetID, 0)))
	require.Error(t, reentryErr)
	jtx.RequireBalance(t, f.env, f.alice, 760)
}

func TestRejectingReceiverRollsBackSale(t *testing.T) {
	f := newFixture(t)
	f.list(t, 1000)
	bobBefore := f.env.Balance(f.bob)

	f.env.Engine().SetReceiverHook(f.bob.ID, func(*tx.ApplyContext, account.ID, account.ID, uint64) error {
		return tx.Fail(tx.TecPRECONDITION_FAILED, "receiver refuses assets")
	})

	jtx.RequireTxFail(t, f.env.Submit(market.NewBuyProperty(f.bob.ID, f.assetID)), tx.TecPRECONDITION_FAILED)
	jtx.RequireOwner(t, f.env, f.assetID, f.alice)
	jtx.RequireBalance(t, f.env, f.bob, bobBefore)
	jtx.RequireBalance(t, f.env, f.alice, 0)
	assert.True(t, f.env.Listing(f.assetID).Active)
	assert.Empty(t, f.env.EventsOfType(tx.EventSold))
}

func TestRecursiveHookIsBounded(t *testing.T) {
	f := newFixture(t)
	f.list(t, 1000)

	f.env.Engine().SetReceiverHook(f.bob.ID, func(ctx *tx.ApplyContext, operator, from account.ID, assetID uint64) error {
		return ctx.NotifyReceiver(operator, from, f.bob.ID, assetID)
	})

	res := f.env.Submit(market.NewBuyProperty(f.bob.ID, f.assetID))
	jtx.RequireTxFail(t, res, tx.TecINVALID_OPERATION)
	assert.True(t, errors.Is(res.Err(), tx.TecINVALID_OPERATION))
}

func TestFailedReentrantBuyLeavesNoPartialState(t *testing.T) {
	f := newFixture(t)
	f.list(t, 1000)
	second := f.env.MintAsset(f.alice)
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewList(f.alice.ID, second, 1000)))
	dave := jtx.NewAccount("dave")

	var reentryErr error
	f.env.Engine().SetReceiverHook(f.bob.ID, func(ctx *tx.ApplyContext, _, _ account.ID, _ uint64) error {
		reentryErr = market.Default.Buy(ctx, dave.ID, second)
		return nil
	})

	jtx.RequireTxSuccess(t, f.env.Submit(market.NewBuyProperty(f.bob.ID, f.assetID)))

	assert.ErrorIs(t, reentryErr, tx.TecINSUFFICIENT_FUNDS)
	assert.True(t, f.env.Listing(second).Active, "the failed buy must not close the listing")
	jtx.RequireOwner(t, f.env, second, f.alice)
	jtx.RequireBalance(t, f.env, dave, 0)
	assert.Len(t, f.env.EventsOfType(tx.EventSold), 1)

	// The listing is still for sale afterwards.
	f.env.Engine().SetReceiverHook(f.bob.ID, nil)
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewBuyProperty(f.carol.ID, second)))
	jtx.RequireOwner(t, f.env, second, f.carol)
}

func TestSuccessfulReentrantBuyCommitsWithOuterSale(t *testing.T) {
	f := newFixture(t)
	f.list(t, 1000)
	second := f.env.MintAsset(f.alice)
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewList(f.alice.ID, second, 1000)))
	carolBefore := f.env.Balance(f.carol)

	f.env.Engine().SetReceiverHook(f.bob.ID, func(ctx *tx.ApplyContext, _, _ account.ID, _ uint64) error {
		return market.Default.Buy(ctx, f.carol.ID, second)
	})

	jtx.RequireTxSuccess(t, f.env.Submit(market.NewBuyProperty(f.bob.ID, f.assetID)))

	jtx.RequireOwner(t, f.env, f.assetID, f.bob)
	jtx.RequireOwner(t, f.env, second, f.carol)
	assert.False(t, f.env.Listing(second).Active)
	jtx.RequireBalance(t, f.env, f.carol, carolBefore-1000)
	jtx.RequireBalance(t, f.env, f.alice, 1900)
	assert.Len(t, f.env.EventsOfType(tx.EventSold), 2)
}
