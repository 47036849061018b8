package market_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/asset"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	jtx "github.com/LeJamon/goPropLedger/internal/testing"
)

type fixture struct {
	env               *jtx.TestEnv
	alice, bob, carol *jtx.Account
	collector         *jtx.Account
	assetID           uint64
}

// newFixture mints one asset to alice, approves the market for her, and
// funds bob and carol.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := jtx.NewTestEnv(t)
	f := &fixture{
		env:       env,
		alice:     jtx.NewAccount("alice"),
		bob:       jtx.NewAccount("bob"),
		carol:     jtx.NewAccount("carol"),
		collector: jtx.NewAccount("collector"),
	}
	env.Fund(amount.Tokens(100_000), f.bob, f.carol)
	f.assetID = env.MintAsset(f.alice)
	env.ApproveMarket(f.alice)
	jtx.RequireTxSuccess(t, env.Submit(market.NewSetFeeCollector(env.Admin().ID, f.collector.ID)))
	return f
}

func (f *fixture) list(t *testing.T, price amount.Amount) {
	t.Helper()
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewList(f.alice.ID, f.assetID, price)))
}

func TestFee(t *testing.T) {
	tests := []struct {
		gross    amount.Amount
		bps      uint32
		fee, net amount.Amount
	}{
		{1000, 500, 50, 950},
		{800, 500, 40, 760},
		{999, 500, 49, 950},
		{19, 500, 0, 19},
		{1000, 0, 0, 1000},
		{1000, 1000, 100, 900},
		{amount.Amount(^uint64(0)), 1000, amount.Amount(^uint64(0) / 10), amount.Amount(^uint64(0) - ^uint64(0)/10)},
	}
	for _, tc := range tests {
		fee, net, err := market.Fee(tc.gross, tc.bps)
		require.NoError(t, err)
		assert.Equal(t, tc.fee, fee, "fee of %d at %d bps", tc.gross, tc.bps)
		assert.Equal(t, tc.net, net)
	}
}

func TestList(t *testing.T) {
	f := newFixture(t)

	t.Run("not owner", func(t *testing.T) {
		jtx.RequireTxFail(t, f.env.Submit(market.NewList(f.bob.ID, f.assetID, 10)), tx.TecUNAUTHORIZED)
	})
	t.Run("zero price", func(t *testing.T) {
		jtx.RequireTxFail(t, f.env.Submit(market.NewList(f.alice.ID, f.assetID, 0)), tx.TecPRECONDITION_FAILED)
	})
	t.Run("missing asset", func(t *testing.T) {
		jtx.RequireTxFail(t, f.env.Submit(market.NewList(f.alice.ID, 99, 10)), tx.TecNOT_FOUND)
	})
	t.Run("relist overwrites", func(t *testing.T) {
		f.list(t, 10)
		f.list(t, 20)
		l := f.env.Listing(f.assetID)
		require.NotNil(t, l)
		assert.True(t, l.Active)
		assert.Equal(t, amount.New(20), l.Price)
		assert.Equal(t, f.alice.ID, l.Seller)
	})
}

func TestListRequiresMarketApproval(t *testing.T) {
	f := newFixture(t)
	f.env.RevokeMarket(f.alice)
	jtx.RequireTxFail(t, f.env.Submit(market.NewList(f.alice.ID, f.assetID, 10)), tx.TecPRECONDITION_FAILED)

	// a single-asset approval is enough
	jtx.RequireTxSuccess(t, f.env.Submit(asset.NewAssetApprove(f.alice.ID, f.assetID, account.Market)))
	f.list(t, 10)
}

func TestDelist(t *testing.T) {
	f := newFixture(t)
	jtx.RequireTxFail(t, f.env.Submit(market.NewDelist(f.alice.ID, f.assetID)), tx.TecNOT_FOUND)

	f.list(t, 10)
	jtx.RequireTxFail(t, f.env.Submit(market.NewDelist(f.bob.ID, f.assetID)), tx.TecUNAUTHORIZED)

	jtx.AssertNoBalanceChange(t, f.env, f.alice, func() {
		jtx.RequireTxSuccess(t, f.env.Submit(market.NewDelist(f.alice.ID, f.assetID)))
	})
	assert.False(t, f.env.Listing(f.assetID).Active)
	jtx.RequireTxFail(t, f.env.Submit(market.NewBuyProperty(f.bob.ID, f.assetID)), tx.TecNOT_FOUND)
}

func TestBuyProperty(t *testing.T) {
	f := newFixture(t)
	f.list(t, 1000)
	bobBefore := f.env.Balance(f.bob)

	res := f.env.Submit(market.NewBuyProperty(f.bob.ID, f.assetID))
	jtx.RequireTxSuccess(t, res)

	jtx.RequireOwner(t, f.env, f.assetID, f.bob)
	jtx.RequireBalance(t, f.env, f.alice, 950)
	jtx.RequireBalance(t, f.env, f.collector, 50)
	jtx.RequireBalance(t, f.env, f.bob, bobBefore-1000)
	assert.False(t, f.env.Listing(f.assetID).Active)

	sold := f.env.EventsOfType(tx.EventSold)
	require.Len(t, sold, 1)
	assert.Equal(t, "1000", sold[0].Data["price"])
	assert.Equal(t, "50", sold[0].Data["fee"])
	assert.True(t, sold[0].Involves(f.bob.ID))

	// the listing is spent
	jtx.RequireTxFail(t, f.env.Submit(market.NewBuyProperty(f.carol.ID, f.assetID)), tx.TecNOT_FOUND)
}

func TestBuyOwnListing(t *testing.T) {
	f := newFixture(t)
	f.list(t, 1000)
	jtx.RequireTxFail(t, f.env.Submit(market.NewBuyProperty(f.alice.ID, f.assetID)), tx.TecINVALID_OPERATION)
}

func TestBuyIsAtomic(t *testing.T) {
	f := newFixture(t)
	poor := jtx.NewAccount("poor")
	f.env.Fund(999, poor)
	f.list(t, 1000)

	jtx.AssertNoBalanceChange(t, f.env, poor, func() {
		jtx.RequireTxFail(t, f.env.Submit(market.NewBuyProperty(poor.ID, f.assetID)), tx.TecINSUFFICIENT_FUNDS)
	})
	l := f.env.Listing(f.assetID)
	assert.True(t, l.Active, "failed sale must leave the listing active")
	jtx.RequireOwner(t, f.env, f.assetID, f.alice)
	jtx.RequireBalance(t, f.env, f.alice, 0)
}

func TestBuyAfterApprovalRevoked(t *testing.T) {
	f := newFixture(t)
	f.list(t, 1000)
	f.env.RevokeMarket(f.alice)

	jtx.RequireTxFail(t, f.env.Submit(market.NewBuyProperty(f.bob.ID, f.assetID)), tx.TecPRECONDITION_FAILED)
	assert.True(t, f.env.Listing(f.assetID).Active)
}

func TestBuyAfterSellerLostAsset(t *testing.T) {
	f := newFixture(t)
	f.list(t, 1000)
	f.env.TransferAsset(f.alice, f.carol, f.assetID)

	// the stale listing cannot settle because the seller no longer owns the asset
	jtx.RequireTxFail(t, f.env.Submit(market.NewBuyProperty(f.bob.ID, f.assetID)), tx.TecUNAUTHORIZED)
	jtx.RequireOwner(t, f.env, f.assetID, f.carol)
}

func TestMakeOffer(t *testing.T) {
	f := newFixture(t)

	jtx.RequireTxFail(t, f.env.Submit(market.NewMakeOffer(f.alice.ID, f.assetID, 10)), tx.TecINVALID_OPERATION)
	jtx.RequireTxFail(t, f.env.Submit(market.NewMakeOffer(f.bob.ID, f.assetID, 0)), tx.TecPRECONDITION_FAILED)
	jtx.RequireTxFail(t, f.env.Submit(market.NewMakeOffer(f.bob.ID, f.assetID, amount.Tokens(1_000_000))), tx.TecINSUFFICIENT_FUNDS)

	jtx.AssertBalanceChange(t, f.env, f.bob, -800, func() {
		jtx.RequireTxSuccess(t, f.env.Submit(market.NewMakeOffer(f.bob.ID, f.assetID, 800)))
	})
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewMakeOffer(f.carol.ID, f.assetID, 500)))

	first := f.env.Offer(f.assetID, 0)
	require.NotNil(t, first)
	assert.Equal(t, f.bob.ID, first.Buyer)
	assert.True(t, first.Active)
	second := f.env.Offer(f.assetID, 1)
	require.NotNil(t, second)
	assert.Equal(t, f.carol.ID, second.Buyer)

	count, err := market.OfferCount(f.env.View(), f.assetID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	assert.Equal(t, amount.New(1300), f.env.Escrow(f.assetID))
	assert.Equal(t, amount.New(1300), f.env.BalanceOf(account.Market))
}

func TestCancelOffer(t *testing.T) {
	f := newFixture(t)
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewMakeOffer(f.bob.ID, f.assetID, 800)))

	jtx.RequireTxFail(t, f.env.Submit(market.NewCancelOffer(f.bob.ID, f.assetID, 7)), tx.TecNOT_FOUND)
	jtx.RequireTxFail(t, f.env.Submit(market.NewCancelOffer(f.carol.ID, f.assetID, 0)), tx.TecUNAUTHORIZED)

	jtx.AssertBalanceChange(t, f.env, f.bob, 800, func() {
		jtx.RequireTxSuccess(t, f.env.Submit(market.NewCancelOffer(f.bob.ID, f.assetID, 0)))
	})
	assert.False(t, f.env.Offer(f.assetID, 0).Active)
	assert.Equal(t, amount.Zero, f.env.Escrow(f.assetID))
	assert.Equal(t, amount.Zero, f.env.BalanceOf(account.Market))

	jtx.RequireTxFail(t, f.env.Submit(market.NewCancelOffer(f.bob.ID, f.assetID, 0)), tx.TecALREADY_RESOLVED)
	jtx.RequireTxFail(t, f.env.Submit(market.NewAcceptOffer(f.alice.ID, f.assetID, 0)), tx.TecALREADY_RESOLVED)
}

func TestOfferLifecycle(t *testing.T) {
	f := newFixture(t)
	f.list(t, 5000)
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewMakeOffer(f.bob.ID, f.assetID, 800)))
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewMakeOffer(f.carol.ID, f.assetID, 600)))
	bobBefore := f.env.Balance(f.bob)

	jtx.RequireTxFail(t, f.env.Submit(market.NewAcceptOffer(f.bob.ID, f.assetID, 0)), tx.TecUNAUTHORIZED)
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewAcceptOffer(f.alice.ID, f.assetID, 0)))

	jtx.RequireOwner(t, f.env, f.assetID, f.bob)
	jtx.RequireBalance(t, f.env, f.alice, 760)
	jtx.RequireBalance(t, f.env, f.collector, 40)
	jtx.RequireBalance(t, f.env, f.bob, bobBefore)
	assert.False(t, f.env.Offer(f.assetID, 0).Active)
	assert.False(t, f.env.Listing(f.assetID).Active, "accepting an offer closes the listing")

	// carol's offer is untouched and still escrowed
	other := f.env.Offer(f.assetID, 1)
	assert.True(t, other.Active)
	assert.Equal(t, amount.New(600), f.env.Escrow(f.assetID))
	assert.Equal(t, amount.New(600), f.env.BalanceOf(account.Market))

	// the former owner can no longer accept it
	jtx.RequireTxFail(t, f.env.Submit(market.NewAcceptOffer(f.alice.ID, f.assetID, 1)), tx.TecUNAUTHORIZED)

	jtx.AssertBalanceChange(t, f.env, f.carol, 600, func() {
		jtx.RequireTxSuccess(t, f.env.Submit(market.NewCancelOffer(f.carol.ID, f.assetID, 1)))
	})
}

func TestNewOwnerMayAcceptStaleOffer(t *testing.T) {
	f := newFixture(t)
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewMakeOffer(f.carol.ID, f.assetID, 600)))
	f.env.TransferAsset(f.alice, f.bob, f.assetID)
	f.env.ApproveMarket(f.bob)

	jtx.RequireTxSuccess(t, f.env.Submit(market.NewAcceptOffer(f.bob.ID, f.assetID, 0)))
	jtx.RequireOwner(t, f.env, f.assetID, f.carol)
}

func TestAcceptOwnOfferIsSelfTrade(t *testing.T) {
	f := newFixture(t)
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewMakeOffer(f.bob.ID, f.assetID, 600)))
	f.env.TransferAsset(f.alice, f.bob, f.assetID)

	jtx.RequireTxFail(t, f.env.Submit(market.NewAcceptOffer(f.bob.ID, f.assetID, 0)), tx.TecINVALID_OPERATION)
	assert.True(t, f.env.Offer(f.assetID, 0).Active)
	assert.Equal(t, amount.New(600), f.env.Escrow(f.assetID))
}

func TestEscrowConservationAcrossAssets(t *testing.T) {
	f := newFixture(t)
	second := f.env.MintAsset(f.alice)

	jtx.RequireTxSuccess(t, f.env.Submit(market.NewMakeOffer(f.bob.ID, f.assetID, 100)))
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewMakeOffer(f.bob.ID, second, 200)))
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewMakeOffer(f.carol.ID, second, 300)))
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewCancelOffer(f.bob.ID, second, 0)))
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewAcceptOffer(f.alice.ID, f.assetID, 0)))

	for _, id := range []uint64{f.assetID, second} {
		offers, err := market.Offers(f.env.View(), id, true)
		require.NoError(t, err)
		sum := amount.Zero
		for _, o := range offers {
			sum += o.Amount
		}
		assert.Equal(t, sum, f.env.Escrow(id), "asset %d", id)
	}
	total, err := market.TotalEscrow(f.env.View())
	require.NoError(t, err)
	assert.Equal(t, amount.New(300), total)
	assert.Equal(t, total, f.env.BalanceOf(account.Market))
}

func TestDirectCustodyDepositBreaksConservation(t *testing.T) {
	f := newFixture(t)
	res := f.env.Submit(tokenTransfer(f.bob, account.Market, 5))
	jtx.RequireTxFail(t, res, tx.TecINVARIANT_FAILED)
}

func TestSetFee(t *testing.T) {
	f := newFixture(t)
	admin := f.env.Admin().ID

	jtx.RequireTxFail(t, f.env.Submit(market.NewSetFee(f.bob.ID, 100)), tx.TecUNAUTHORIZED)
	jtx.RequireTxFail(t, f.env.Submit(market.NewSetFee(admin, 1001)), tx.TecPRECONDITION_FAILED)
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewSetFee(admin, 1000)))

	cfg, err := market.Config(f.env.View())
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), cfg.FeeBasisPoints)

	f.list(t, 1000)
	jtx.RequireTxSuccess(t, f.env.Submit(market.NewBuyProperty(f.bob.ID, f.assetID)))
	jtx.RequireBalance(t, f.env, f.collector, 100)
}

func TestSetFeeCollector(t *testing.T) {
	f := newFixture(t)
	admin := f.env.Admin().ID

	jtx.RequireTxFail(t, f.env.Submit(market.NewSetFeeCollector(f.bob.ID, f.bob.ID)), tx.TecUNAUTHORIZED)
	jtx.RequireTxFail(t, f.env.Submit(market.NewSetFeeCollector(admin, account.Zero)), tx.TecPRECONDITION_FAILED)

	jtx.RequireTxSuccess(t, f.env.Submit(market.NewSetFeeCollector(admin, f.carol.ID)))
	cfg, err := market.Config(f.env.View())
	require.NoError(t, err)
	assert.Equal(t, f.carol.ID, cfg.FeeCollector)
	require.NotEmpty(t, f.env.EventsOfType(tx.EventFeeCollectorUpdated))
}
