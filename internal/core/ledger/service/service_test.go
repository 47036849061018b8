package service_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/genesis"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/service"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/asset"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	"github.com/LeJamon/goPropLedger/internal/core/tx/token"
	"github.com/LeJamon/goPropLedger/internal/core/tx/yield"
	"github.com/LeJamon/goPropLedger/internal/storage/relationaldb"
	_ "github.com/LeJamon/goPropLedger/internal/storage/relationaldb/sqlite"
	jtx "github.com/LeJamon/goPropLedger/internal/testing"
)

type fixture struct {
	svc   *service.Service
	clock *jtx.ManualClock
	admin *jtx.Account
}

func newService(t *testing.T, standalone bool, store view.Committer) *fixture {
	t.Helper()
	admin := jtx.AdminAccount()
	clock := jtx.NewManualClock()
	svc, err := service.New(service.Config{
		Standalone: standalone,
		Genesis:    genesis.DefaultConfig(admin.ID),
		Store:      store,
		Clock:      clock,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	return &fixture{svc: svc, clock: clock, admin: admin}
}

func submitJSON(t *testing.T, svc *service.Service, txn tx.Transaction) *tx.ApplyResult {
	t.Helper()
	data, err := json.Marshal(txn)
	require.NoError(t, err)
	res, err := svc.SubmitTransaction(data)
	require.NoError(t, err)
	return res
}

func TestStartCreatesGenesisOnce(t *testing.T) {
	store := view.NewMemory()
	f := newService(t, true, store)

	info, err := f.svc.ServerInfo()
	require.NoError(t, err)
	assert.True(t, info.Standalone)
	assert.Equal(t, f.admin.ID, info.Admin)
	assert.Equal(t, genesis.DefaultInitialSupply, info.TotalSupply)
	assert.Contains(t, info.TxTypes, "BuyProperty")
	assert.False(t, info.Journal)
	assert.Equal(t, tx.DefaultMaxBatchClaim, info.MaxBatchSize)

	bob := jtx.NewAccount("bob")
	require.True(t, submitJSON(t, f.svc, token.NewTokenTransfer(f.admin.ID, bob.ID, amount.Tokens(5))).Applied)

	again := newService(t, true, store)
	bal, err := again.svc.Balance(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, amount.Tokens(5), bal.Balance, "restart resumes the existing ledger")
}

func TestNotStarted(t *testing.T) {
	svc, err := service.New(service.Config{Genesis: genesis.DefaultConfig(jtx.AdminAccount().ID)})
	require.NoError(t, err)

	_, err = svc.SubmitTransaction([]byte(`{}`))
	assert.ErrorIs(t, err, service.ErrNotStarted)
	_, err = svc.ServerInfo()
	assert.ErrorIs(t, err, service.ErrNotStarted)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	f := newService(t, true, nil)

	res, err := f.svc.SubmitTransaction([]byte(`{"TransactionType":"Mine"}`))
	require.NoError(t, err)
	assert.Equal(t, tx.TemUNKNOWN_TX, res.Result)
	assert.False(t, res.Applied)

	res, err = f.svc.SubmitTransaction([]byte(`{"TransactionType":`))
	require.NoError(t, err)
	assert.Equal(t, tx.TemMALFORMED, res.Result)
}

func TestSubmitRequiresSignature(t *testing.T) {
	f := newService(t, false, nil)
	bob := jtx.NewAccount("bob")

	res := submitJSON(t, f.svc, token.NewTokenTransfer(f.admin.ID, bob.ID, amount.Tokens(1)))
	assert.Equal(t, tx.TefBAD_SIGNATURE, res.Result)

	forged := token.NewTokenTransfer(f.admin.ID, bob.ID, amount.Tokens(1))
	require.NoError(t, tx.Sign(forged, f.admin.Keys))
	forged.Amount = amount.Tokens(2)
	res = submitJSON(t, f.svc, forged)
	assert.Equal(t, tx.TefBAD_SIGNATURE, res.Result)

	signed := token.NewTokenTransfer(f.admin.ID, bob.ID, amount.Tokens(1))
	signed.Sequence = 1
	require.NoError(t, tx.Sign(signed, f.admin.Keys))
	res = submitJSON(t, f.svc, signed)
	require.True(t, res.Applied, res.Message)

	bal, err := f.svc.Balance(f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), bal.Sequence)
}

func TestSignedTransactionCannotBeReplayed(t *testing.T) {
	f := newService(t, false, nil)
	bob := jtx.NewAccount("bob")

	unsequenced := token.NewTokenTransfer(f.admin.ID, bob.ID, amount.Tokens(1))
	require.NoError(t, tx.Sign(unsequenced, f.admin.Keys))
	for i := 0; i < 3; i++ {
		res := submitJSON(t, f.svc, unsequenced)
		assert.Equal(t, tx.TemMALFORMED, res.Result)
		assert.False(t, res.Applied)
	}

	signed := token.NewTokenTransfer(f.admin.ID, bob.ID, amount.Tokens(1))
	signed.Sequence = 1
	require.NoError(t, tx.Sign(signed, f.admin.Keys))
	require.True(t, submitJSON(t, f.svc, signed).Applied)
	for i := 0; i < 2; i++ {
		res := submitJSON(t, f.svc, signed)
		assert.Equal(t, tx.TecBAD_SEQUENCE, res.Result)
		assert.False(t, res.Applied)
	}

	bal, err := f.svc.Balance(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, amount.Tokens(1), bal.Balance)
}

func TestStandaloneAcceptsUnsequencedTransactions(t *testing.T) {
	f := newService(t, true, nil)
	bob := jtx.NewAccount("bob")

	res := f.svc.Submit(token.NewTokenTransfer(f.admin.ID, bob.ID, amount.Tokens(1)))
	require.True(t, res.Applied, res.Message)

	signed := token.NewTokenTransfer(f.admin.ID, bob.ID, amount.Tokens(1))
	require.NoError(t, tx.Sign(signed, f.admin.Keys))
	res = f.svc.Submit(signed)
	require.True(t, res.Applied, res.Message)
}

func TestQueries(t *testing.T) {
	f := newService(t, true, nil)
	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")
	apply := func(txn tx.Transaction) {
		t.Helper()
		res := f.svc.Submit(txn)
		require.True(t, res.Applied, "%s: %s", txn.TxType(), res.Message)
	}

	apply(token.NewTokenTransfer(f.admin.ID, bob.ID, amount.Tokens(1000)))
	apply(asset.NewAssetMint(f.admin.ID, alice.ID))
	apply(asset.NewAssetSetApprovalForAll(alice.ID, account.Market, true))

	_, err := f.svc.Listing(0)
	assert.True(t, service.IsNotFound(err))
	_, err = f.svc.Offer(0, 0)
	assert.True(t, service.IsNotFound(err))
	_, err = f.svc.AssetInfo(7)
	assert.True(t, service.IsNotFound(err))

	apply(market.NewList(alice.ID, 0, amount.Tokens(100)))
	apply(market.NewMakeOffer(bob.ID, 0, amount.Tokens(80)))
	apply(market.NewMakeOffer(bob.ID, 0, amount.Tokens(90)))
	apply(market.NewCancelOffer(bob.ID, 0, 0))
	apply(yield.NewRegisterProperty(f.admin.ID, 0))

	listing, err := f.svc.Listing(0)
	require.NoError(t, err)
	assert.Equal(t, amount.Tokens(100), listing.Price)
	assert.True(t, listing.Active)

	mkt, err := f.svc.MarketInfo()
	require.NoError(t, err)
	assert.Equal(t, uint32(market.DefaultFeeBasisPoints), mkt.FeeBasisPoints)
	assert.Equal(t, amount.Tokens(90), mkt.TotalEscrow)
	assert.Len(t, mkt.ActiveListings, 1)

	book, err := f.svc.Offers(0, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), book.Count)
	assert.Equal(t, amount.Tokens(90), book.Escrow)
	require.Len(t, book.Offers, 1)
	assert.Equal(t, uint64(1), book.Offers[0].OfferID)

	all, err := f.svc.Offers(0, false)
	require.NoError(t, err)
	assert.Len(t, all.Offers, 2)

	offer, err := f.svc.Offer(0, 0)
	require.NoError(t, err)
	assert.False(t, offer.Active)

	info, err := f.svc.AssetInfo(0)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, info.Asset.Owner)
	require.NotNil(t, info.Yield)
	assert.True(t, info.Yield.Registered)

	f.clock.Advance(100 * time.Second)
	pending, err := f.svc.PendingYield(0)
	require.NoError(t, err)
	assert.Equal(t, amount.Tokens(1), pending.Pending)
	assert.Equal(t, alice.ID, pending.Owner)

	yi, err := f.svc.YieldInfo()
	require.NoError(t, err)
	assert.Equal(t, yield.DefaultRatePerSecond, yi.RatePerSecond)
	assert.Len(t, yi.Registrations, 1)

	owned, err := f.svc.AccountAssets(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, owned)
	none, err := f.svc.AccountAssets(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEventsFromJournal(t *testing.T) {
	f := newService(t, true, nil)
	ctx := context.Background()

	_, err := f.svc.Events(ctx, relationaldb.EventQuery{})
	assert.ErrorIs(t, err, service.ErrJournalDisabled)

	journal, err := relationaldb.Open(ctx,
		relationaldb.SQLiteConfig(filepath.Join(t.TempDir(), "journal.db")),
		relationaldb.WithHealthCheckInterval(0))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close(ctx) })
	f.svc.AttachJournal(journal)

	bob := jtx.NewAccount("bob")
	require.True(t, f.svc.Submit(token.NewTokenTransfer(f.admin.ID, bob.ID, amount.Tokens(3))).Applied)

	bobID := bob.ID
	events, err := f.svc.Events(ctx, relationaldb.EventQuery{Account: &bobID})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, tx.EventTokenTransferred, events[0].Type)
	assert.Equal(t, "3000000", events[0].Data["amount"])

	stats, err := f.svc.JournalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Events)
}
