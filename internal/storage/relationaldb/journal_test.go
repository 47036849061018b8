package relationaldb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	"github.com/LeJamon/goPropLedger/internal/storage/relationaldb"
	_ "github.com/LeJamon/goPropLedger/internal/storage/relationaldb/sqlite"
	jtx "github.com/LeJamon/goPropLedger/internal/testing"
)

func openJournal(t *testing.T) *relationaldb.Manager {
	t.Helper()
	cfg := relationaldb.SQLiteConfig(filepath.Join(t.TempDir(), "journal.db"))
	m, err := relationaldb.Open(context.Background(), cfg, relationaldb.WithHealthCheckInterval(0))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close(context.Background()) })
	return m
}

func TestJournalRecordsCommittedEvents(t *testing.T) {
	journal := openJournal(t)
	env := jtx.NewTestEnv(t)
	env.Engine().Subscribe(journal)

	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")
	env.Fund(amount.Tokens(1000), bob)
	id := env.MintAsset(alice)
	env.ApproveMarket(alice)
	jtx.RequireTxSuccess(t, env.Submit(market.NewList(alice.ID, id, amount.Tokens(100))))
	jtx.RequireTxFail(t, env.Submit(market.NewBuyProperty(alice.ID, id)), tx.TecINVALID_OPERATION)
	jtx.RequireTxSuccess(t, env.Submit(market.NewBuyProperty(bob.ID, id)))

	ctx := context.Background()
	all, err := journal.Query(ctx, relationaldb.EventQuery{})
	require.NoError(t, err)
	committed := env.Events()
	require.Len(t, all, len(committed))
	for i := range committed {
		assert.Equal(t, committed[i].Sequence, all[i].Sequence)
		assert.Equal(t, committed[i].Type, all[i].Type)
		assert.Equal(t, committed[i].TxHash, all[i].TxHash)
		assert.Equal(t, committed[i].Accounts, all[i].Accounts)
	}

	stats, err := journal.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(all)), stats.Events)
	assert.Equal(t, all[len(all)-1].Sequence, stats.LastSequence)

	sold, err := journal.Query(ctx, relationaldb.EventQuery{AssetID: &id, Type: tx.EventSold})
	require.NoError(t, err)
	require.Len(t, sold, 1)
	assert.Equal(t, "95000000", sold[0].Data["proceeds"])

	bobID := bob.ID
	bobs, err := journal.Query(ctx, relationaldb.EventQuery{Account: &bobID})
	require.NoError(t, err)
	for _, ev := range bobs {
		assert.True(t, ev.Involves(bob.ID))
	}
	assert.NotEmpty(t, bobs)

	newest, err := journal.Query(ctx, relationaldb.EventQuery{Stream: tx.StreamMarket, Newest: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, newest, 1)
	assert.Equal(t, tx.EventSold, newest[0].Type)
}

func TestJournalPaging(t *testing.T) {
	journal := openJournal(t)
	var events []tx.Event
	for i := uint64(1); i <= 5; i++ {
		ev := tx.NewEvent(tx.StreamToken, tx.EventTokenTransferred).With("from", account.Market)
		ev.Sequence = i
		ev.TxHash = "00"
		events = append(events, ev)
	}
	journal.Publish(events)
	journal.Publish(events[:2])

	ctx := context.Background()
	page, err := journal.Query(ctx, relationaldb.EventQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, uint64(3), page[0].Sequence)
	assert.Equal(t, uint64(4), page[1].Sequence)

	resumed, err := journal.Query(ctx, relationaldb.EventQuery{MinSequence: 4})
	require.NoError(t, err)
	assert.Len(t, resumed, 2)

	_, err = journal.Query(ctx, relationaldb.EventQuery{Limit: relationaldb.MaxQueryLimit + 1})
	assert.ErrorIs(t, err, relationaldb.ErrInvalidLimit)
	_, err = journal.Query(ctx, relationaldb.EventQuery{Offset: -1})
	assert.ErrorIs(t, err, relationaldb.ErrInvalidOffset)

	stats, err := journal.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Events, "republished sequences are skipped")

	connected, lastErr, failed := journal.Status()
	assert.True(t, connected)
	assert.NoError(t, lastErr)
	assert.Zero(t, failed)
}

func TestClosedJournal(t *testing.T) {
	cfg := relationaldb.SQLiteConfig(filepath.Join(t.TempDir(), "journal.db"))
	db, err := relationaldb.NewDatabase(cfg)
	require.NoError(t, err)

	_, err = db.QueryEvents(context.Background(), relationaldb.EventQuery{})
	assert.ErrorIs(t, err, relationaldb.ErrDatabaseClosed)

	m := relationaldb.NewManager(db, relationaldb.WithHealthCheckInterval(0))
	m.Publish([]tx.Event{{Sequence: 1}})
	_, lastErr, failed := m.Status()
	assert.ErrorIs(t, lastErr, relationaldb.ErrDatabaseClosed)
	assert.Equal(t, uint64(1), failed)
}
