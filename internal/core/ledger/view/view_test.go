package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/storage/kvdb"
)

func putOffer(t *testing.T, v LedgerView, assetID, offerID uint64, amt amount.Amount) {
	t.Helper()
	require.NoError(t, Put(v, keylet.Offer(assetID, offerID), &entry.Offer{
		AssetID: assetID, OfferID: offerID, Buyer: account.Market, Amount: amt, Active: true,
	}))
}

func TestGetPut(t *testing.T) {
	m := NewMemory()

	got, err := Get[entry.Listing](m, keylet.Listing(1))
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, Put(m, keylet.Listing(1), &entry.Listing{AssetID: 1, Price: 10, Active: true}))
	require.NoError(t, Put(m, keylet.Listing(1), &entry.Listing{AssetID: 1, Price: 20, Active: true}))

	got, err = Get[entry.Listing](m, keylet.Listing(1))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, amount.Amount(20), got.Price)

	_, err = Get[entry.Offer](m, keylet.Listing(1))
	assert.Error(t, err, "keylet type mismatch must be rejected")

	assert.Error(t, Put(m, keylet.Listing(2), &entry.Escrow{}))
}

func TestTableStagesUntilApply(t *testing.T) {
	base := NewMemory()
	putOffer(t, base, 1, 0, 100)

	table := NewTable(base)
	putOffer(t, table, 1, 1, 200)
	require.NoError(t, Put(table, keylet.Offer(1, 0), &entry.Offer{AssetID: 1, OfferID: 0, Amount: 100}))

	baseOffer, err := Get[entry.Offer](base, keylet.Offer(1, 1))
	require.NoError(t, err)
	assert.Nil(t, baseOffer, "staged insert must not leak into base")

	changes := table.Changes()
	require.Len(t, changes, 2)
	assert.Equal(t, ActionModify, changes[0].Action)
	assert.Equal(t, ActionInsert, changes[1].Action)

	require.NoError(t, table.Apply(base))
	assert.Equal(t, 2, base.Len())

	first, err := Get[entry.Offer](base, keylet.Offer(1, 0))
	require.NoError(t, err)
	assert.False(t, first.Active)
}

func TestTableInsertEraseCancels(t *testing.T) {
	table := NewTable(NewMemory())
	putOffer(t, table, 1, 0, 5)
	require.NoError(t, table.Erase(keylet.Offer(1, 0)))
	assert.Empty(t, table.Changes())

	assert.ErrorIs(t, table.Erase(keylet.Offer(1, 0)), ErrEntryNotFound)
	assert.ErrorIs(t, table.Update(keylet.Offer(1, 0), []byte{1}), ErrEntryNotFound)
}

func TestTableUnchangedModifyIsSkipped(t *testing.T) {
	base := NewMemory()
	putOffer(t, base, 1, 0, 5)

	table := NewTable(base)
	data, err := table.Read(keylet.Offer(1, 0))
	require.NoError(t, err)
	require.NoError(t, table.Update(keylet.Offer(1, 0), data))
	assert.Empty(t, table.Changes())
}

func TestChildTableAppliesToParent(t *testing.T) {
	base := NewMemory()
	putOffer(t, base, 1, 0, 100)
	putOffer(t, base, 1, 1, 200)

	parent := NewTable(base)
	require.NoError(t, parent.Erase(keylet.Offer(1, 1)))

	child := NewTable(parent)
	putOffer(t, child, 1, 2, 300)
	putOffer(t, child, 1, 1, 250)
	require.NoError(t, child.Erase(keylet.Offer(1, 0)))

	discarded := NewTable(parent)
	putOffer(t, discarded, 1, 3, 400)

	require.NoError(t, child.ApplyTo(parent))

	exists, err := parent.Exists(keylet.Offer(1, 3))
	require.NoError(t, err)
	assert.False(t, exists, "an unapplied child leaves the parent alone")

	changes := parent.Changes()
	require.Len(t, changes, 3)
	assert.Equal(t, ActionErase, changes[0].Action)
	assert.Equal(t, ActionModify, changes[1].Action)
	assert.Equal(t, ActionInsert, changes[2].Action)

	require.NoError(t, parent.Apply(base))
	reinserted, err := Get[entry.Offer](base, keylet.Offer(1, 1))
	require.NoError(t, err)
	require.NotNil(t, reinserted)
	assert.Equal(t, amount.Amount(250), reinserted.Amount)
}

func TestTableForEachOverlaysBase(t *testing.T) {
	base := NewMemory()
	putOffer(t, base, 1, 0, 10)
	putOffer(t, base, 1, 1, 20)
	putOffer(t, base, 2, 0, 99)

	table := NewTable(base)
	require.NoError(t, table.Erase(keylet.Offer(1, 0)))
	putOffer(t, table, 1, 2, 30)

	var amounts []amount.Amount
	require.NoError(t, Each[entry.Offer](table, keylet.OffersOf(1), func(o *entry.Offer) bool {
		amounts = append(amounts, o.Amount)
		return true
	}))
	assert.Equal(t, []amount.Amount{20, 30}, amounts)

	assert.Len(t, table.Touched(keylet.OffersOf(1)), 2)
	assert.Empty(t, table.Touched(keylet.OffersOf(2)))

	nodes := table.AffectedNodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "DeletedNode", nodes[0].NodeType)
	assert.Equal(t, "Offer", nodes[0].LedgerEntryType)
	assert.Equal(t, "CreatedNode", nodes[1].NodeType)
}

func TestStore(t *testing.T) {
	store, err := NewStore(kvdb.NewMemoryDB(), 2)
	require.NoError(t, err)

	putOffer(t, store, 3, 0, 1)
	putOffer(t, store, 3, 1, 2)
	putOffer(t, store, 4, 0, 3)

	table := NewTable(store)
	require.NoError(t, table.Erase(keylet.Offer(3, 0)))
	require.NoError(t, Put(table, keylet.Escrow(3), &entry.Escrow{AssetID: 3, Held: 2}))
	require.NoError(t, table.Apply(store))

	var ids []uint64
	require.NoError(t, Each[entry.Offer](store, keylet.OffersOf(3), func(o *entry.Offer) bool {
		ids = append(ids, o.OfferID)
		return true
	}))
	assert.Equal(t, []uint64{1}, ids)

	escrow, err := Get[entry.Escrow](store, keylet.Escrow(3))
	require.NoError(t, err)
	assert.Equal(t, amount.Amount(2), escrow.Held)

	_, err = Get[entry.Escrow](store, keylet.Escrow(3))
	require.NoError(t, err)
	hits, _ := store.CacheStats()
	assert.NotZero(t, hits)

	assert.ErrorIs(t, store.Insert(keylet.Escrow(3), []byte{1}), ErrEntryExists)
	assert.ErrorIs(t, store.Erase(keylet.Escrow(99)), ErrEntryNotFound)
}
