package tx_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/mock"
	"github.com/LeJamon/goPropLedger/internal/crypto"
)

const typeTestList tx.Type = 900

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// testList writes a listing and emits an event; it can be told to fail afterwards.
type testList struct {
	tx.BaseTx
	AssetID  uint64 `json:"AssetID"`
	FailWith string `json:"FailWith,omitempty"`
}

func (l *testList) Apply(ctx *tx.ApplyContext) error {
	if err := view.Put(ctx.View, keylet.Listing(l.AssetID), &entry.Listing{
		AssetID: l.AssetID, Seller: ctx.Account, Price: 1, Active: true,
	}); err != nil {
		return err
	}
	ctx.Emit(tx.NewEvent(tx.StreamMarket, tx.EventListed).WithAsset(l.AssetID).With("seller", ctx.Account))
	switch l.FailWith {
	case "unauthorized":
		return tx.Fail(tx.TecUNAUTHORIZED, "not allowed")
	case "internal":
		return errors.New("boom")
	}
	return nil
}

func init() {
	tx.Register(typeTestList, func() tx.Transaction {
		return &testList{BaseTx: *tx.NewBaseTx(typeTestList, account.Zero)}
	})
	tx.RegisterInvariant("no listing 13", func(ctx *tx.ApplyContext) error {
		data, err := ctx.View.Read(keylet.Listing(13))
		if err != nil {
			return err
		}
		if data != nil {
			return errors.New("listing 13 exists")
		}
		return nil
	})
}

func newList(acct account.ID, assetID uint64) *testList {
	return &testList{BaseTx: *tx.NewBaseTx(typeTestList, acct), AssetID: assetID}
}

func newEngine(t *testing.T) (*tx.Engine, *view.Memory) {
	t.Helper()
	base := view.NewMemory()
	return tx.NewEngine(base, fixedClock{time.Unix(1_700_000_000, 0)}, tx.EngineConfig{Standalone: true}), base
}

var alice = account.ID(crypto.KeyPairFromSeed("alice").AccountID())

func TestEngineCommitsAndPublishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mock.NewMockEventSink(ctrl)

	engine, base := newEngine(t)
	engine.Subscribe(sink)

	var published [][]tx.Event
	sink.EXPECT().Publish(gomock.Any()).Times(2).Do(func(events []tx.Event) {
		published = append(published, events)
	})

	res := engine.Apply(newList(alice, 1))
	require.True(t, res.Applied, res.Message)
	assert.Equal(t, tx.TesSUCCESS, res.Result)
	assert.NoError(t, res.Err())
	assert.NotEmpty(t, res.AffectedNodes)

	res = engine.Apply(newList(alice, 2))
	require.True(t, res.Applied)

	require.Len(t, published, 2)
	assert.Equal(t, uint64(1), published[0][0].Sequence)
	assert.Equal(t, uint64(2), published[1][0].Sequence)
	assert.Equal(t, int64(1_700_000_000), published[1][0].Time)
	assert.Equal(t, res.Hash, published[1][0].TxHash)

	header, err := view.Get[entry.Header](base, keylet.Header())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), header.TxCount)
	assert.Equal(t, uint64(2), header.EventCount)
}

func TestEngineFailureDiscardsEverything(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mock.NewMockEventSink(ctrl)

	engine, base := newEngine(t)
	engine.Subscribe(sink)
	sink.EXPECT().Publish(gomock.Any()).Times(0)

	l := newList(alice, 7)
	l.FailWith = "unauthorized"
	res := engine.Apply(l)
	assert.False(t, res.Applied)
	assert.Equal(t, tx.TecUNAUTHORIZED, res.Result)
	assert.ErrorIs(t, res.Err(), tx.TecUNAUTHORIZED)
	assert.Equal(t, 0, base.Len())

	l.FailWith = "internal"
	res = engine.Apply(l)
	assert.Equal(t, tx.TefINTERNAL, res.Result)
	assert.Equal(t, 0, base.Len())
}

func TestEngineInvariantRejects(t *testing.T) {
	engine, base := newEngine(t)

	res := engine.Apply(newList(alice, 13))
	assert.Equal(t, tx.TecINVARIANT_FAILED, res.Result)
	assert.Contains(t, res.Message, "no listing 13")
	assert.Equal(t, 0, base.Len())
}

func TestEnginePreflight(t *testing.T) {
	engine, _ := newEngine(t)

	res := engine.Apply(newList(account.Zero, 1))
	assert.Equal(t, tx.TemMALFORMED, res.Result)
	assert.False(t, res.Applied)
}

func TestEngineSequence(t *testing.T) {
	engine, base := newEngine(t)

	l := newList(alice, 1)
	l.Sequence = 2
	res := engine.Apply(l)
	assert.Equal(t, tx.TecBAD_SEQUENCE, res.Result)

	l.Sequence = 1
	res = engine.Apply(l)
	require.True(t, res.Applied, res.Message)

	res = engine.Apply(l)
	assert.Equal(t, tx.TecBAD_SEQUENCE, res.Result, "replay must be rejected")

	next, err := tx.NextSequence(base, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next)
}

type resultCounter map[tx.Result]int

func (c resultCounter) ObserveResult(_ tx.Type, r tx.Result) { c[r]++ }

func TestEngineObservers(t *testing.T) {
	engine, _ := newEngine(t)
	counts := resultCounter{}
	engine.Observe(counts)

	engine.Apply(newList(alice, 1))
	bad := newList(alice, 2)
	bad.FailWith = "unauthorized"
	engine.Apply(bad)

	assert.Equal(t, 1, counts[tx.TesSUCCESS])
	assert.Equal(t, 1, counts[tx.TecUNAUTHORIZED])
}

func TestReceiverHookDepth(t *testing.T) {
	engine, base := newEngine(t)
	ctx := tx.NewApplyContext(base, alice, 0, tx.EngineConfig{})
	ctx.Engine = engine

	calls := 0
	engine.SetReceiverHook(alice, func(ctx *tx.ApplyContext, operator, from account.ID, assetID uint64) error {
		calls++
		return ctx.NotifyReceiver(operator, from, alice, assetID)
	})

	err := ctx.NotifyReceiver(account.Market, account.Zero, alice, 1)
	assert.ErrorIs(t, err, tx.TecINVALID_OPERATION)
	assert.Equal(t, tx.MaxHookDepth, calls)

	engine.SetReceiverHook(alice, nil)
	assert.NoError(t, ctx.NotifyReceiver(account.Market, account.Zero, alice, 1))
}

func TestSignAndVerify(t *testing.T) {
	kp := crypto.KeyPairFromSeed("alice")
	l := newList(alice, 3)
	require.NoError(t, tx.Sign(l, kp))
	require.NoError(t, tx.VerifySignature(l))

	t.Run("tampered field", func(t *testing.T) {
		l.AssetID = 4
		assert.ErrorIs(t, tx.VerifySignature(l), tx.TefBAD_SIGNATURE)
		l.AssetID = 3
	})

	t.Run("key for another account", func(t *testing.T) {
		bob := crypto.KeyPairFromSeed("bob")
		assert.Error(t, tx.Sign(newList(alice, 3), bob))

		forged := newList(alice, 3)
		forged.SigningPubKey = bob.PublicKeyHex()
		forged.TxnSignature = "00"
		assert.ErrorIs(t, tx.VerifySignature(forged), tx.TefBAD_SIGNATURE)
	})

	t.Run("unsigned", func(t *testing.T) {
		assert.ErrorIs(t, tx.VerifySignature(newList(alice, 3)), tx.TefBAD_SIGNATURE)
	})
}

func TestFromJSON(t *testing.T) {
	data, err := json.Marshal(newList(alice, 11))
	require.NoError(t, err)

	_, err = tx.FromJSON([]byte(`{"TransactionType":"Nope"}`))
	assert.ErrorIs(t, err, tx.ErrUnknownTransactionType)

	// typeTestList has no registered name, so it cannot come from JSON
	_, err = tx.FromJSON(data)
	assert.ErrorIs(t, err, tx.ErrUnknownTransactionType)

	built, err := tx.NewFromType(typeTestList)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, built))
	assert.Equal(t, uint64(11), built.(*testList).AssetID)
	assert.Equal(t, alice, built.GetCommon().Account)
}

func TestResultCodes(t *testing.T) {
	err := tx.Fail(tx.TecNOT_FOUND, "listing %d", 3)
	assert.ErrorIs(t, err, tx.TecNOT_FOUND)
	assert.Equal(t, "tecNOT_FOUND: listing 3", err.Error())
	assert.Equal(t, tx.TecNOT_FOUND, tx.ResultOf(err))
	assert.Equal(t, tx.TefINTERNAL, tx.ResultOf(errors.New("x")))
	assert.Equal(t, tx.TesSUCCESS, tx.ResultOf(nil))

	assert.True(t, tx.TecUNAUTHORIZED.IsTec())
	assert.True(t, tx.TemMALFORMED.IsTem())
	assert.True(t, tx.TefBAD_SIGNATURE.IsTef())

	text, err := tx.TecALREADY_RESOLVED.MarshalText()
	require.NoError(t, err)
	var r tx.Result
	require.NoError(t, r.UnmarshalText(text))
	assert.Equal(t, tx.TecALREADY_RESOLVED, r)
	assert.Error(t, r.UnmarshalText([]byte("tecBOGUS")))
}
