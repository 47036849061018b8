package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/genesis"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/service"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	jtx "github.com/LeJamon/goPropLedger/internal/testing"
)

// newLedger starts a ledger that requires signatures, administered by the
// "admin" seed account.
func newLedger(t *testing.T) *service.Service {
	t.Helper()
	svc, err := service.New(service.Config{
		Genesis: genesis.DefaultConfig(jtx.AdminAccount().ID),
		Clock:   jtx.NewManualClock(),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	return svc
}

const marketFixture = `
accounts:
  admin: admin
  alice: alice
  bob: bob
steps:
  - {action: transfer, account: admin, to: bob, amount: "500"}
  - {action: mint, account: admin, to: alice}
  - {action: approve_all, account: alice, to: market}
  - {action: list, account: alice, asset: 0, amount: "100"}
  - {action: offer, account: bob, asset: 0, amount: "70"}
  - {action: buy, account: bob, asset: 9, expect: tecNOT_FOUND}
  - {action: register_yield, account: admin, asset: 0}
`

func TestFixtureRun(t *testing.T) {
	f, err := LoadFixture(strings.NewReader(marketFixture))
	require.NoError(t, err)
	require.Len(t, f.Steps, 7)

	svc := newLedger(t)
	var out bytes.Buffer
	require.NoError(t, f.Run(context.Background(), serviceSubmitter{svc: svc}, &out))
	assert.Contains(t, out.String(), "MakeOffer")
	assert.Contains(t, out.String(), "tecNOT_FOUND")

	ids := f.AccountIDs()
	assert.Equal(t, jtx.NewAccount("alice").ID, ids["alice"])

	listing, err := svc.Listing(0)
	require.NoError(t, err)
	assert.Equal(t, ids["alice"], listing.Seller)
	assert.Equal(t, amount.Tokens(100), listing.Price)

	bal, err := svc.Balance(ids["bob"])
	require.NoError(t, err)
	assert.Equal(t, amount.Tokens(430), bal.Balance)
	assert.Equal(t, uint64(2), bal.Sequence, "the failed buy does not consume a sequence")

	admin, err := svc.Balance(ids["admin"])
	require.NoError(t, err)
	assert.Equal(t, uint64(4), admin.Sequence)
}

func TestFixtureStepsCannotBeReplayed(t *testing.T) {
	f, err := LoadFixture(strings.NewReader(`
accounts: {admin: admin, bob: bob}
steps:
  - {action: transfer, account: admin, to: bob, amount: "1"}
`))
	require.NoError(t, err)
	svc := newLedger(t)
	sub := serviceSubmitter{svc: svc}
	ids := f.AccountIDs()

	txn, err := f.Steps[0].transaction(ids)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(txn, f.keys()["admin"]))
	res, err := sub.Submit(context.Background(), txn)
	require.NoError(t, err)
	assert.Equal(t, tx.TemMALFORMED, res.Result, "unsequenced signed transactions are refused")

	require.NoError(t, f.Run(context.Background(), sub, &bytes.Buffer{}))
	require.NoError(t, f.Run(context.Background(), sub, &bytes.Buffer{}))

	bal, err := svc.Balance(ids["bob"])
	require.NoError(t, err)
	assert.Equal(t, amount.Tokens(2), bal.Balance)
	seq, err := sub.NextSequence(context.Background(), ids["admin"])
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seq)
}

func TestFixtureStopsOnUnexpectedResult(t *testing.T) {
	f, err := LoadFixture(strings.NewReader(`
accounts: {admin: admin, bob: bob}
steps:
  - {action: transfer, account: bob, to: admin, amount: "1"}
  - {action: mint, account: admin, to: bob}
`))
	require.NoError(t, err)

	svc := newLedger(t)
	var out bytes.Buffer
	err = f.Run(context.Background(), serviceSubmitter{svc: svc}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (transfer)")
	assert.Contains(t, err.Error(), "want tesSUCCESS")

	info, err := svc.ServerInfo()
	require.NoError(t, err)
	assert.Zero(t, info.TotalAssets, "later steps do not run")
}

func TestLoadFixtureErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no steps", "accounts: {admin: admin}\n", "no steps"},
		{"unknown signer", "accounts: {admin: admin}\nsteps:\n  - {action: mint, account: eve, to: admin}\n", `unknown account "eve"`},
		{"unknown field", "accounts: {admin: admin}\nsteps:\n  - {action: mint, account: admin, price: 3}\n", "decode fixture"},
		{"not yaml", "steps: [", "decode fixture"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFixture(strings.NewReader(tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestFixtureStepErrors(t *testing.T) {
	ids := (&Fixture{Accounts: map[string]string{"admin": "admin"}}).AccountIDs()

	tests := []struct {
		step FixtureStep
		want string
	}{
		{FixtureStep{Action: "teleport", Account: "admin"}, `unknown action "teleport"`},
		{FixtureStep{Action: "mint", Account: "admin"}, "to is required"},
		{FixtureStep{Action: "mint", Account: "admin", To: "nobody"}, "invalid account id"},
		{FixtureStep{Action: "list", Account: "admin", Asset: 1}, "amount is required"},
		{FixtureStep{Action: "transfer", Account: "admin", To: "admin", Amount: "abc"}, "invalid amount"},
	}
	for _, tt := range tests {
		_, err := tt.step.transaction(ids)
		require.Error(t, err, tt.step.Action)
		assert.Contains(t, err.Error(), tt.want)
	}

	txn, err := FixtureStep{Action: "batch_claim_yield", Account: "admin", Assets: []uint64{1, 2}}.transaction(ids)
	require.NoError(t, err)
	assert.Equal(t, "BatchClaimYield", txn.TxType().String())
}

func TestDemoFixture(t *testing.T) {
	f := DemoFixture(3, amount.Tokens(100))
	svc := newLedger(t)
	require.NoError(t, f.Run(context.Background(), serviceSubmitter{svc: svc}, &bytes.Buffer{}))

	market, err := svc.MarketInfo()
	require.NoError(t, err)
	require.Len(t, market.ActiveListings, 2)
	assert.Equal(t, uint64(0), market.ActiveListings[0].AssetID)
	assert.Equal(t, uint64(2), market.ActiveListings[1].AssetID)

	y, err := svc.YieldInfo()
	require.NoError(t, err)
	assert.Len(t, y.Registrations, 3)
}

func TestSampleFixture(t *testing.T) {
	file, err := os.Open(filepath.Join("..", "..", "fixtures", "market.yaml"))
	require.NoError(t, err)
	defer file.Close()
	f, err := LoadFixture(file)
	require.NoError(t, err)

	svc := newLedger(t)
	require.NoError(t, f.Run(context.Background(), serviceSubmitter{svc: svc}, &bytes.Buffer{}))

	ids := f.AccountIDs()
	info, err := svc.AssetInfo(1)
	require.NoError(t, err)
	assert.Equal(t, ids["carol"], info.Asset.Owner)

	book, err := svc.Offers(1, true)
	require.NoError(t, err)
	assert.Empty(t, book.Offers)
	assert.True(t, book.Escrow.IsZero())
}
