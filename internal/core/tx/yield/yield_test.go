package yield_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/genesis"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	"github.com/LeJamon/goPropLedger/internal/core/tx/yield"
	jtx "github.com/LeJamon/goPropLedger/internal/testing"
)

// rate is the default 0.01 token per second.
const rate = yield.DefaultRatePerSecond

func setup(t *testing.T) (*jtx.TestEnv, *jtx.Account, uint64) {
	t.Helper()
	env := jtx.NewTestEnv(t)
	alice := jtx.NewAccount("alice")
	id := env.MintAsset(alice)
	env.RegisterYield(id)
	return env, alice, id
}

func TestAccrued(t *testing.T) {
	tests := []struct {
		name      string
		last, now int64
		want      amount.Amount
	}{
		{"elapsed", 1000, 1100, 100 * rate},
		{"same second", 1000, 1000, 0},
		{"clock behind", 1000, 900, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := yield.Accrued(tc.last, tc.now, rate)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := yield.Accrued(0, 1<<40, amount.Amount(1<<40))
	assert.ErrorIs(t, err, amount.ErrOverflow)
}

func TestEndToEnd(t *testing.T) {
	env, alice, id := setup(t)

	env.AdvanceTime(100 * time.Second)
	pending, err := env.PendingYield(id)
	require.NoError(t, err)
	assert.Equal(t, 100*rate, pending)
	assert.Equal(t, amount.Tokens(1), pending)

	jtx.AssertBalanceChange(t, env, alice, int64(100*rate), func() {
		jtx.RequireTxSuccess(t, env.Submit(yield.NewClaimYield(alice.ID, id)))
	})

	pending, err = env.PendingYield(id)
	require.NoError(t, err)
	assert.Equal(t, amount.Zero, pending)

	claimed := env.EventsOfType(tx.EventYieldClaimed)
	require.Len(t, claimed, 1)
	assert.Equal(t, "1000000", claimed[0].Data["amount"])
}

func TestPendingIsMonotonic(t *testing.T) {
	env, _, id := setup(t)
	var last amount.Amount
	for i := 0; i < 5; i++ {
		env.AdvanceTime(7 * time.Second)
		pending, err := env.PendingYield(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, pending, last)
		last = pending
	}
	assert.Equal(t, 35*rate, last)
}

func TestRegister(t *testing.T) {
	env, alice, id := setup(t)

	reg, err := yield.Registration(env.View(), id)
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Equal(t, env.Now().Unix(), reg.RegisteredAt)
	assert.Equal(t, reg.RegisteredAt, reg.LastAccrualTime)

	jtx.RequireTxFail(t, env.Submit(yield.NewRegisterProperty(env.Admin().ID, id)), tx.TecALREADY_REGISTERED)
	jtx.RequireTxFail(t, env.Submit(yield.NewRegisterProperty(alice.ID, env.MintAsset(alice))), tx.TecUNAUTHORIZED)
	jtx.RequireTxFail(t, env.Submit(yield.NewRegisterProperty(env.Admin().ID, 99)), tx.TecNOT_FOUND)
}

func TestClaimErrors(t *testing.T) {
	env, alice, id := setup(t)
	bob := jtx.NewAccount("bob")
	env.AdvanceTime(100 * time.Second)

	jtx.RequireTxFail(t, env.Submit(yield.NewClaimYield(bob.ID, id)), tx.TecUNAUTHORIZED)

	unregistered := env.MintAsset(alice)
	jtx.RequireTxFail(t, env.Submit(yield.NewClaimYield(alice.ID, unregistered)), tx.TecNOT_REGISTERED)
	_, err := env.PendingYield(unregistered)
	assert.ErrorIs(t, err, tx.TecNOT_REGISTERED)
}

func TestYieldSurvivesTransfer(t *testing.T) {
	env, alice, id := setup(t)
	bob := jtx.NewAccount("bob")

	env.AdvanceTime(60 * time.Second)
	env.TransferAsset(alice, bob, id)
	env.AdvanceTime(40 * time.Second)

	jtx.RequireTxFail(t, env.Submit(yield.NewClaimYield(alice.ID, id)), tx.TecUNAUTHORIZED)
	jtx.AssertBalanceChange(t, env, bob, int64(100*rate), func() {
		jtx.RequireTxSuccess(t, env.Submit(yield.NewClaimYield(bob.ID, id)))
	})
	jtx.RequireBalance(t, env, alice, 0)
}

func TestYieldSurvivesSale(t *testing.T) {
	env, alice, id := setup(t)
	bob := jtx.NewAccount("bob")
	env.Fund(amount.Tokens(5000), bob)
	env.ApproveMarket(alice)

	jtx.RequireTxSuccess(t, env.Submit(market.NewMakeOffer(bob.ID, id, amount.Tokens(2000))))
	env.AdvanceTime(250 * time.Second)
	jtx.RequireTxSuccess(t, env.Submit(market.NewAcceptOffer(alice.ID, id, 0)))
	env.AdvanceTime(250 * time.Second)

	jtx.AssertBalanceChange(t, env, bob, int64(500*rate), func() {
		jtx.RequireTxSuccess(t, env.Submit(yield.NewClaimYield(bob.ID, id)))
	})
}

func TestRateChangeIsRetroactive(t *testing.T) {
	env, alice, id := setup(t)
	env.AdvanceTime(100 * time.Second)

	newRate := 5 * rate
	jtx.RequireTxFail(t, env.Submit(yield.NewSetYieldRate(alice.ID, newRate)), tx.TecUNAUTHORIZED)
	jtx.RequireTxSuccess(t, env.Submit(yield.NewSetYieldRate(env.Admin().ID, newRate)))

	cfg, err := yield.Config(env.View())
	require.NoError(t, err)
	assert.Equal(t, newRate, cfg.RatePerSecond)

	pending, err := env.PendingYield(id)
	require.NoError(t, err)
	assert.Equal(t, 100*newRate, pending, "backlog is valued at the current rate")

	updated := env.EventsOfType(tx.EventYieldRateUpdated)
	require.Len(t, updated, 1)
	assert.Equal(t, "50000", updated[0].Data["rate"])
}

func TestSetRateRejectsOverflowingRate(t *testing.T) {
	env, _, _ := setup(t)

	res := env.Submit(yield.NewSetYieldRate(env.Admin().ID, amount.Amount(^uint64(0))))
	jtx.RequireTxFail(t, res, tx.TemMALFORMED)
	assert.Equal(t, "temMALFORMED: RatePerSecond is unreasonably large", res.Message)

	cfg, err := yield.Config(env.View())
	require.NoError(t, err)
	assert.Equal(t, rate, cfg.RatePerSecond)
}

func TestZeroRateClaimAdvancesClock(t *testing.T) {
	env, alice, id := setup(t)
	jtx.RequireTxSuccess(t, env.Submit(yield.NewSetYieldRate(env.Admin().ID, 0)))
	env.AdvanceTime(100 * time.Second)

	jtx.AssertNoBalanceChange(t, env, alice, func() {
		jtx.RequireTxSuccess(t, env.Submit(yield.NewClaimYield(alice.ID, id)))
	})
	reg, err := yield.Registration(env.View(), id)
	require.NoError(t, err)
	assert.Equal(t, env.Now().Unix(), reg.LastAccrualTime)

	// restoring the rate does not revalue the time already claimed at zero
	jtx.RequireTxSuccess(t, env.Submit(yield.NewSetYieldRate(env.Admin().ID, rate)))
	pending, err := env.PendingYield(id)
	require.NoError(t, err)
	assert.Equal(t, amount.Zero, pending)
}

func TestClockMovingBackwards(t *testing.T) {
	env, alice, id := setup(t)
	env.AdvanceTime(100 * time.Second)
	jtx.RequireTxSuccess(t, env.Submit(yield.NewClaimYield(alice.ID, id)))
	claimedAt := env.Now()

	env.SetTime(claimedAt.Add(-30 * time.Second))
	pending, err := env.PendingYield(id)
	require.NoError(t, err)
	assert.Equal(t, amount.Zero, pending)
	jtx.RequireTxSuccess(t, env.Submit(yield.NewClaimYield(alice.ID, id)))

	reg, err := yield.Registration(env.View(), id)
	require.NoError(t, err)
	assert.Equal(t, claimedAt.Unix(), reg.LastAccrualTime, "accrual time never moves backwards")
}

func TestBatchClaim(t *testing.T) {
	env, alice, first := setup(t)
	second := env.MintAsset(alice)
	env.RegisterYield(second)
	env.AdvanceTime(100 * time.Second)

	jtx.AssertBalanceChange(t, env, alice, int64(200*rate), func() {
		jtx.RequireTxSuccess(t, env.Submit(yield.NewBatchClaimYield(alice.ID, first, second)))
	})
	assert.Len(t, env.EventsOfType(tx.EventYieldClaimed), 2)
}

func TestBatchClaimDuplicates(t *testing.T) {
	env, alice, id := setup(t)
	env.AdvanceTime(100 * time.Second)

	jtx.AssertBalanceChange(t, env, alice, int64(100*rate), func() {
		jtx.RequireTxSuccess(t, env.Submit(yield.NewBatchClaimYield(alice.ID, id, id)))
	})
}

func TestBatchClaimIsAllOrNothing(t *testing.T) {
	env, alice, first := setup(t)
	bob := jtx.NewAccount("bob")
	foreign := env.MintAsset(bob)
	env.RegisterYield(foreign)
	env.AdvanceTime(100 * time.Second)

	jtx.AssertNoBalanceChange(t, env, alice, func() {
		jtx.RequireTxFail(t, env.Submit(yield.NewBatchClaimYield(alice.ID, first, foreign)), tx.TecUNAUTHORIZED)
	})
	pending, err := env.PendingYield(first)
	require.NoError(t, err)
	assert.Equal(t, 100*rate, pending, "the successful first claim was rolled back")
}

func TestBatchClaimLimits(t *testing.T) {
	admin := jtx.AdminAccount()
	env := jtx.NewTestEnvWithConfig(t, genesis.DefaultConfig(admin.ID), tx.EngineConfig{MaxBatchClaim: 2})
	alice := jtx.NewAccount("alice")
	id := env.MintAsset(alice)
	env.RegisterYield(id)

	jtx.RequireTxFail(t, env.Submit(yield.NewBatchClaimYield(alice.ID)), tx.TemBATCH_EMPTY)
	jtx.RequireTxFail(t, env.Submit(yield.NewBatchClaimYield(alice.ID, id, id, id)), tx.TemBATCH_LIMIT)
	jtx.RequireTxSuccess(t, env.Submit(yield.NewBatchClaimYield(alice.ID, id, id)))
}

func TestSignedClaim(t *testing.T) {
	env, alice, id := setup(t)
	env.AdvanceTime(10 * time.Second)

	claim := yield.NewClaimYield(alice.ID, id)
	claim.Sequence = 1
	jtx.RequireTxSuccess(t, env.SubmitSigned(claim, alice))

	replay := env.Submit(claim)
	jtx.RequireTxFail(t, replay, tx.TecBAD_SEQUENCE)
}
