package genesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	"github.com/LeJamon/goPropLedger/internal/core/tx/token"
	"github.com/LeJamon/goPropLedger/internal/core/tx/yield"
)

var admin = account.MustParse("0x000000000000000000000000000000000000ad00")

func TestCreate(t *testing.T) {
	base := view.NewMemory()
	require.NoError(t, Create(base, DefaultConfig(admin)))

	got, err := tx.Admin(base)
	require.NoError(t, err)
	assert.Equal(t, admin, got)

	bal, err := token.Ledger{}.BalanceOf(base, admin)
	require.NoError(t, err)
	assert.Equal(t, amount.Tokens(10_000_000), bal)

	cfg, err := market.Config(base)
	require.NoError(t, err)
	assert.Equal(t, uint32(500), cfg.FeeBasisPoints)
	assert.Equal(t, admin, cfg.FeeCollector)

	ycfg, err := yield.Config(base)
	require.NoError(t, err)
	assert.Equal(t, amount.New(10_000), ycfg.RatePerSecond)
	assert.Equal(t, account.YieldMinter, ycfg.MintAuthority)

	assert.ErrorIs(t, Create(base, DefaultConfig(admin)), ErrAlreadyInitialized)
}

func TestValidate(t *testing.T) {
	assert.Error(t, DefaultConfig(account.Zero).Validate())

	cfg := DefaultConfig(admin)
	cfg.FeeBasisPoints = 1001
	assert.Error(t, cfg.Validate())
}
