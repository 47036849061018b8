package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

// RequireTxSuccess asserts that a transaction result indicates success.
func RequireTxSuccess(t *testing.T, result tx.ApplyResult) {
	t.Helper()
	require.True(t, result.Applied,
		"Expected transaction success, got %s: %s", result.Result, result.Message)
	require.Equal(t, tx.TesSUCCESS, result.Result,
		"Expected tesSUCCESS, got %s: %s", result.Result, result.Message)
}

// RequireTxFail asserts that a transaction failed with a specific code and changed nothing.
func RequireTxFail(t *testing.T, result tx.ApplyResult, expected tx.Result) {
	t.Helper()
	require.False(t, result.Applied,
		"Expected transaction failure with code %s, but transaction succeeded", expected)
	require.Equal(t, expected, result.Result,
		"Expected failure code %s, got %s: %s", expected, result.Result, result.Message)
	require.Empty(t, result.AffectedNodes)
}

// RequireBalance asserts that an account has the expected token balance.
func RequireBalance(t *testing.T, env *TestEnv, acc *Account, expected amount.Amount) {
	t.Helper()
	actual := env.Balance(acc)
	require.Equal(t, expected, actual,
		"Account %s balance mismatch: expected %s, got %s", acc.Name, expected, actual)
}

// RequireOwner asserts the current owner of an asset.
func RequireOwner(t *testing.T, env *TestEnv, assetID uint64, expected *Account) {
	t.Helper()
	actual := env.Owner(assetID)
	require.Equal(t, expected.ID, actual,
		"Asset %d owner mismatch: expected %s, got %s", assetID, expected, actual)
}

// AssertBalanceChange runs a function and asserts the expected balance change
// in base units. The change can be positive (increase) or negative (decrease).
func AssertBalanceChange(t *testing.T, env *TestEnv, acc *Account, expectedChange int64, fn func()) {
	t.Helper()
	before := env.Balance(acc)
	fn()
	after := env.Balance(acc)

	actualChange := int64(after.Units()) - int64(before.Units())
	require.Equal(t, expectedChange, actualChange,
		"Account %s balance change mismatch: expected %d, got %d (before: %s, after: %s)",
		acc.Name, expectedChange, actualChange, before, after)
}

// AssertNoBalanceChange runs a function and asserts the balance stays the same.
func AssertNoBalanceChange(t *testing.T, env *TestEnv, acc *Account, fn func()) {
	t.Helper()
	AssertBalanceChange(t, env, acc, 0, fn)
}
