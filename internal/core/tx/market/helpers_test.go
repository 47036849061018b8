package market_test

import (
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/tx/token"
	jtx "github.com/LeJamon/goPropLedger/internal/testing"
)

func tokenTransfer(from *jtx.Account, to account.ID, amt amount.Amount) *token.TokenTransfer {
	return token.NewTokenTransfer(from.ID, to, amt)
}
