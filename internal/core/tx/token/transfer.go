package token

import (
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeTokenTransfer, func() tx.Transaction {
		return &TokenTransfer{BaseTx: *tx.NewBaseTx(tx.TypeTokenTransfer, account.Zero)}
	})
}

// TokenTransfer moves tokens from the signing account to Destination.
type TokenTransfer struct {
	tx.BaseTx

	// Destination receives the tokens (required)
	Destination account.ID `json:"Destination"`

	// Amount in base units (required)
	Amount amount.Amount `json:"Amount"`
}

// NewTokenTransfer creates a new TokenTransfer transaction
func NewTokenTransfer(from, to account.ID, amt amount.Amount) *TokenTransfer {
	return &TokenTransfer{
		BaseTx:      *tx.NewBaseTx(tx.TypeTokenTransfer, from),
		Destination: to,
		Amount:      amt,
	}
}

// TxType returns the transaction type
func (t *TokenTransfer) TxType() tx.Type {
	return tx.TypeTokenTransfer
}

// Validate validates the TokenTransfer transaction
func (t *TokenTransfer) Validate() error {
	if err := t.BaseTx.Validate(); err != nil {
		return err
	}
	if t.Destination.IsZero() {
		return tx.Fail(tx.TemMALFORMED, "Destination is required")
	}
	if !t.Amount.IsPositive() {
		return tx.Fail(tx.TemMALFORMED, "Amount must be positive")
	}
	return nil
}

// Apply applies a TokenTransfer transaction
func (t *TokenTransfer) Apply(ctx *tx.ApplyContext) error {
	if err := (Ledger{}).Transfer(ctx.View, ctx.Account, t.Destination, t.Amount); err != nil {
		return err
	}
	ctx.Emit(tx.NewEvent(tx.StreamToken, tx.EventTokenTransferred).
		With("from", ctx.Account).
		With("to", t.Destination).
		SetAmount("amount", t.Amount))
	return nil
}
