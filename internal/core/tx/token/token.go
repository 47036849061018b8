// Package token implements the fungible unit of account: balances, supply,
// transfers and the mint privilege held by the yield module.
package token

import (
	"errors"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

// Ledger stores balances in the ledger view. The zero value is ready to use.
type Ledger struct{}

// BalanceOf returns the balance of acct. Accounts never credited hold zero.
func (Ledger) BalanceOf(r view.Reader, acct account.ID) (amount.Amount, error) {
	bal, err := view.Get[entry.Balance](r, keylet.Balance(acct))
	if err != nil {
		return amount.Zero, err
	}
	if bal == nil {
		return amount.Zero, nil
	}
	return bal.Amount, nil
}

// Credit adds amt to the balance of acct.
func (l Ledger) Credit(v view.LedgerView, acct account.ID, amt amount.Amount) error {
	if acct.IsZero() {
		return tx.Fail(tx.TecPRECONDITION_FAILED, "cannot credit the null account")
	}
	if amt.IsZero() {
		return nil
	}
	bal, err := l.BalanceOf(v, acct)
	if err != nil {
		return err
	}
	next, err := bal.Add(amt)
	if err != nil {
		return tx.Fail(tx.TecPRECONDITION_FAILED, "balance of %s: %v", acct, err)
	}
	return view.Put(v, keylet.Balance(acct), &entry.Balance{Account: acct, Amount: next})
}

// Debit removes amt from the balance of acct, failing with tecINSUFFICIENT_FUNDS
// when the balance is too small.
func (l Ledger) Debit(v view.LedgerView, acct account.ID, amt amount.Amount) error {
	if amt.IsZero() {
		return nil
	}
	bal, err := l.BalanceOf(v, acct)
	if err != nil {
		return err
	}
	next, err := bal.Sub(amt)
	if errors.Is(err, amount.ErrUnderflow) {
		return tx.Fail(tx.TecINSUFFICIENT_FUNDS, "%s holds %s, needs %s", acct, bal, amt)
	}
	if err != nil {
		return err
	}
	return view.Put(v, keylet.Balance(acct), &entry.Balance{Account: acct, Amount: next})
}

// Transfer moves amt from one account to another.
func (l Ledger) Transfer(v view.LedgerView, from, to account.ID, amt amount.Amount) error {
	if err := l.Debit(v, from, amt); err != nil {
		return err
	}
	return l.Credit(v, to, amt)
}

// Mint creates amt new tokens for to. Only the configured mint authority may mint.
func (l Ledger) Mint(v view.LedgerView, authority, to account.ID, amt amount.Amount) error {
	allowed, err := MintAuthority(v)
	if err != nil {
		return err
	}
	if authority != allowed {
		return tx.Fail(tx.TecUNAUTHORIZED, "%s may not mint", authority)
	}
	return l.issue(v, to, amt)
}

// Allocate issues the initial supply. It bypasses the mint authority and is
// only used while writing genesis.
func (l Ledger) Allocate(v view.LedgerView, to account.ID, amt amount.Amount) error {
	return l.issue(v, to, amt)
}

func (l Ledger) issue(v view.LedgerView, to account.ID, amt amount.Amount) error {
	if amt.IsZero() {
		return nil
	}
	supply, err := TotalSupply(v)
	if err != nil {
		return err
	}
	total, err := supply.Add(amt)
	if err != nil {
		return tx.Fail(tx.TecPRECONDITION_FAILED, "supply: %v", err)
	}
	if err := l.Credit(v, to, amt); err != nil {
		return err
	}
	return view.Put(v, keylet.TokenSupply(), &entry.TokenSupply{Total: total})
}

// TotalSupply returns every token minted so far.
func TotalSupply(r view.Reader) (amount.Amount, error) {
	supply, err := view.Get[entry.TokenSupply](r, keylet.TokenSupply())
	if err != nil {
		return amount.Zero, err
	}
	if supply == nil {
		return amount.Zero, nil
	}
	return supply.Total, nil
}

// MintAuthority returns the only account allowed to mint.
func MintAuthority(r view.Reader) (account.ID, error) {
	cfg, err := view.Get[entry.YieldConfig](r, keylet.YieldConfig())
	if err != nil {
		return account.Zero, err
	}
	if cfg == nil {
		return account.Zero, tx.Fail(tx.TefINTERNAL, "ledger has no yield config")
	}
	return cfg.MintAuthority, nil
}
