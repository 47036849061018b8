// Package asset implements the unique-ownership registry for property assets:
// minting, ownership, single-asset approvals and operator approvals.
package asset

import (
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

// Registry stores assets in the ledger view. The zero value is ready to use.
type Registry struct{}

// Get returns the asset entry, failing with tecNOT_FOUND when it was never minted.
func (Registry) Get(r view.Reader, id uint64) (*entry.Asset, error) {
	a, err := view.Get[entry.Asset](r, keylet.Asset(id))
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, tx.Fail(tx.TecNOT_FOUND, "asset %d does not exist", id)
	}
	return a, nil
}

// OwnerOf returns the current owner of an asset.
func (reg Registry) OwnerOf(r view.Reader, id uint64) (account.ID, error) {
	a, err := reg.Get(r, id)
	if err != nil {
		return account.Zero, err
	}
	return a.Owner, nil
}

// GetApproved returns the account approved for a single asset, or the zero account.
func (reg Registry) GetApproved(r view.Reader, id uint64) (account.ID, error) {
	a, err := reg.Get(r, id)
	if err != nil {
		return account.Zero, err
	}
	return a.Approved, nil
}

// IsApprovedForOperator reports whether operator may move every asset of owner.
func (Registry) IsApprovedForOperator(r view.Reader, owner, operator account.ID) (bool, error) {
	op, err := view.Get[entry.Operator](r, keylet.Operator(owner, operator))
	if err != nil {
		return false, err
	}
	return op != nil && op.Approved, nil
}

// Mint creates a new asset owned by to and returns its id. Ids start at 0.
func (Registry) Mint(v view.LedgerView, to account.ID, uri string) (uint64, error) {
	if to.IsZero() {
		return 0, tx.Fail(tx.TecPRECONDITION_FAILED, "cannot mint to the null account")
	}
	counter, err := view.Get[entry.AssetCounter](v, keylet.AssetCounter())
	if err != nil {
		return 0, err
	}
	if counter == nil {
		counter = &entry.AssetCounter{}
	}
	id := counter.Next
	counter.Next++

	if err := view.Put(v, keylet.AssetCounter(), counter); err != nil {
		return 0, err
	}
	if err := view.Put(v, keylet.Asset(id), &entry.Asset{ID: id, Owner: to, URI: uri}); err != nil {
		return 0, err
	}
	if err := view.Put(v, keylet.OwnerLink(to, id), &entry.OwnerLink{Owner: to, AssetID: id}); err != nil {
		return 0, err
	}
	return id, nil
}

// Approve sets the single-asset approval. caller must own the asset or be one
// of the owner's operators. A zero spender clears the approval.
func (reg Registry) Approve(v view.LedgerView, caller account.ID, id uint64, spender account.ID) error {
	a, err := reg.Get(v, id)
	if err != nil {
		return err
	}
	if spender == a.Owner {
		return tx.Fail(tx.TecINVALID_OPERATION, "approval to current owner")
	}
	if caller != a.Owner {
		ok, err := reg.IsApprovedForOperator(v, a.Owner, caller)
		if err != nil {
			return err
		}
		if !ok {
			return tx.Fail(tx.TecUNAUTHORIZED, "%s cannot approve asset %d", caller, id)
		}
	}
	a.Approved = spender
	return view.Put(v, keylet.Asset(id), a)
}

// SetApprovalForAll grants or revokes operator's right to move every asset of owner.
func (Registry) SetApprovalForAll(v view.LedgerView, owner, operator account.ID, approved bool) error {
	if operator.IsZero() || operator == owner {
		return tx.Fail(tx.TecINVALID_OPERATION, "invalid operator %s", operator)
	}
	k := keylet.Operator(owner, operator)
	if !approved {
		exists, err := v.Exists(k)
		if err != nil || !exists {
			return err
		}
		return v.Erase(k)
	}
	return view.Put(v, k, &entry.Operator{Owner: owner, Operator: operator, Approved: true})
}

// CanTransfer reports whether operator may move asset a on behalf of its owner.
func (reg Registry) CanTransfer(r view.Reader, operator account.ID, a *entry.Asset) (bool, error) {
	if operator == a.Owner || operator == a.Approved {
		return true, nil
	}
	return reg.IsApprovedForOperator(r, a.Owner, operator)
}

// TransferFrom moves an asset from its owner to another account on behalf of
// operator. The single-asset approval is cleared, and the receiver hook of to
// runs after the ownership change is staged.
func (reg Registry) TransferFrom(ctx *tx.ApplyContext, operator, from, to account.ID, id uint64) error {
	return ctx.Atomic(func(ctx *tx.ApplyContext) error {
		return reg.transferFrom(ctx, operator, from, to, id)
	})
}

func (reg Registry) transferFrom(ctx *tx.ApplyContext, operator, from, to account.ID, id uint64) error {
	a, err := reg.Get(ctx.View, id)
	if err != nil {
		return err
	}
	if a.Owner != from {
		return tx.Fail(tx.TecUNAUTHORIZED, "%s does not own asset %d", from, id)
	}
	if to.IsZero() {
		return tx.Fail(tx.TecPRECONDITION_FAILED, "transfer to the null account")
	}
	ok, err := reg.CanTransfer(ctx.View, operator, a)
	if err != nil {
		return err
	}
	if !ok {
		return tx.Fail(tx.TecUNAUTHORIZED, "%s is not authorized to move asset %d", operator, id)
	}

	a.Owner = to
	a.Approved = account.Zero
	if err := view.Put(ctx.View, keylet.Asset(id), a); err != nil {
		return err
	}
	if err := ctx.View.Erase(keylet.OwnerLink(from, id)); err != nil {
		return err
	}
	if err := view.Put(ctx.View, keylet.OwnerLink(to, id), &entry.OwnerLink{Owner: to, AssetID: id}); err != nil {
		return err
	}

	ctx.Emit(tx.NewEvent(tx.StreamAsset, tx.EventAssetTransferred).
		WithAsset(id).
		With("from", from).
		With("to", to).
		With("operator", operator))

	return ctx.NotifyReceiver(operator, from, to, id)
}

// AssetsOf lists the assets held by owner in ascending id order.
func (Registry) AssetsOf(r view.Reader, owner account.ID) ([]uint64, error) {
	var ids []uint64
	err := view.Each[entry.OwnerLink](r, keylet.AssetsOf(owner), func(l *entry.OwnerLink) bool {
		ids = append(ids, l.AssetID)
		return true
	})
	return ids, err
}

// TotalAssets returns the number of assets ever minted.
func (Registry) TotalAssets(r view.Reader) (uint64, error) {
	counter, err := view.Get[entry.AssetCounter](r, keylet.AssetCounter())
	if err != nil || counter == nil {
		return 0, err
	}
	return counter.Next, nil
}
