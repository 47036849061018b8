package tx

import (
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
)

// Admin returns the administrator recorded at genesis.
func Admin(r view.Reader) (account.ID, error) {
	gov, err := view.Get[entry.Governance](r, keylet.Governance())
	if err != nil {
		return account.Zero, err
	}
	if gov == nil {
		return account.Zero, Fail(TefINTERNAL, "ledger has no governance entry")
	}
	return gov.Admin, nil
}

// RequireAdmin fails with tecUNAUTHORIZED unless caller is the administrator.
func RequireAdmin(ctx *ApplyContext, caller account.ID) error {
	admin, err := Admin(ctx.View)
	if err != nil {
		return err
	}
	if caller != admin {
		return Fail(TecUNAUTHORIZED, "%s is not the administrator", caller)
	}
	return nil
}
