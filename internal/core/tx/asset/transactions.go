package asset

import (
	"strconv"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeAssetMint, func() tx.Transaction {
		return &AssetMint{BaseTx: *tx.NewBaseTx(tx.TypeAssetMint, account.Zero)}
	})
	tx.Register(tx.TypeAssetApprove, func() tx.Transaction {
		return &AssetApprove{BaseTx: *tx.NewBaseTx(tx.TypeAssetApprove, account.Zero)}
	})
	tx.Register(tx.TypeAssetSetApprovalForAll, func() tx.Transaction {
		return &AssetSetApprovalForAll{BaseTx: *tx.NewBaseTx(tx.TypeAssetSetApprovalForAll, account.Zero)}
	})
	tx.Register(tx.TypeAssetTransfer, func() tx.Transaction {
		return &AssetTransfer{BaseTx: *tx.NewBaseTx(tx.TypeAssetTransfer, account.Zero)}
	})
}

// AssetMint creates a new asset. Only the administrator may mint.
type AssetMint struct {
	tx.BaseTx

	// Owner receives the new asset (required)
	Owner account.ID `json:"Owner"`

	// URI is an opaque metadata reference (optional)
	URI string `json:"URI,omitempty"`
}

// NewAssetMint creates a new AssetMint transaction
func NewAssetMint(admin, owner account.ID) *AssetMint {
	return &AssetMint{BaseTx: *tx.NewBaseTx(tx.TypeAssetMint, admin), Owner: owner}
}

func (m *AssetMint) TxType() tx.Type { return tx.TypeAssetMint }

// Validate validates the AssetMint transaction
func (m *AssetMint) Validate() error {
	if err := m.BaseTx.Validate(); err != nil {
		return err
	}
	if m.Owner.IsZero() {
		return tx.Fail(tx.TemMALFORMED, "Owner is required")
	}
	if len(m.URI) > 256 {
		return tx.Fail(tx.TemMALFORMED, "URI exceeds 256 bytes")
	}
	return nil
}

// Apply applies an AssetMint transaction
func (m *AssetMint) Apply(ctx *tx.ApplyContext) error {
	if err := tx.RequireAdmin(ctx, ctx.Account); err != nil {
		return err
	}
	id, err := Registry{}.Mint(ctx.View, m.Owner, m.URI)
	if err != nil {
		return err
	}
	ctx.Emit(tx.NewEvent(tx.StreamAsset, tx.EventAssetMinted).
		WithAsset(id).
		With("owner", m.Owner).
		Set("asset_id", strconv.FormatUint(id, 10)))
	return nil
}

// AssetApprove sets or clears the single-asset approval.
type AssetApprove struct {
	tx.BaseTx

	AssetID uint64 `json:"AssetID"`

	// Spender may move the asset once; the zero account clears the approval
	Spender account.ID `json:"Spender"`
}

// NewAssetApprove creates a new AssetApprove transaction
func NewAssetApprove(caller account.ID, assetID uint64, spender account.ID) *AssetApprove {
	return &AssetApprove{BaseTx: *tx.NewBaseTx(tx.TypeAssetApprove, caller), AssetID: assetID, Spender: spender}
}

func (a *AssetApprove) TxType() tx.Type { return tx.TypeAssetApprove }

// Apply applies an AssetApprove transaction
func (a *AssetApprove) Apply(ctx *tx.ApplyContext) error {
	reg := Registry{}
	if err := reg.Approve(ctx.View, ctx.Account, a.AssetID, a.Spender); err != nil {
		return err
	}
	owner, err := reg.OwnerOf(ctx.View, a.AssetID)
	if err != nil {
		return err
	}
	ctx.Emit(tx.NewEvent(tx.StreamAsset, tx.EventApproval).
		WithAsset(a.AssetID).
		With("owner", owner).
		With("approved", a.Spender))
	return nil
}

// AssetSetApprovalForAll grants or revokes an operator for every asset of the signer.
type AssetSetApprovalForAll struct {
	tx.BaseTx

	Operator account.ID `json:"Operator"`
	Approved bool       `json:"Approved"`
}

// NewAssetSetApprovalForAll creates a new AssetSetApprovalForAll transaction
func NewAssetSetApprovalForAll(owner, operator account.ID, approved bool) *AssetSetApprovalForAll {
	return &AssetSetApprovalForAll{
		BaseTx:   *tx.NewBaseTx(tx.TypeAssetSetApprovalForAll, owner),
		Operator: operator,
		Approved: approved,
	}
}

func (s *AssetSetApprovalForAll) TxType() tx.Type { return tx.TypeAssetSetApprovalForAll }

// Validate validates the AssetSetApprovalForAll transaction
func (s *AssetSetApprovalForAll) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if s.Operator.IsZero() {
		return tx.Fail(tx.TemMALFORMED, "Operator is required")
	}
	return nil
}

// Apply applies an AssetSetApprovalForAll transaction
func (s *AssetSetApprovalForAll) Apply(ctx *tx.ApplyContext) error {
	if err := (Registry{}).SetApprovalForAll(ctx.View, ctx.Account, s.Operator, s.Approved); err != nil {
		return err
	}
	ctx.Emit(tx.NewEvent(tx.StreamAsset, tx.EventApprovalForAll).
		With("owner", ctx.Account).
		With("operator", s.Operator).
		Set("approved", strconv.FormatBool(s.Approved)))
	return nil
}

// AssetTransfer moves an asset. The signer must own it, be approved for it,
// or be an operator of its owner.
type AssetTransfer struct {
	tx.BaseTx

	AssetID uint64 `json:"AssetID"`

	// From is the current owner; defaults to the signer
	From account.ID `json:"From,omitempty"`

	Destination account.ID `json:"Destination"`
}

// NewAssetTransfer creates a new AssetTransfer transaction
func NewAssetTransfer(from account.ID, assetID uint64, to account.ID) *AssetTransfer {
	return &AssetTransfer{BaseTx: *tx.NewBaseTx(tx.TypeAssetTransfer, from), AssetID: assetID, Destination: to}
}

func (t *AssetTransfer) TxType() tx.Type { return tx.TypeAssetTransfer }

// Validate validates the AssetTransfer transaction
func (t *AssetTransfer) Validate() error {
	if err := t.BaseTx.Validate(); err != nil {
		return err
	}
	if t.Destination.IsZero() {
		return tx.Fail(tx.TemMALFORMED, "Destination is required")
	}
	return nil
}

// Apply applies an AssetTransfer transaction
func (t *AssetTransfer) Apply(ctx *tx.ApplyContext) error {
	from := t.From
	if from.IsZero() {
		from = ctx.Account
	}
	return Registry{}.TransferFrom(ctx, ctx.Account, from, t.Destination, t.AssetID)
}
