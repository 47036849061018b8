package yield

import (
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeRegisterProperty, func() tx.Transaction {
		return &RegisterProperty{BaseTx: *tx.NewBaseTx(tx.TypeRegisterProperty, account.Zero)}
	})
	tx.Register(tx.TypeClaimYield, func() tx.Transaction {
		return &ClaimYield{BaseTx: *tx.NewBaseTx(tx.TypeClaimYield, account.Zero)}
	})
	tx.Register(tx.TypeBatchClaimYield, func() tx.Transaction {
		return &BatchClaimYield{BaseTx: *tx.NewBaseTx(tx.TypeBatchClaimYield, account.Zero)}
	})
	tx.Register(tx.TypeSetYieldRate, func() tx.Transaction {
		return &SetYieldRate{BaseTx: *tx.NewBaseTx(tx.TypeSetYieldRate, account.Zero)}
	})
}

// RegisterProperty starts yield accrual for an asset.
type RegisterProperty struct {
	tx.BaseTx

	AssetID uint64 `json:"AssetID"`
}

// NewRegisterProperty creates a new RegisterProperty transaction
func NewRegisterProperty(admin account.ID, assetID uint64) *RegisterProperty {
	return &RegisterProperty{BaseTx: *tx.NewBaseTx(tx.TypeRegisterProperty, admin), AssetID: assetID}
}

func (r *RegisterProperty) TxType() tx.Type { return tx.TypeRegisterProperty }

// Apply applies a RegisterProperty transaction
func (r *RegisterProperty) Apply(ctx *tx.ApplyContext) error {
	return Default.Register(ctx, ctx.Account, r.AssetID)
}

// ClaimYield mints an asset's pending yield to its owner.
type ClaimYield struct {
	tx.BaseTx

	AssetID uint64 `json:"AssetID"`
}

// NewClaimYield creates a new ClaimYield transaction
func NewClaimYield(owner account.ID, assetID uint64) *ClaimYield {
	return &ClaimYield{BaseTx: *tx.NewBaseTx(tx.TypeClaimYield, owner), AssetID: assetID}
}

func (c *ClaimYield) TxType() tx.Type { return tx.TypeClaimYield }

// Apply applies a ClaimYield transaction
func (c *ClaimYield) Apply(ctx *tx.ApplyContext) error {
	_, err := Default.Claim(ctx, ctx.Account, c.AssetID)
	return err
}

// BatchClaimYield claims several assets at once, all or nothing.
type BatchClaimYield struct {
	tx.BaseTx

	AssetIDs []uint64 `json:"AssetIDs"`
}

// NewBatchClaimYield creates a new BatchClaimYield transaction
func NewBatchClaimYield(owner account.ID, assetIDs ...uint64) *BatchClaimYield {
	return &BatchClaimYield{BaseTx: *tx.NewBaseTx(tx.TypeBatchClaimYield, owner), AssetIDs: assetIDs}
}

func (b *BatchClaimYield) TxType() tx.Type { return tx.TypeBatchClaimYield }

// Validate validates the BatchClaimYield transaction
func (b *BatchClaimYield) Validate() error {
	if err := b.BaseTx.Validate(); err != nil {
		return err
	}
	if len(b.AssetIDs) == 0 {
		return tx.Fail(tx.TemBATCH_EMPTY, "AssetIDs is empty")
	}
	return nil
}

// Apply applies a BatchClaimYield transaction
func (b *BatchClaimYield) Apply(ctx *tx.ApplyContext) error {
	_, err := Default.BatchClaim(ctx, ctx.Account, b.AssetIDs)
	return err
}

// SetYieldRate changes the accrual rate, in base units per second.
type SetYieldRate struct {
	tx.BaseTx

	RatePerSecond amount.Amount `json:"RatePerSecond"`
}

// NewSetYieldRate creates a new SetYieldRate transaction
func NewSetYieldRate(admin account.ID, rate amount.Amount) *SetYieldRate {
	return &SetYieldRate{BaseTx: *tx.NewBaseTx(tx.TypeSetYieldRate, admin), RatePerSecond: rate}
}

func (s *SetYieldRate) TxType() tx.Type { return tx.TypeSetYieldRate }

// Validate validates the SetYieldRate transaction
func (s *SetYieldRate) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if s.RatePerSecond > maxRatePerSecond {
		return tx.Fail(tx.TemMALFORMED, "RatePerSecond is unreasonably large")
	}
	return nil
}

// Apply applies a SetYieldRate transaction
func (s *SetYieldRate) Apply(ctx *tx.ApplyContext) error {
	return Default.SetRate(ctx, ctx.Account, s.RatePerSecond)
}

// maxRatePerSecond keeps a century of accrual within 64 bits.
const maxRatePerSecond = amount.Amount(^uint64(0) / (100 * 365 * 24 * 3600))
