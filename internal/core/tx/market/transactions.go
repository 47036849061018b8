package market

import (
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

func init() {
	tx.Register(tx.TypeList, func() tx.Transaction {
		return &List{BaseTx: *tx.NewBaseTx(tx.TypeList, account.Zero)}
	})
	tx.Register(tx.TypeDelist, func() tx.Transaction {
		return &Delist{BaseTx: *tx.NewBaseTx(tx.TypeDelist, account.Zero)}
	})
	tx.Register(tx.TypeBuyProperty, func() tx.Transaction {
		return &BuyProperty{BaseTx: *tx.NewBaseTx(tx.TypeBuyProperty, account.Zero)}
	})
	tx.Register(tx.TypeMakeOffer, func() tx.Transaction {
		return &MakeOffer{BaseTx: *tx.NewBaseTx(tx.TypeMakeOffer, account.Zero)}
	})
	tx.Register(tx.TypeCancelOffer, func() tx.Transaction {
		return &CancelOffer{BaseTx: *tx.NewBaseTx(tx.TypeCancelOffer, account.Zero)}
	})
	tx.Register(tx.TypeAcceptOffer, func() tx.Transaction {
		return &AcceptOffer{BaseTx: *tx.NewBaseTx(tx.TypeAcceptOffer, account.Zero)}
	})
	tx.Register(tx.TypeSetFee, func() tx.Transaction {
		return &SetFee{BaseTx: *tx.NewBaseTx(tx.TypeSetFee, account.Zero)}
	})
	tx.Register(tx.TypeSetFeeCollector, func() tx.Transaction {
		return &SetFeeCollector{BaseTx: *tx.NewBaseTx(tx.TypeSetFeeCollector, account.Zero)}
	})
}

// List creates or replaces the sale listing of an asset.
type List struct {
	tx.BaseTx

	AssetID uint64        `json:"AssetID"`
	Price   amount.Amount `json:"Price"`
}

// NewList creates a new List transaction
func NewList(seller account.ID, assetID uint64, price amount.Amount) *List {
	return &List{BaseTx: *tx.NewBaseTx(tx.TypeList, seller), AssetID: assetID, Price: price}
}

func (l *List) TxType() tx.Type { return tx.TypeList }

// Apply applies a List transaction
func (l *List) Apply(ctx *tx.ApplyContext) error {
	return Default.List(ctx, ctx.Account, l.AssetID, l.Price)
}

// Delist withdraws an active listing.
type Delist struct {
	tx.BaseTx

	AssetID uint64 `json:"AssetID"`
}

// NewDelist creates a new Delist transaction
func NewDelist(seller account.ID, assetID uint64) *Delist {
	return &Delist{BaseTx: *tx.NewBaseTx(tx.TypeDelist, seller), AssetID: assetID}
}

func (d *Delist) TxType() tx.Type { return tx.TypeDelist }

// Apply applies a Delist transaction
func (d *Delist) Apply(ctx *tx.ApplyContext) error {
	return Default.Delist(ctx, ctx.Account, d.AssetID)
}

// BuyProperty buys a listed asset at its listed price.
type BuyProperty struct {
	tx.BaseTx

	AssetID uint64 `json:"AssetID"`
}

// NewBuyProperty creates a new BuyProperty transaction
func NewBuyProperty(buyer account.ID, assetID uint64) *BuyProperty {
	return &BuyProperty{BaseTx: *tx.NewBaseTx(tx.TypeBuyProperty, buyer), AssetID: assetID}
}

func (b *BuyProperty) TxType() tx.Type { return tx.TypeBuyProperty }

// Apply applies a BuyProperty transaction
func (b *BuyProperty) Apply(ctx *tx.ApplyContext) error {
	return Default.Buy(ctx, ctx.Account, b.AssetID)
}

// MakeOffer escrows funds as a bid on an asset.
type MakeOffer struct {
	tx.BaseTx

	AssetID uint64        `json:"AssetID"`
	Amount  amount.Amount `json:"Amount"`
}

// NewMakeOffer creates a new MakeOffer transaction
func NewMakeOffer(buyer account.ID, assetID uint64, amt amount.Amount) *MakeOffer {
	return &MakeOffer{BaseTx: *tx.NewBaseTx(tx.TypeMakeOffer, buyer), AssetID: assetID, Amount: amt}
}

func (o *MakeOffer) TxType() tx.Type { return tx.TypeMakeOffer }

// Apply applies a MakeOffer transaction
func (o *MakeOffer) Apply(ctx *tx.ApplyContext) error {
	_, err := Default.MakeOffer(ctx, ctx.Account, o.AssetID, o.Amount)
	return err
}

// CancelOffer refunds an active offer to its buyer.
type CancelOffer struct {
	tx.BaseTx

	AssetID uint64 `json:"AssetID"`
	OfferID uint64 `json:"OfferID"`
}

// NewCancelOffer creates a new CancelOffer transaction
func NewCancelOffer(buyer account.ID, assetID, offerID uint64) *CancelOffer {
	return &CancelOffer{BaseTx: *tx.NewBaseTx(tx.TypeCancelOffer, buyer), AssetID: assetID, OfferID: offerID}
}

func (c *CancelOffer) TxType() tx.Type { return tx.TypeCancelOffer }

// Apply applies a CancelOffer transaction
func (c *CancelOffer) Apply(ctx *tx.ApplyContext) error {
	return Default.CancelOffer(ctx, ctx.Account, c.AssetID, c.OfferID)
}

// AcceptOffer sells the asset to an offer's buyer.
type AcceptOffer struct {
	tx.BaseTx

	AssetID uint64 `json:"AssetID"`
	OfferID uint64 `json:"OfferID"`
}

// NewAcceptOffer creates a new AcceptOffer transaction
func NewAcceptOffer(owner account.ID, assetID, offerID uint64) *AcceptOffer {
	return &AcceptOffer{BaseTx: *tx.NewBaseTx(tx.TypeAcceptOffer, owner), AssetID: assetID, OfferID: offerID}
}

func (a *AcceptOffer) TxType() tx.Type { return tx.TypeAcceptOffer }

// Apply applies an AcceptOffer transaction
func (a *AcceptOffer) Apply(ctx *tx.ApplyContext) error {
	return Default.AcceptOffer(ctx, ctx.Account, a.AssetID, a.OfferID)
}

// SetFee changes the sale fee in basis points.
type SetFee struct {
	tx.BaseTx

	FeeBasisPoints uint32 `json:"FeeBasisPoints"`
}

// NewSetFee creates a new SetFee transaction
func NewSetFee(admin account.ID, bps uint32) *SetFee {
	return &SetFee{BaseTx: *tx.NewBaseTx(tx.TypeSetFee, admin), FeeBasisPoints: bps}
}

func (s *SetFee) TxType() tx.Type { return tx.TypeSetFee }

// Apply applies a SetFee transaction
func (s *SetFee) Apply(ctx *tx.ApplyContext) error {
	return Default.SetFee(ctx, ctx.Account, s.FeeBasisPoints)
}

// SetFeeCollector changes the fee recipient.
type SetFeeCollector struct {
	tx.BaseTx

	FeeCollector account.ID `json:"FeeCollector"`
}

// NewSetFeeCollector creates a new SetFeeCollector transaction
func NewSetFeeCollector(admin, collector account.ID) *SetFeeCollector {
	return &SetFeeCollector{BaseTx: *tx.NewBaseTx(tx.TypeSetFeeCollector, admin), FeeCollector: collector}
}

func (s *SetFeeCollector) TxType() tx.Type { return tx.TypeSetFeeCollector }

// Apply applies a SetFeeCollector transaction
func (s *SetFeeCollector) Apply(ctx *tx.ApplyContext) error {
	return Default.SetFeeCollector(ctx, ctx.Account, s.FeeCollector)
}
