package entry

import (
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
)

// Balance is the token balance held by one account.
type Balance struct {
	Account account.ID    `codec:"account" json:"account"`
	Amount  amount.Amount `codec:"amount" json:"amount"`
}

func (*Balance) EntryType() Type { return TypeBalance }

// TokenSupply tracks every token ever minted.
type TokenSupply struct {
	Total amount.Amount `codec:"total" json:"total"`
}

func (*TokenSupply) EntryType() Type { return TypeTokenSupply }

// Asset is one uniquely-identified property.
type Asset struct {
	ID       uint64     `codec:"id" json:"id"`
	Owner    account.ID `codec:"owner" json:"owner"`
	Approved account.ID `codec:"approved" json:"approved"`
	URI      string     `codec:"uri,omitempty" json:"uri,omitempty"`
}

func (*Asset) EntryType() Type { return TypeAsset }

// AssetCounter hands out asset ids.
type AssetCounter struct {
	Next uint64 `codec:"next" json:"next"`
}

func (*AssetCounter) EntryType() Type { return TypeAssetCounter }

// OwnerLink marks that Owner holds AssetID. The key orders links by owner.
type OwnerLink struct {
	Owner   account.ID `codec:"owner" json:"owner"`
	AssetID uint64     `codec:"asset_id" json:"asset_id"`
}

func (*OwnerLink) EntryType() Type { return TypeOwnerLink }

// Operator records an approval-for-all from Owner to Operator.
type Operator struct {
	Owner    account.ID `codec:"owner" json:"owner"`
	Operator account.ID `codec:"operator" json:"operator"`
	Approved bool       `codec:"approved" json:"approved"`
}

func (*Operator) EntryType() Type { return TypeOperator }

// Listing is the single sale slot of an asset. It is never removed, only deactivated.
type Listing struct {
	AssetID uint64        `codec:"asset_id" json:"asset_id"`
	Seller  account.ID    `codec:"seller" json:"seller"`
	Price   amount.Amount `codec:"price" json:"price"`
	Active  bool          `codec:"active" json:"active"`
}

func (*Listing) EntryType() Type { return TypeListing }

// Offer is a fully-funded bid on an asset.
type Offer struct {
	AssetID uint64        `codec:"asset_id" json:"asset_id"`
	OfferID uint64        `codec:"offer_id" json:"offer_id"`
	Buyer   account.ID    `codec:"buyer" json:"buyer"`
	Amount  amount.Amount `codec:"amount" json:"amount"`
	Active  bool          `codec:"active" json:"active"`
}

func (*Offer) EntryType() Type { return TypeOffer }

// OfferCounter is the number of offers ever made on an asset.
type OfferCounter struct {
	AssetID uint64 `codec:"asset_id" json:"asset_id"`
	Count   uint64 `codec:"count" json:"count"`
}

func (*OfferCounter) EntryType() Type { return TypeOfferCounter }

// Escrow is the custody balance attributable to one asset's active offers.
type Escrow struct {
	AssetID uint64        `codec:"asset_id" json:"asset_id"`
	Held    amount.Amount `codec:"held" json:"held"`
}

func (*Escrow) EntryType() Type { return TypeEscrow }

// YieldRegistration tracks accrual for one asset.
type YieldRegistration struct {
	AssetID         uint64 `codec:"asset_id" json:"asset_id"`
	Registered      bool   `codec:"registered" json:"registered"`
	RegisteredAt    int64  `codec:"registered_at" json:"registered_at"`
	LastAccrualTime int64  `codec:"last_accrual_time" json:"last_accrual_time"`
}

func (*YieldRegistration) EntryType() Type { return TypeYieldReg }

// MarketConfig holds the fee schedule.
type MarketConfig struct {
	FeeBasisPoints uint32     `codec:"fee_bps" json:"fee_bps"`
	FeeCollector   account.ID `codec:"fee_collector" json:"fee_collector"`
}

func (*MarketConfig) EntryType() Type { return TypeMarketConfig }

// YieldConfig holds the accrual rate and the only account allowed to mint.
type YieldConfig struct {
	RatePerSecond amount.Amount `codec:"rate_per_second" json:"rate_per_second"`
	MintAuthority account.ID    `codec:"mint_authority" json:"mint_authority"`
}

func (*YieldConfig) EntryType() Type { return TypeYieldConfig }

// Governance names the administrator.
type Governance struct {
	Admin account.ID `codec:"admin" json:"admin"`
}

func (*Governance) EntryType() Type { return TypeGovernance }

// Header carries ledger-wide counters.
type Header struct {
	TxCount     uint64   `codec:"tx_count" json:"tx_count"`
	EventCount  uint64   `codec:"event_count" json:"event_count"`
	GenesisTime int64    `codec:"genesis_time" json:"genesis_time"`
	LastTxHash  [32]byte `codec:"last_tx_hash" json:"-"`
	LastTxTime  int64    `codec:"last_tx_time" json:"last_tx_time"`
}

func (*Header) EntryType() Type { return TypeHeader }

// AccountSequence is the next sequence an account's signed transactions must carry.
type AccountSequence struct {
	Account account.ID `codec:"account" json:"account"`
	Next    uint64     `codec:"next" json:"next"`
}

func (*AccountSequence) EntryType() Type { return TypeSequence }
