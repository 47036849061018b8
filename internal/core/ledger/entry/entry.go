package entry

import (
	"fmt"
)

// Type represents a ledger entry type
type Type uint16

// All known ledger entry types
const (
	TypeBalance      Type = 0x0061 // Token balance of one account
	TypeTokenSupply  Type = 0x0073 // Total token supply (singleton)
	TypeAsset        Type = 0x0041 // Asset ownership and single-asset approval
	TypeAssetCounter Type = 0x006e // Next asset id (singleton)
	TypeOwnerLink    Type = 0x0077 // Owner enumeration index
	TypeOperator     Type = 0x0070 // Operator approval for all of an owner's assets
	TypeListing      Type = 0x004c // Sale listing
	TypeOffer        Type = 0x006f // Escrowed buy offer
	TypeOfferCounter Type = 0x0063 // Next offer id per asset
	TypeEscrow       Type = 0x0065 // Funds held in custody per asset
	TypeYieldReg     Type = 0x0079 // Yield registration per asset
	TypeMarketConfig Type = 0x004d // Fee settings (singleton)
	TypeYieldConfig  Type = 0x0059 // Yield rate and mint authority (singleton)
	TypeGovernance   Type = 0x0047 // Administrator (singleton)
	TypeHeader       Type = 0x0048 // Ledger counters (singleton)
	TypeSequence     Type = 0x0053 // Next transaction sequence of an account
)

// String returns the string representation of the Type
func (t Type) String() string {
	switch t {
	case TypeBalance:
		return "Balance"
	case TypeTokenSupply:
		return "TokenSupply"
	case TypeAsset:
		return "Asset"
	case TypeAssetCounter:
		return "AssetCounter"
	case TypeOwnerLink:
		return "OwnerLink"
	case TypeOperator:
		return "Operator"
	case TypeListing:
		return "Listing"
	case TypeOffer:
		return "Offer"
	case TypeOfferCounter:
		return "OfferCounter"
	case TypeEscrow:
		return "Escrow"
	case TypeYieldReg:
		return "YieldRegistration"
	case TypeMarketConfig:
		return "MarketConfig"
	case TypeYieldConfig:
		return "YieldConfig"
	case TypeGovernance:
		return "Governance"
	case TypeHeader:
		return "Header"
	case TypeSequence:
		return "AccountSequence"
	default:
		return fmt.Sprintf("Unknown(0x%04x)", uint16(t))
	}
}

// Entry is implemented by every value stored in the ledger.
type Entry interface {
	EntryType() Type
}
