package keylet

import (
	"encoding/binary"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	crypto "github.com/LeJamon/goPropLedger/internal/crypto/common"
)

// Space identifiers. Each key starts with its space byte so that every table
// occupies one contiguous, ordered key range.
const (
	spaceBalance      byte = 'a'
	spaceTokenSupply  byte = 's'
	spaceAsset        byte = 'A'
	spaceAssetCounter byte = 'n'
	spaceOwnerLink    byte = 'w'
	spaceOperator     byte = 'p'
	spaceListing      byte = 'L'
	spaceOffer        byte = 'o'
	spaceOfferCounter byte = 'c'
	spaceEscrow       byte = 'e'
	spaceYieldReg     byte = 'y'
	spaceMarketConfig byte = 'M'
	spaceYieldConfig  byte = 'Y'
	spaceGovernance   byte = 'G'
	spaceHeader       byte = 'H'
	spaceSequence     byte = 'N'
)

// Keylet represents an addressable location in the ledger state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type entry.Type
	Key  [32]byte
}

// Prefix is the leading part of a key shared by a group of entries.
type Prefix []byte

// orderedKey lays out the space byte followed by the given fields, zero padded.
func orderedKey(space byte, fields ...[]byte) [32]byte {
	var key [32]byte
	key[0] = space
	n := 1
	for _, f := range fields {
		n += copy(key[n:], f)
	}
	return key
}

// hashedKey keeps the space byte and fills the rest with a digest of the fields.
// Used where the fields do not fit in 31 bytes and ordering is not needed.
func hashedKey(space byte, fields ...[]byte) [32]byte {
	buf := []byte{space}
	for _, f := range fields {
		buf = append(buf, f...)
	}
	digest := crypto.Sha512Half(buf)
	var key [32]byte
	key[0] = space
	copy(key[1:], digest[:31])
	return key
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Balance returns the keylet for an account's token balance.
func Balance(id account.ID) Keylet {
	return Keylet{Type: entry.TypeBalance, Key: orderedKey(spaceBalance, id[:])}
}

// TokenSupply returns the keylet for the singleton token supply entry.
func TokenSupply() Keylet {
	return Keylet{Type: entry.TypeTokenSupply, Key: orderedKey(spaceTokenSupply)}
}

// Asset returns the keylet for an asset.
func Asset(assetID uint64) Keylet {
	return Keylet{Type: entry.TypeAsset, Key: orderedKey(spaceAsset, u64(assetID))}
}

// AssetCounter returns the keylet for the singleton asset id counter.
func AssetCounter() Keylet {
	return Keylet{Type: entry.TypeAssetCounter, Key: orderedKey(spaceAssetCounter)}
}

// OwnerLink returns the keylet marking that owner holds assetID.
func OwnerLink(owner account.ID, assetID uint64) Keylet {
	return Keylet{Type: entry.TypeOwnerLink, Key: orderedKey(spaceOwnerLink, owner[:], u64(assetID))}
}

// Operator returns the keylet for an owner's approval-for-all of operator.
func Operator(owner, operator account.ID) Keylet {
	return Keylet{Type: entry.TypeOperator, Key: hashedKey(spaceOperator, owner[:], operator[:])}
}

// Listing returns the keylet for an asset's sale listing.
func Listing(assetID uint64) Keylet {
	return Keylet{Type: entry.TypeListing, Key: orderedKey(spaceListing, u64(assetID))}
}

// Offer returns the keylet for one offer on an asset.
func Offer(assetID, offerID uint64) Keylet {
	return Keylet{Type: entry.TypeOffer, Key: orderedKey(spaceOffer, u64(assetID), u64(offerID))}
}

// OfferCounter returns the keylet for an asset's offer counter.
func OfferCounter(assetID uint64) Keylet {
	return Keylet{Type: entry.TypeOfferCounter, Key: orderedKey(spaceOfferCounter, u64(assetID))}
}

// Escrow returns the keylet for the custody held against an asset's offers.
func Escrow(assetID uint64) Keylet {
	return Keylet{Type: entry.TypeEscrow, Key: orderedKey(spaceEscrow, u64(assetID))}
}

// YieldRegistration returns the keylet for an asset's yield registration.
func YieldRegistration(assetID uint64) Keylet {
	return Keylet{Type: entry.TypeYieldReg, Key: orderedKey(spaceYieldReg, u64(assetID))}
}

// MarketConfig returns the keylet for the singleton fee settings.
func MarketConfig() Keylet {
	return Keylet{Type: entry.TypeMarketConfig, Key: orderedKey(spaceMarketConfig)}
}

// YieldConfig returns the keylet for the singleton yield settings.
func YieldConfig() Keylet {
	return Keylet{Type: entry.TypeYieldConfig, Key: orderedKey(spaceYieldConfig)}
}

// Governance returns the keylet for the singleton administrator entry.
func Governance() Keylet {
	return Keylet{Type: entry.TypeGovernance, Key: orderedKey(spaceGovernance)}
}

// Header returns the keylet for the singleton ledger header.
func Header() Keylet {
	return Keylet{Type: entry.TypeHeader, Key: orderedKey(spaceHeader)}
}

// Sequence returns the keylet for an account's transaction sequence.
func Sequence(id account.ID) Keylet {
	return Keylet{Type: entry.TypeSequence, Key: orderedKey(spaceSequence, id[:])}
}

// OffersOf is the prefix shared by every offer on assetID.
func OffersOf(assetID uint64) Prefix {
	return Prefix(append([]byte{spaceOffer}, u64(assetID)...))
}

// AssetsOf is the prefix shared by every owner link of owner.
func AssetsOf(owner account.ID) Prefix {
	return Prefix(append([]byte{spaceOwnerLink}, owner[:]...))
}

// AllEscrows is the prefix shared by every escrow entry.
func AllEscrows() Prefix {
	return Prefix{spaceEscrow}
}

// AllListings is the prefix shared by every listing.
func AllListings() Prefix {
	return Prefix{spaceListing}
}

// AllYieldRegistrations is the prefix shared by every yield registration.
func AllYieldRegistrations() Prefix {
	return Prefix{spaceYieldReg}
}

// AllOffers is the prefix shared by every offer.
func AllOffers() Prefix {
	return Prefix{spaceOffer}
}

// AssetIDOf extracts the asset id from a key whose first field is an asset id
// (asset, listing, offer, offer counter, escrow and yield registration keys).
func AssetIDOf(key [32]byte) uint64 {
	return binary.BigEndian.Uint64(key[1:9])
}

// TypeOf returns the entry type stored under key, based on its space byte.
func TypeOf(key [32]byte) (entry.Type, bool) {
	switch key[0] {
	case spaceBalance:
		return entry.TypeBalance, true
	case spaceTokenSupply:
		return entry.TypeTokenSupply, true
	case spaceAsset:
		return entry.TypeAsset, true
	case spaceAssetCounter:
		return entry.TypeAssetCounter, true
	case spaceOwnerLink:
		return entry.TypeOwnerLink, true
	case spaceOperator:
		return entry.TypeOperator, true
	case spaceListing:
		return entry.TypeListing, true
	case spaceOffer:
		return entry.TypeOffer, true
	case spaceOfferCounter:
		return entry.TypeOfferCounter, true
	case spaceEscrow:
		return entry.TypeEscrow, true
	case spaceYieldReg:
		return entry.TypeYieldReg, true
	case spaceMarketConfig:
		return entry.TypeMarketConfig, true
	case spaceYieldConfig:
		return entry.TypeYieldConfig, true
	case spaceGovernance:
		return entry.TypeGovernance, true
	case spaceHeader:
		return entry.TypeHeader, true
	case spaceSequence:
		return entry.TypeSequence, true
	default:
		return 0, false
	}
}
