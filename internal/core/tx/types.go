package tx

import "fmt"

// Type represents a transaction type code
type Type uint16

const (
	TypeInvalid Type = 0xFFFF

	// Reference collaborators
	TypeTokenTransfer          Type = 1
	TypeAssetMint              Type = 2
	TypeAssetApprove           Type = 3
	TypeAssetSetApprovalForAll Type = 4
	TypeAssetTransfer          Type = 5

	// Marketplace
	TypeList            Type = 10
	TypeDelist          Type = 11
	TypeBuyProperty     Type = 12
	TypeMakeOffer       Type = 13
	TypeCancelOffer     Type = 14
	TypeAcceptOffer     Type = 15
	TypeSetFee          Type = 16
	TypeSetFeeCollector Type = 17

	// Yield
	TypeRegisterProperty Type = 20
	TypeClaimYield       Type = 21
	TypeBatchClaimYield  Type = 22
	TypeSetYieldRate     Type = 23
)

var typeNames = map[Type]string{
	TypeTokenTransfer:          "TokenTransfer",
	TypeAssetMint:              "AssetMint",
	TypeAssetApprove:           "AssetApprove",
	TypeAssetSetApprovalForAll: "AssetSetApprovalForAll",
	TypeAssetTransfer:          "AssetTransfer",
	TypeList:                   "List",
	TypeDelist:                 "Delist",
	TypeBuyProperty:            "BuyProperty",
	TypeMakeOffer:              "MakeOffer",
	TypeCancelOffer:            "CancelOffer",
	TypeAcceptOffer:            "AcceptOffer",
	TypeSetFee:                 "SetFee",
	TypeSetFeeCollector:        "SetFeeCollector",
	TypeRegisterProperty:       "RegisterProperty",
	TypeClaimYield:             "ClaimYield",
	TypeBatchClaimYield:        "BatchClaimYield",
	TypeSetYieldRate:           "SetYieldRate",
}

var typeByName = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

// String returns the transaction type name
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint16(t))
}

// TypeFromName returns the Type for a transaction type name
func TypeFromName(name string) (Type, bool) {
	t, ok := typeByName[name]
	return t, ok
}
