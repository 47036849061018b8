package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
)

// MarketInfoMethod handles the market_info RPC method
type MarketInfoMethod struct{ guestMethod }

func (m *MarketInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService()
	if rpcErr != nil {
		return nil, rpcErr
	}
	info, err := ledger.MarketInfo()
	if err != nil {
		return nil, ledgerError(err)
	}
	return toMap(info)
}

// ListingMethod handles the listing RPC method
type ListingMethod struct{ guestMethod }

func (m *ListingMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.AssetParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	assetID, rpcErr := requireAsset(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	ledger, rpcErr := ledgerService()
	if rpcErr != nil {
		return nil, rpcErr
	}
	listing, err := ledger.Listing(assetID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return map[string]interface{}{"listing": listing}, nil
}

// OfferMethod handles the offer RPC method
type OfferMethod struct{ guestMethod }

func (m *OfferMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		rpc_types.AssetParam
		OfferID *rpc_types.AssetID `json:"offer_id"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	assetID, rpcErr := requireAsset(request.AssetParam)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if request.OfferID == nil {
		return nil, rpc_types.RpcErrorMissingField("offer_id")
	}
	ledger, rpcErr := ledgerService()
	if rpcErr != nil {
		return nil, rpcErr
	}
	offer, err := ledger.Offer(assetID, uint64(*request.OfferID))
	if err != nil {
		return nil, ledgerError(err)
	}
	return map[string]interface{}{"offer": offer}, nil
}

// OffersMethod handles the offers RPC method
type OffersMethod struct{ guestMethod }

func (m *OffersMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		rpc_types.AssetParam
		ActiveOnly bool `json:"active_only"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	assetID, rpcErr := requireAsset(request.AssetParam)
	if rpcErr != nil {
		return nil, rpcErr
	}
	ledger, rpcErr := ledgerService()
	if rpcErr != nil {
		return nil, rpcErr
	}
	book, err := ledger.Offers(assetID, request.ActiveOnly)
	if err != nil {
		return nil, ledgerError(err)
	}
	return toMap(book)
}
