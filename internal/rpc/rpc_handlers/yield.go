package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
)

// PendingYieldMethod handles the pending_yield RPC method
type PendingYieldMethod struct{ guestMethod }

func (m *PendingYieldMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
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
	pending, err := ledger.PendingYield(assetID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return toMap(pending)
}

// YieldInfoMethod handles the yield_info RPC method
type YieldInfoMethod struct{ guestMethod }

func (m *YieldInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService()
	if rpcErr != nil {
		return nil, rpcErr
	}
	info, err := ledger.YieldInfo()
	if err != nil {
		return nil, ledgerError(err)
	}
	return toMap(info)
}
