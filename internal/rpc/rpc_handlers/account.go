package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
)

// BalanceMethod handles the balance RPC method
type BalanceMethod struct{ guestMethod }

func (m *BalanceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.AccountParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	acct, rpcErr := requireAccount(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	ledger, rpcErr := ledgerService()
	if rpcErr != nil {
		return nil, rpcErr
	}
	bal, err := ledger.Balance(acct)
	if err != nil {
		return nil, ledgerError(err)
	}
	return toMap(bal)
}

// AccountAssetsMethod handles the account_assets RPC method
type AccountAssetsMethod struct{ guestMethod }

func (m *AccountAssetsMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.AccountParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	acct, rpcErr := requireAccount(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	ledger, rpcErr := ledgerService()
	if rpcErr != nil {
		return nil, rpcErr
	}
	ids, err := ledger.AccountAssets(acct)
	if err != nil {
		return nil, ledgerError(err)
	}
	return map[string]interface{}{
		"account": acct.String(),
		"assets":  ids,
	}, nil
}

// AssetInfoMethod handles the asset_info RPC method
type AssetInfoMethod struct{ guestMethod }

func (m *AssetInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
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
	info, err := ledger.AssetInfo(assetID)
	if err != nil {
		return nil, ledgerError(err)
	}
	return toMap(info)
}
