package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
)

// SubmitMethod handles the submit RPC method
type SubmitMethod struct{}

func (m *SubmitMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		TxJson json.RawMessage `json:"tx_json,omitempty"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if len(request.TxJson) == 0 {
		return nil, rpc_types.RpcErrorMissingField("tx_json")
	}

	var txJsonMap map[string]interface{}
	if err := json.Unmarshal(request.TxJson, &txJsonMap); err != nil {
		return nil, rpc_types.RpcErrorInvalidParams("tx_json must be an object")
	}

	ledger, rpcErr := ledgerService()
	if rpcErr != nil {
		return nil, rpcErr
	}
	result, err := ledger.SubmitTransaction(request.TxJson)
	if err != nil {
		return nil, ledgerError(err)
	}

	if result.Hash != "" {
		txJsonMap["hash"] = result.Hash
	}
	response := map[string]interface{}{
		"engine_result":         result.Result.String(),
		"engine_result_code":    int(result.Result),
		"engine_result_message": result.Message,
		"tx_json":               txJsonMap,
		"applied":               result.Applied,
	}
	if result.Hash != "" {
		response["tx_hash"] = result.Hash
	}
	if len(result.Events) > 0 {
		response["events"] = result.Events
	}
	if len(result.AffectedNodes) > 0 {
		response["affected_nodes"] = result.AffectedNodes
	}
	return response, nil
}

func (m *SubmitMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleUser // Transaction submission requires user privileges
}

func (m *SubmitMethod) SupportedApiVersions() []int {
	return allApiVersions
}
