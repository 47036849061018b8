package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
)

// BuildVersion is reported by server_info and version
var BuildVersion = "0.1.0-propledgerd"

// ServerInfoMethod handles the server_info RPC method
type ServerInfoMethod struct{ guestMethod }

func (m *ServerInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService()
	if rpcErr != nil {
		return nil, rpcErr
	}
	info, err := ledger.ServerInfo()
	if err != nil {
		return nil, ledgerError(err)
	}

	serverState := "full"
	if info.Standalone {
		serverState = "standalone"
	}

	infoMap, rpcErr := toMap(info)
	if rpcErr != nil {
		return nil, rpcErr
	}
	infoMap["build_version"] = BuildVersion
	infoMap["server_state"] = serverState

	return map[string]interface{}{"info": infoMap}, nil
}

// PingMethod handles the ping RPC method
type PingMethod struct{ guestMethod }

func (m *PingMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return map[string]interface{}{}, nil
}

// VersionMethod handles the version RPC method
type VersionMethod struct{ guestMethod }

func (m *VersionMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return map[string]interface{}{
		"version": map[string]interface{}{
			"build":       BuildVersion,
			"first":       rpc_types.ApiVersion1,
			"last":        rpc_types.ApiVersion2,
			"api_version": ctx.ApiVersion,
		},
	}, nil
}
