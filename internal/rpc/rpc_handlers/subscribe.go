package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
)

// SubscribeMethod handles the subscribe RPC command (WebSocket only)
type SubscribeMethod struct{ guestMethod }

func (m *SubscribeMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	// The WebSocket server handles subscribe itself
	return nil, rpc_types.RpcErrorNotSupported("subscribe is only available via WebSocket")
}

// UnsubscribeMethod handles the unsubscribe RPC command (WebSocket only)
type UnsubscribeMethod struct{ guestMethod }

func (m *UnsubscribeMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return nil, rpc_types.RpcErrorNotSupported("unsubscribe is only available via WebSocket")
}
