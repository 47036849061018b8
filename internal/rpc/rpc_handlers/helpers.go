package rpc_handlers

import (
	"encoding/json"
	"errors"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/service"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
	"github.com/LeJamon/goPropLedger/internal/storage/relationaldb"
)

var allApiVersions = []int{rpc_types.ApiVersion1, rpc_types.ApiVersion2}

// guestMethod is embedded by read-only methods
type guestMethod struct{}

func (guestMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

func (guestMethod) SupportedApiVersions() []int {
	return allApiVersions
}

func ledgerService() (rpc_types.LedgerService, *rpc_types.RpcError) {
	if rpc_types.Services == nil || rpc_types.Services.Ledger == nil {
		return nil, rpc_types.RpcErrorInternal("Ledger service not available")
	}
	return rpc_types.Services.Ledger, nil
}

func parseParams(params json.RawMessage, request interface{}) *rpc_types.RpcError {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, request); err != nil {
		return rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	return nil
}

func requireAsset(p rpc_types.AssetParam) (uint64, *rpc_types.RpcError) {
	if p.AssetID == nil {
		return 0, rpc_types.RpcErrorMissingField("asset_id")
	}
	return uint64(*p.AssetID), nil
}

func requireAccount(p rpc_types.AccountParam) (account.ID, *rpc_types.RpcError) {
	if p.Account == "" {
		return account.Zero, rpc_types.RpcErrorMissingField("account")
	}
	id, err := account.Parse(p.Account)
	if err != nil {
		return account.Zero, rpc_types.RpcErrorActMalformed("Account malformed.")
	}
	return id, nil
}

// ledgerError maps a ledger service error to an RPC error
func ledgerError(err error) *rpc_types.RpcError {
	switch {
	case errors.Is(err, service.ErrNotStarted):
		return rpc_types.RpcErrorNoCurrent("Ledger is not started.")
	case errors.Is(err, service.ErrJournalDisabled):
		return rpc_types.RpcErrorNotEnabled("event journal")
	case errors.Is(err, relationaldb.ErrInvalidLimit), errors.Is(err, relationaldb.ErrInvalidOffset):
		return rpc_types.RpcErrorInvalidParams(err.Error())
	}
	switch tx.ResultOf(err) {
	case tx.TecNOT_FOUND, tx.TecNOT_REGISTERED:
		return rpc_types.RpcErrorObjectNotFound(err.Error())
	case tx.TefINTERNAL:
		return rpc_types.RpcErrorInternal(err.Error())
	}
	return rpc_types.NewRpcError(rpc_types.RpcGENERAL, tx.ResultOf(err).String(), "ledger", err.Error())
}

// toMap renders v as a JSON object so the server can add the status field
func toMap(v interface{}) (map[string]interface{}, *rpc_types.RpcError) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, rpc_types.RpcErrorInternal("Failed to encode result: " + err.Error())
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, rpc_types.RpcErrorInternal("Failed to encode result: " + err.Error())
	}
	return out, nil
}
