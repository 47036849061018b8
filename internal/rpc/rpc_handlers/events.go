package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
	"github.com/LeJamon/goPropLedger/internal/storage/relationaldb"
)

// EventsMethod handles the events RPC method: a query over the event journal
type EventsMethod struct{ guestMethod }

func (m *EventsMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		AssetID     *rpc_types.AssetID `json:"asset_id"`
		Account     string             `json:"account"`
		Type        string             `json:"type"`
		Stream      string             `json:"stream"`
		MinSequence uint64             `json:"min_sequence"`
		Limit       int                `json:"limit"`
		Offset      int                `json:"offset"`
		Newest      bool               `json:"newest"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}

	q := relationaldb.EventQuery{
		Type:        request.Type,
		Stream:      request.Stream,
		MinSequence: request.MinSequence,
		Limit:       request.Limit,
		Offset:      request.Offset,
		Newest:      request.Newest,
	}
	if request.AssetID != nil {
		id := uint64(*request.AssetID)
		q.AssetID = &id
	}
	if request.Account != "" {
		acct, rpcErr := requireAccount(rpc_types.AccountParam{Account: request.Account})
		if rpcErr != nil {
			return nil, rpcErr
		}
		q.Account = &acct
	}

	ledger, rpcErr := ledgerService()
	if rpcErr != nil {
		return nil, rpcErr
	}
	events, err := ledger.Events(ctx.Context, q)
	if err != nil {
		return nil, ledgerError(err)
	}
	return map[string]interface{}{
		"events": events,
		"count":  len(events),
	}, nil
}

// JournalInfoMethod handles the journal_info RPC method
type JournalInfoMethod struct{ guestMethod }

func (m *JournalInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService()
	if rpcErr != nil {
		return nil, rpcErr
	}
	stats, err := ledger.JournalStats(ctx.Context)
	if err != nil {
		return nil, ledgerError(err)
	}
	return toMap(stats)
}
