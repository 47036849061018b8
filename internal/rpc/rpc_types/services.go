package rpc_types

import (
	"context"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/service"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/storage/relationaldb"
)

// Services provides access to core services from RPC handlers.
// It is set once at startup, before the servers accept requests.
var Services *ServiceContainer

// ServiceContainer holds references to all services needed by RPC handlers
type ServiceContainer struct {
	// Ledger provides ledger operations
	Ledger LedgerService
}

// LedgerService is the ledger as seen by RPC handlers
type LedgerService interface {
	// IsStandalone returns true if unsigned transactions are accepted
	IsStandalone() bool

	// ServerInfo returns server status information
	ServerInfo() (*service.ServerInfo, error)

	// SubmitTransaction parses and applies a JSON transaction
	SubmitTransaction(txJSON []byte) (*tx.ApplyResult, error)

	MarketInfo() (*service.MarketInfo, error)
	Listing(assetID uint64) (*entry.Listing, error)
	Offer(assetID, offerID uint64) (*entry.Offer, error)
	Offers(assetID uint64, activeOnly bool) (*service.OfferBook, error)

	PendingYield(assetID uint64) (*service.PendingYield, error)
	YieldInfo() (*service.YieldInfo, error)

	Balance(acct account.ID) (*service.AccountBalance, error)
	AssetInfo(assetID uint64) (*service.AssetInfo, error)
	AccountAssets(acct account.ID) ([]uint64, error)

	// Events queries the event journal
	Events(ctx context.Context, q relationaldb.EventQuery) ([]tx.Event, error)
	JournalStats(ctx context.Context) (*relationaldb.Stats, error)
}
