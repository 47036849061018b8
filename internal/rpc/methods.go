package rpc

import (
	"context"
	"time"

	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_handlers"
	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
)

// registerAllMethods registers every RPC method. HTTP and WebSocket share it.
func registerAllMethods(registry *rpc_types.MethodRegistry) {
	// Server Information Methods
	registry.Register("server_info", &rpc_handlers.ServerInfoMethod{})
	registry.Register("ping", &rpc_handlers.PingMethod{})
	registry.Register("version", &rpc_handlers.VersionMethod{})

	// Transaction Methods
	registry.Register("submit", &rpc_handlers.SubmitMethod{})

	// Marketplace Methods
	registry.Register("market_info", &rpc_handlers.MarketInfoMethod{})
	registry.Register("listing", &rpc_handlers.ListingMethod{})
	registry.Register("offer", &rpc_handlers.OfferMethod{})
	registry.Register("offers", &rpc_handlers.OffersMethod{})

	// Yield Methods
	registry.Register("pending_yield", &rpc_handlers.PendingYieldMethod{})
	registry.Register("yield_info", &rpc_handlers.YieldInfoMethod{})

	// Account and Asset Methods
	registry.Register("balance", &rpc_handlers.BalanceMethod{})
	registry.Register("account_assets", &rpc_handlers.AccountAssetsMethod{})
	registry.Register("asset_info", &rpc_handlers.AssetInfoMethod{})

	// Event Journal Methods
	registry.Register("events", &rpc_handlers.EventsMethod{})
	registry.Register("journal_info", &rpc_handlers.JournalInfoMethod{})

	// Subscription Methods (WebSocket only)
	registry.Register("subscribe", &rpc_handlers.SubscribeMethod{})
	registry.Register("unsubscribe", &rpc_handlers.UnsubscribeMethod{})
}

func contextWithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}
