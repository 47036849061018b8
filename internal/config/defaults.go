package config

import (
	"github.com/spf13/viper"

	"github.com/LeJamon/goPropLedger/internal/core/ledger/genesis"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	"github.com/LeJamon/goPropLedger/internal/core/tx/yield"
	"github.com/LeJamon/goPropLedger/internal/storage/kvdb"
)

// setDefaults registers every key, which also makes each one reachable
// through the environment
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.standalone", true)
	v.SetDefault("server.http_address", "127.0.0.1:5005")
	v.SetDefault("server.grpc_address", "127.0.0.1:50551")
	v.SetDefault("server.metrics", true)
	v.SetDefault("server.request_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Ledger store
	v.SetDefault("node_db.type", kvdb.BackendPebble)
	v.SetDefault("node_db.path", "./data/ledger")
	v.SetDefault("node_db.cache_size", 4096)

	// Journal
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.driver", "sqlite")
	v.SetDefault("journal.path", "./data/journal.db")
	v.SetDefault("journal.dsn", "")
	v.SetDefault("journal.timeout", "10s")

	// Genesis
	v.SetDefault("genesis.admin", "")
	v.SetDefault("genesis.initial_supply", genesis.DefaultInitialSupply.String())
	v.SetDefault("genesis.fee_bps", market.DefaultFeeBasisPoints)
	v.SetDefault("genesis.fee_collector", "")
	v.SetDefault("genesis.yield_rate", yield.DefaultRatePerSecond.String())

	// Market
	v.SetDefault("market.max_batch_claim", tx.DefaultMaxBatchClaim)
}
