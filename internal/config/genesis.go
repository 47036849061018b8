package config

import (
	"fmt"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/genesis"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
)

// GenesisConfig represents the [genesis] section. Amounts are whole-token
// quantities such as "10000000" or "0.01".
type GenesisConfig struct {
	Admin         string `toml:"admin" mapstructure:"admin"`
	InitialSupply string `toml:"initial_supply" mapstructure:"initial_supply"`
	FeeBPS        uint32 `toml:"fee_bps" mapstructure:"fee_bps"`
	FeeCollector  string `toml:"fee_collector" mapstructure:"fee_collector"`

	// YieldRate is the tokens accrued per asset per second
	YieldRate string `toml:"yield_rate" mapstructure:"yield_rate"`
}

// Validate performs validation on the genesis configuration
func (g *GenesisConfig) Validate() error {
	_, err := g.Genesis()
	return err
}

// Genesis converts the section into a genesis.Config.
func (g *GenesisConfig) Genesis() (genesis.Config, error) {
	var cfg genesis.Config
	if g.Admin == "" {
		return cfg, fmt.Errorf("genesis admin is required")
	}
	admin, err := account.Parse(g.Admin)
	if err != nil {
		return cfg, fmt.Errorf("invalid genesis admin: %w", err)
	}
	cfg = genesis.DefaultConfig(admin)

	if g.InitialSupply != "" {
		if cfg.InitialSupply, err = amount.Parse(g.InitialSupply); err != nil {
			return cfg, fmt.Errorf("invalid initial_supply: %w", err)
		}
	}
	if g.FeeBPS > market.MaxFeeBasisPoints {
		return cfg, fmt.Errorf("fee_bps must be at most %d, got %d", market.MaxFeeBasisPoints, g.FeeBPS)
	}
	cfg.FeeBasisPoints = g.FeeBPS
	if g.FeeCollector != "" {
		if cfg.FeeCollector, err = account.Parse(g.FeeCollector); err != nil {
			return cfg, fmt.Errorf("invalid fee_collector: %w", err)
		}
	}
	if g.YieldRate != "" {
		if cfg.YieldRate, err = amount.Parse(g.YieldRate); err != nil {
			return cfg, fmt.Errorf("invalid yield_rate: %w", err)
		}
	}
	return cfg, cfg.Validate()
}
