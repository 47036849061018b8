// Package genesis writes the initial ledger state: the administrator, the
// initial token allocation, and the market and yield settings.
package genesis

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	"github.com/LeJamon/goPropLedger/internal/core/tx/token"
	"github.com/LeJamon/goPropLedger/internal/core/tx/yield"
)

// DefaultInitialSupply is allocated to the administrator.
var DefaultInitialSupply = amount.Tokens(10_000_000)

// ErrAlreadyInitialized is returned when the view already holds a genesis.
var ErrAlreadyInitialized = errors.New("ledger already initialized")

// Config describes the genesis ledger.
type Config struct {
	Admin          account.ID
	InitialSupply  amount.Amount
	FeeBasisPoints uint32
	FeeCollector   account.ID // defaults to Admin
	YieldRate      amount.Amount
	Time           int64
}

// DefaultConfig returns the standard genesis for admin.
func DefaultConfig(admin account.ID) Config {
	return Config{
		Admin:          admin,
		InitialSupply:  DefaultInitialSupply,
		FeeBasisPoints: market.DefaultFeeBasisPoints,
		YieldRate:      yield.DefaultRatePerSecond,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Admin.IsZero() {
		return errors.New("genesis admin is required")
	}
	if c.FeeBasisPoints > market.MaxFeeBasisPoints {
		return fmt.Errorf("genesis fee %d bps exceeds %d", c.FeeBasisPoints, market.MaxFeeBasisPoints)
	}
	return nil
}

// Initialized reports whether v already holds a genesis.
func Initialized(r view.Reader) (bool, error) {
	return r.Exists(keylet.Governance())
}

// Create writes the genesis state to base in one commit.
func Create(base view.Committer, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	done, err := Initialized(base)
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInitialized
	}
	collector := cfg.FeeCollector
	if collector.IsZero() {
		collector = cfg.Admin
	}

	table := view.NewTable(base)
	writes := []struct {
		k keylet.Keylet
		e entry.Entry
	}{
		{keylet.Governance(), &entry.Governance{Admin: cfg.Admin}},
		{keylet.MarketConfig(), &entry.MarketConfig{FeeBasisPoints: cfg.FeeBasisPoints, FeeCollector: collector}},
		{keylet.YieldConfig(), &entry.YieldConfig{RatePerSecond: cfg.YieldRate, MintAuthority: account.YieldMinter}},
		{keylet.AssetCounter(), &entry.AssetCounter{}},
		{keylet.Header(), &entry.Header{GenesisTime: cfg.Time}},
	}
	for _, w := range writes {
		if err := view.Put(table, w.k, w.e); err != nil {
			return fmt.Errorf("genesis %s: %w", w.k.Type, err)
		}
	}
	if err := (token.Ledger{}).Allocate(table, cfg.Admin, cfg.InitialSupply); err != nil {
		return fmt.Errorf("genesis allocation: %w", err)
	}
	return table.Apply(base)
}
