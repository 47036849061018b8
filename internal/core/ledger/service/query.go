package service

import (
	"context"
	"encoding/hex"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/asset"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	"github.com/LeJamon/goPropLedger/internal/core/tx/token"
	"github.com/LeJamon/goPropLedger/internal/core/tx/yield"
	"github.com/LeJamon/goPropLedger/internal/storage/relationaldb"
)

// ServerInfo describes the running ledger.
type ServerInfo struct {
	Standalone   bool          `json:"standalone"`
	Uptime       int64         `json:"uptime"`
	Time         int64         `json:"time"`
	Admin        account.ID    `json:"admin"`
	Header       *entry.Header `json:"ledger"`
	LastTxHash   string        `json:"last_tx_hash,omitempty"`
	TotalSupply  amount.Amount `json:"total_supply"`
	TotalAssets  uint64        `json:"total_assets"`
	TxTypes      []string      `json:"transaction_types"`
	Journal      bool          `json:"journal"`
	MaxBatchSize int           `json:"max_batch_claim"`
}

// MarketInfo describes the marketplace settings and state.
type MarketInfo struct {
	FeeBasisPoints uint32           `json:"fee_bps"`
	FeeCollector   account.ID       `json:"fee_collector"`
	Custody        account.ID       `json:"custody"`
	TotalEscrow    amount.Amount    `json:"total_escrow"`
	ActiveListings []*entry.Listing `json:"active_listings"`
}

// OfferBook lists the offers on one asset.
type OfferBook struct {
	AssetID uint64         `json:"asset_id"`
	Count   uint64         `json:"offer_count"`
	Escrow  amount.Amount  `json:"escrow"`
	Offers  []*entry.Offer `json:"offers"`
}

// YieldInfo describes the yield settings and registrations.
type YieldInfo struct {
	RatePerSecond amount.Amount              `json:"rate_per_second"`
	MintAuthority account.ID                 `json:"mint_authority"`
	Registrations []*entry.YieldRegistration `json:"registrations"`
}

// PendingYield is the yield a claim would mint now.
type PendingYield struct {
	AssetID uint64        `json:"asset_id"`
	Owner   account.ID    `json:"owner"`
	Pending amount.Amount `json:"pending"`
	Time    int64         `json:"time"`
}

// AccountBalance is an account's token balance and next sequence.
type AccountBalance struct {
	Account  account.ID    `json:"account"`
	Balance  amount.Amount `json:"balance"`
	Sequence uint64        `json:"sequence"`
}

// AssetInfo is an asset with its marketplace and yield state.
type AssetInfo struct {
	Asset   *entry.Asset             `json:"asset"`
	Listing *entry.Listing           `json:"listing,omitempty"`
	Yield   *entry.YieldRegistration `json:"yield,omitempty"`
}

func (s *Service) reader() view.Reader {
	return s.engine.View()
}

// ServerInfo returns the node summary.
func (s *Service) ServerInfo() (*ServerInfo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	r := s.reader()
	header, err := view.Get[entry.Header](r, keylet.Header())
	if err != nil {
		return nil, err
	}
	admin, err := tx.Admin(r)
	if err != nil {
		return nil, err
	}
	supply, err := token.TotalSupply(r)
	if err != nil {
		return nil, err
	}
	assets, err := asset.Registry{}.TotalAssets(r)
	if err != nil {
		return nil, err
	}
	info := &ServerInfo{
		Standalone:   s.config.Standalone,
		Uptime:       s.config.Clock.Now().Unix() - s.started.Unix(),
		Time:         s.engine.Now(),
		Admin:        admin,
		Header:       header,
		TotalSupply:  supply,
		TotalAssets:  assets,
		Journal:      s.hasJournal(),
		MaxBatchSize: s.engine.Config().BatchLimit(),
	}
	if header != nil && header.LastTxHash != ([32]byte{}) {
		info.LastTxHash = hex.EncodeToString(header.LastTxHash[:])
	}
	for _, t := range tx.SupportedTypes() {
		info.TxTypes = append(info.TxTypes, t.String())
	}
	return info, nil
}

// MarketInfo returns the marketplace settings and active listings.
func (s *Service) MarketInfo() (*MarketInfo, error) {
	r := s.reader()
	cfg, err := market.Config(r)
	if err != nil {
		return nil, err
	}
	escrow, err := market.TotalEscrow(r)
	if err != nil {
		return nil, err
	}
	listings, err := market.ActiveListings(r)
	if err != nil {
		return nil, err
	}
	return &MarketInfo{
		FeeBasisPoints: cfg.FeeBasisPoints,
		FeeCollector:   cfg.FeeCollector,
		Custody:        account.Market,
		TotalEscrow:    escrow,
		ActiveListings: listings,
	}, nil
}

// Listing returns the listing of an asset. A never-listed asset reports
// TecNOT_FOUND.
func (s *Service) Listing(assetID uint64) (*entry.Listing, error) {
	l, err := market.Listing(s.reader(), assetID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, tx.Fail(tx.TecNOT_FOUND, "asset %d has no listing", assetID)
	}
	return l, nil
}

// Offer returns one offer.
func (s *Service) Offer(assetID, offerID uint64) (*entry.Offer, error) {
	o, err := market.Offer(s.reader(), assetID, offerID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, tx.Fail(tx.TecNOT_FOUND, "offer %d on asset %d does not exist", offerID, assetID)
	}
	return o, nil
}

// Offers returns the offers on an asset and its escrow.
func (s *Service) Offers(assetID uint64, activeOnly bool) (*OfferBook, error) {
	r := s.reader()
	count, err := market.OfferCount(r, assetID)
	if err != nil {
		return nil, err
	}
	offers, err := market.Offers(r, assetID, activeOnly)
	if err != nil {
		return nil, err
	}
	held, err := market.EscrowHeld(r, assetID)
	if err != nil {
		return nil, err
	}
	return &OfferBook{AssetID: assetID, Count: count, Escrow: held, Offers: offers}, nil
}

// PendingYield returns what claiming assetID would mint now.
func (s *Service) PendingYield(assetID uint64) (*PendingYield, error) {
	r := s.reader()
	now := s.engine.Now()
	pending, err := yield.PendingYield(r, assetID, now)
	if err != nil {
		return nil, err
	}
	owner, err := asset.Registry{}.OwnerOf(r, assetID)
	if err != nil {
		return nil, err
	}
	return &PendingYield{AssetID: assetID, Owner: owner, Pending: pending, Time: now}, nil
}

// YieldInfo returns the yield settings and every registration.
func (s *Service) YieldInfo() (*YieldInfo, error) {
	r := s.reader()
	cfg, err := yield.Config(r)
	if err != nil {
		return nil, err
	}
	regs, err := yield.Registrations(r)
	if err != nil {
		return nil, err
	}
	return &YieldInfo{RatePerSecond: cfg.RatePerSecond, MintAuthority: cfg.MintAuthority, Registrations: regs}, nil
}

// Balance returns the token balance and next sequence of acct.
func (s *Service) Balance(acct account.ID) (*AccountBalance, error) {
	r := s.reader()
	bal, err := token.Ledger{}.BalanceOf(r, acct)
	if err != nil {
		return nil, err
	}
	seq, err := tx.NextSequence(r, acct)
	if err != nil {
		return nil, err
	}
	return &AccountBalance{Account: acct, Balance: bal, Sequence: seq}, nil
}

// AssetInfo returns an asset with its listing and yield registration.
func (s *Service) AssetInfo(assetID uint64) (*AssetInfo, error) {
	r := s.reader()
	a, err := asset.Registry{}.Get(r, assetID)
	if err != nil {
		return nil, err
	}
	info := &AssetInfo{Asset: a}
	if info.Listing, err = market.Listing(r, assetID); err != nil {
		return nil, err
	}
	if info.Yield, err = yield.Registration(r, assetID); err != nil {
		return nil, err
	}
	return info, nil
}

// AccountAssets lists the assets owned by acct.
func (s *Service) AccountAssets(acct account.ID) ([]uint64, error) {
	ids, err := asset.Registry{}.AssetsOf(s.reader(), acct)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

// Events queries the event journal.
func (s *Service) Events(ctx context.Context, q relationaldb.EventQuery) ([]tx.Event, error) {
	s.mu.RLock()
	j := s.journal
	s.mu.RUnlock()
	if j == nil {
		return nil, ErrJournalDisabled
	}
	events, err := j.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []tx.Event{}
	}
	return events, nil
}

// JournalStats returns the journal summary.
func (s *Service) JournalStats(ctx context.Context) (*relationaldb.Stats, error) {
	s.mu.RLock()
	j := s.journal
	s.mu.RUnlock()
	if j == nil {
		return nil, ErrJournalDisabled
	}
	return j.Stats(ctx)
}

func (s *Service) hasJournal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.journal != nil
}

// IsNotFound reports whether err is a missing entry.
func IsNotFound(err error) bool {
	return err != nil && tx.ResultOf(err) == tx.TecNOT_FOUND
}
