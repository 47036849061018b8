package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/service"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/asset"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	"github.com/LeJamon/goPropLedger/internal/core/tx/token"
	"github.com/LeJamon/goPropLedger/internal/core/tx/yield"
	"github.com/LeJamon/goPropLedger/internal/crypto"
)

// Fixture is a scripted sequence of signed transactions, loaded from YAML.
//
//	accounts:
//	  admin: admin       # name: key seed
//	  alice: alice
//	steps:
//	  - {action: mint, account: admin, to: alice}
//	  - {action: list, account: alice, asset: 0, amount: "100"}
type Fixture struct {
	Accounts map[string]string `yaml:"accounts"`
	Steps    []FixtureStep     `yaml:"steps"`
}

// FixtureStep is one transaction. Account names the signer; To names the
// counterparty by fixture name, by address, or as "market".
type FixtureStep struct {
	Action   string   `yaml:"action"`
	Account  string   `yaml:"account"`
	To       string   `yaml:"to,omitempty"`
	Asset    uint64   `yaml:"asset,omitempty"`
	Assets   []uint64 `yaml:"assets,omitempty"`
	Offer    uint64   `yaml:"offer,omitempty"`
	Amount   string   `yaml:"amount,omitempty"`
	FeeBPS   uint32   `yaml:"fee_bps,omitempty"`
	Approved *bool    `yaml:"approved,omitempty"`

	// Expect is the result code the step must produce, tesSUCCESS if empty
	Expect string `yaml:"expect,omitempty"`
}

// Submitter applies a transaction to a ledger.
type Submitter interface {
	Submit(ctx context.Context, t tx.Transaction) (*tx.ApplyResult, error)

	// NextSequence returns the Sequence acct's next transaction must carry.
	NextSequence(ctx context.Context, acct account.ID) (uint64, error)
}

// serviceSubmitter applies transactions to an in-process ledger.
type serviceSubmitter struct {
	svc *service.Service
}

func (s serviceSubmitter) Submit(_ context.Context, t tx.Transaction) (*tx.ApplyResult, error) {
	return s.svc.Submit(t), nil
}

func (s serviceSubmitter) NextSequence(_ context.Context, acct account.ID) (uint64, error) {
	bal, err := s.svc.Balance(acct)
	if err != nil {
		return 0, err
	}
	return bal.Sequence, nil
}

// LoadFixture decodes a fixture and checks that every signer has a key.
func LoadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("fixture has no steps")
	}
	for i, step := range f.Steps {
		if _, ok := f.Accounts[step.Account]; !ok {
			return nil, fmt.Errorf("step %d: unknown account %q", i+1, step.Account)
		}
	}
	return &f, nil
}

// keys derives the key pair of every fixture account.
func (f *Fixture) keys() map[string]*crypto.KeyPair {
	keys := make(map[string]*crypto.KeyPair, len(f.Accounts))
	for name, seed := range f.Accounts {
		keys[name] = crypto.KeyPairFromSeed(seed)
	}
	return keys
}

// AccountIDs returns the fixture accounts by name.
func (f *Fixture) AccountIDs() map[string]account.ID {
	ids := make(map[string]account.ID, len(f.Accounts))
	for name, kp := range f.keys() {
		ids[name] = account.ID(kp.AccountID())
	}
	return ids
}

// Run signs and submits every step in order and stops at the first step
// whose result differs from what it expects.
func (f *Fixture) Run(ctx context.Context, sub Submitter, out io.Writer) error {
	keys := f.keys()
	ids := f.AccountIDs()

	for i, step := range f.Steps {
		t, err := step.transaction(ids)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
		seq, err := sub.NextSequence(ctx, t.GetCommon().Account)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
		t.GetCommon().Sequence = seq
		if err := tx.Sign(t, keys[step.Account]); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
		res, err := sub.Submit(ctx, t)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}

		expect := step.Expect
		if expect == "" {
			expect = tx.TesSUCCESS.String()
		}
		fmt.Fprintf(out, "%3d  %-22s %-8s %s\n", i+1, t.TxType(), step.Account, res.Result)
		if res.Result.String() != expect {
			return fmt.Errorf("step %d (%s): got %s, want %s: %s", i+1, step.Action, res.Result, expect, res.Message)
		}
	}
	return nil
}

func (s FixtureStep) transaction(ids map[string]account.ID) (tx.Transaction, error) {
	from := ids[s.Account]

	switch s.Action {
	case "transfer":
		to, amt, err := s.counterpartyAndAmount(ids)
		if err != nil {
			return nil, err
		}
		return token.NewTokenTransfer(from, to, amt), nil
	case "mint":
		to, err := s.counterparty(ids)
		if err != nil {
			return nil, err
		}
		return asset.NewAssetMint(from, to), nil
	case "approve":
		to, err := s.counterparty(ids)
		if err != nil {
			return nil, err
		}
		return asset.NewAssetApprove(from, s.Asset, to), nil
	case "approve_all":
		to, err := s.counterparty(ids)
		if err != nil {
			return nil, err
		}
		approved := s.Approved == nil || *s.Approved
		return asset.NewAssetSetApprovalForAll(from, to, approved), nil
	case "transfer_asset":
		to, err := s.counterparty(ids)
		if err != nil {
			return nil, err
		}
		return asset.NewAssetTransfer(from, s.Asset, to), nil
	case "list":
		price, err := s.amount()
		if err != nil {
			return nil, err
		}
		return market.NewList(from, s.Asset, price), nil
	case "delist":
		return market.NewDelist(from, s.Asset), nil
	case "buy":
		return market.NewBuyProperty(from, s.Asset), nil
	case "offer":
		amt, err := s.amount()
		if err != nil {
			return nil, err
		}
		return market.NewMakeOffer(from, s.Asset, amt), nil
	case "cancel_offer":
		return market.NewCancelOffer(from, s.Asset, s.Offer), nil
	case "accept_offer":
		return market.NewAcceptOffer(from, s.Asset, s.Offer), nil
	case "set_fee":
		return market.NewSetFee(from, s.FeeBPS), nil
	case "set_fee_collector":
		to, err := s.counterparty(ids)
		if err != nil {
			return nil, err
		}
		return market.NewSetFeeCollector(from, to), nil
	case "register_yield":
		return yield.NewRegisterProperty(from, s.Asset), nil
	case "claim_yield":
		return yield.NewClaimYield(from, s.Asset), nil
	case "batch_claim_yield":
		return yield.NewBatchClaimYield(from, s.Assets...), nil
	case "set_yield_rate":
		rate, err := s.amount()
		if err != nil {
			return nil, err
		}
		return yield.NewSetYieldRate(from, rate), nil
	default:
		return nil, fmt.Errorf("unknown action %q (valid: %s)", s.Action, strings.Join(fixtureActions(), ", "))
	}
}

func fixtureActions() []string {
	actions := []string{
		"transfer", "mint", "approve", "approve_all", "transfer_asset",
		"list", "delist", "buy", "offer", "cancel_offer", "accept_offer",
		"set_fee", "set_fee_collector",
		"register_yield", "claim_yield", "batch_claim_yield", "set_yield_rate",
	}
	sort.Strings(actions)
	return actions
}

func (s FixtureStep) counterparty(ids map[string]account.ID) (account.ID, error) {
	switch {
	case s.To == "":
		return account.ID{}, fmt.Errorf("to is required")
	case s.To == "market":
		return account.Market, nil
	}
	if id, ok := ids[s.To]; ok {
		return id, nil
	}
	return account.Parse(s.To)
}

func (s FixtureStep) amount() (amount.Amount, error) {
	if s.Amount == "" {
		return 0, fmt.Errorf("amount is required")
	}
	return amount.Parse(s.Amount)
}

func (s FixtureStep) counterpartyAndAmount(ids map[string]account.ID) (account.ID, amount.Amount, error) {
	to, err := s.counterparty(ids)
	if err != nil {
		return account.ID{}, 0, err
	}
	amt, err := s.amount()
	return to, amt, err
}
