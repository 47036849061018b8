package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goPropLedger/internal/core/amount"
)

var (
	seedURL     string
	seedOffline bool
	seedDemo    int
	seedTimeout time.Duration
)

var seedCmd = &cobra.Command{
	Use:   "seed [fixture.yaml]",
	Short: "Submit a scripted set of transactions",
	Long: `Sign and submit the transactions of a YAML fixture, in order, stopping at
the first step whose result differs from what it expects.

Without a fixture file a demo fixture is generated: the admin mints --demo
assets to an owner, registers them for yield, the owner approves the
marketplace and lists every other asset. The demo signs as seed "admin", so
the node's genesis admin must be that account (see keygen --seed admin).

Transactions go to a running node over JSON-RPC unless --offline is set, in
which case they are applied directly to the configured store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedURL, "url", "", "node JSON-RPC URL (default: the configured http_address)")
	seedCmd.Flags().BoolVar(&seedOffline, "offline", false, "apply to the configured store instead of a running node")
	seedCmd.Flags().IntVar(&seedDemo, "demo", 5, "number of assets in the generated demo fixture")
	seedCmd.Flags().DurationVar(&seedTimeout, "timeout", 30*time.Second, "request timeout")
}

func runSeed(cmd *cobra.Command, args []string) error {
	var fixture *Fixture
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		if fixture, err = LoadFixture(f); err != nil {
			return err
		}
	} else {
		fixture = DemoFixture(seedDemo, amount.Tokens(100))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if seedOffline {
		ledger, err := openOffline(cfg)
		if err != nil {
			return err
		}
		defer ledger.Close()
		svc, err := ledger.service(true)
		if err != nil {
			return err
		}
		return fixture.Run(ctx, serviceSubmitter{svc: svc}, cmd.OutOrStdout())
	}

	url := seedURL
	if url == "" {
		url = cfg.Server.HTTPAddress
	}
	return fixture.Run(ctx, newRPCClient(url, seedTimeout), cmd.OutOrStdout())
}

// DemoFixture mints n assets to "owner", registers each for yield, approves
// the marketplace and lists every other asset, starting with the first, at
// price. Asset ids assume the ledger holds no assets yet.
func DemoFixture(n int, price amount.Amount) *Fixture {
	f := &Fixture{Accounts: map[string]string{"admin": "admin", "owner": "owner"}}
	add := func(step FixtureStep) { f.Steps = append(f.Steps, step) }

	for i := 0; i < n; i++ {
		add(FixtureStep{Action: "mint", Account: "admin", To: "owner"})
		add(FixtureStep{Action: "register_yield", Account: "admin", Asset: uint64(i)})
	}
	add(FixtureStep{Action: "approve_all", Account: "owner", To: "market"})
	for i := 0; i < n; i += 2 {
		add(FixtureStep{Action: "list", Account: "owner", Asset: uint64(i), Amount: fmt.Sprint(price)})
	}
	return f
}
