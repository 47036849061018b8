package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goPropLedger/internal/core/ledger/service"
)

var stateJSON bool

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the market and yield tables of a stopped node",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ledger, err := openOffline(cfg)
		if err != nil {
			return err
		}
		defer ledger.Close()
		svc, err := ledger.service(false)
		if err != nil {
			return err
		}

		dump, err := collectState(svc)
		if err != nil {
			return err
		}
		if stateJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dump)
		}
		return dump.write(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.Flags().BoolVar(&stateJSON, "json", false, "print JSON instead of tables")
}

type stateDump struct {
	Market  *service.MarketInfo     `json:"market"`
	Offers  []*service.OfferBook    `json:"offers"`
	Yield   *service.YieldInfo      `json:"yield"`
	Pending []*service.PendingYield `json:"pending"`
}

func collectState(svc *service.Service) (*stateDump, error) {
	dump := &stateDump{}
	var err error
	if dump.Market, err = svc.MarketInfo(); err != nil {
		return nil, err
	}
	for _, l := range dump.Market.ActiveListings {
		book, err := svc.Offers(l.AssetID, true)
		if err != nil {
			return nil, err
		}
		dump.Offers = append(dump.Offers, book)
	}
	if dump.Yield, err = svc.YieldInfo(); err != nil {
		return nil, err
	}
	for _, reg := range dump.Yield.Registrations {
		if !reg.Registered {
			continue
		}
		p, err := svc.PendingYield(reg.AssetID)
		if err != nil {
			return nil, err
		}
		dump.Pending = append(dump.Pending, p)
	}
	return dump, nil
}

func (d *stateDump) write(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "MARKET")
	fmt.Fprintf(w, "  fee\t%d bps\n", d.Market.FeeBasisPoints)
	fmt.Fprintf(w, "  fee collector\t%s\n", d.Market.FeeCollector)
	fmt.Fprintf(w, "  escrow held\t%s\n", d.Market.TotalEscrow)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "ASSET\tSELLER\tPRICE\tOFFERS\tESCROW")
	for i, l := range d.Market.ActiveListings {
		book := d.Offers[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", l.AssetID, l.Seller, l.Price, len(book.Offers), book.Escrow)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "YIELD")
	fmt.Fprintf(w, "  rate\t%s per second\n", d.Yield.RatePerSecond)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "ASSET\tOWNER\tREGISTERED\tLAST ACCRUAL\tPENDING")
	pending := make(map[uint64]*service.PendingYield, len(d.Pending))
	for _, p := range d.Pending {
		pending[p.AssetID] = p
	}
	for _, reg := range d.Yield.Registrations {
		p, ok := pending[reg.AssetID]
		if !ok {
			fmt.Fprintf(w, "%d\t-\tno\t-\t-\n", reg.AssetID)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", reg.AssetID, p.Owner,
			unixTime(reg.RegisteredAt), unixTime(reg.LastAccrualTime), p.Pending)
	}
	return w.Flush()
}

func unixTime(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
