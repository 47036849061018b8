package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goPropLedger/internal/node"
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the ledger node",
	Long: `Start the node, which provides:
- HTTP JSON-RPC on the configured http_address
- WebSocket subscriptions on /ws
- Prometheus metrics on /metrics
- Health check on /health
- gRPC ledger queries on the configured grpc_address

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.RunE = runServer
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	n, err := node.New(cfg)
	if err != nil {
		return fmt.Errorf("start node: %w", err)
	}
	if err := n.Listen(); err != nil {
		n.Close()
		return err
	}

	if !quiet {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "propledgerd")
		fmt.Fprintln(out, "===========")
		fmt.Fprintf(out, "  - HTTP JSON-RPC: http://%s/\n", n.HTTPAddr())
		fmt.Fprintf(out, "  - WebSocket:     ws://%s/ws\n", n.HTTPAddr())
		fmt.Fprintf(out, "  - Health Check:  http://%s/health\n", n.HTTPAddr())
		if cfg.Server.Metrics {
			fmt.Fprintf(out, "  - Metrics:       http://%s/metrics\n", n.HTTPAddr())
		}
		if addr := n.GRPCAddr(); addr != "" {
			fmt.Fprintf(out, "  - gRPC:          %s\n", addr)
		}
		fmt.Fprintf(out, "  - Node DB:       %s\n", cfg.NodeDB.Type)
		fmt.Fprintln(out)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return n.Run(ctx)
}
