package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"

	grpcserver "github.com/LeJamon/goPropLedger/internal/grpc"
)

var (
	rpcURL      string
	rpcTimeout  time.Duration
	queryTarget string
)

// rpcCmd calls a running node's JSON-RPC endpoint
var rpcCmd = &cobra.Command{
	Use:   "rpc <method> [params-json | key=value ...]",
	Short: "Call a JSON-RPC method on a running node",
	Long: `Call a JSON-RPC method on a running node and print the result.

Parameters are either one JSON object or key=value pairs, for example:
  propledgerd rpc server_info
  propledgerd rpc listing asset_id=0
  propledgerd rpc submit '{"tx_json": {...}}'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(args[1:])
		if err != nil {
			return err
		}
		url := rpcURL
		if url == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			url = cfg.Server.HTTPAddress
		}

		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		var p interface{}
		if params != nil {
			p = params
		}
		result, err := newRPCClient(url, rpcTimeout).Call(ctx, args[0], p)
		if err != nil {
			return err
		}
		delete(result, "status")
		return printJSON(cmd, result)
	},
}

// queryCmd calls the gRPC query service of a running node
var queryCmd = &cobra.Command{
	Use:   "query <method> [params-json | key=value ...]",
	Short: "Call a gRPC query method on a running node",
	Long: `Call a method of the ` + grpcserver.ServiceName + ` gRPC service, for example:
  propledgerd query GetListing asset_id=0
  propledgerd query GetBalance account=0x...`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(args[1:])
		if err != nil {
			return err
		}
		target := queryTarget
		if target == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Server.HasGRPC() {
				return fmt.Errorf("grpc is disabled in the configuration")
			}
			target = cfg.Server.GRPCAddress
		}

		conn, err := grpcserver.Dial(target)
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		resp, err := grpcserver.NewQueryClient(conn).Call(ctx, args[0], params)
		if err != nil {
			return err
		}
		out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rpcCmd, queryCmd)
	rpcCmd.Flags().StringVar(&rpcURL, "url", "", "node JSON-RPC URL (default: the configured http_address)")
	queryCmd.Flags().StringVar(&queryTarget, "target", "", "node gRPC address (default: the configured grpc_address)")
	for _, c := range []*cobra.Command{rpcCmd, queryCmd} {
		c.Flags().DurationVar(&rpcTimeout, "timeout", 10*time.Second, "request timeout")
	}
}

// parseParams reads either a single JSON object or key=value pairs. Integers
// and true/false keep their type; the rest are strings.
func parseParams(args []string) (map[string]interface{}, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) == 1 && strings.HasPrefix(strings.TrimSpace(args[0]), "{") {
		var params map[string]interface{}
		if err := json.Unmarshal([]byte(args[0]), &params); err != nil {
			return nil, fmt.Errorf("invalid params JSON: %w", err)
		}
		return params, nil
	}

	params := make(map[string]interface{}, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", arg)
		}
		switch value {
		case "true", "false":
			params[key] = value == "true"
			continue
		}
		if n, err := strconv.ParseUint(value, 10, 64); err == nil && n <= 1<<53 {
			params[key] = n
			continue
		}
		params[key] = value
	}
	return params, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
