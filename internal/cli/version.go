package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_handlers"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "propledgerd version %s\n", rootCmd.Version)
		fmt.Fprintf(out, "Build: %s\n", rpc_handlers.BuildVersion)
		fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
		fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
