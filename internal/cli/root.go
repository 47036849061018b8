package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goPropLedger/internal/config"
)

var (
	// Global flags
	configFile string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "propledgerd",
	Short: "propledgerd - property marketplace ledger node",
	Long: `propledgerd runs a single-node ledger for tokenized property: an asset
registry, a fixed-price marketplace with escrowed offers, and a yield ledger
that accrues tokens to asset owners over time.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path (default: defaults and PROPLEDGERD_ environment)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output")
}

func initLogging() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if quiet {
		log.SetOutput(io.Discard)
	}
}

// loadConfig loads the file named by --conf.
func loadConfig() (*config.Config, error) {
	return config.LoadConfig(configFile)
}
