package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goPropLedger/internal/config"
	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/crypto"
)

var (
	keygenSeed        string
	keygenWriteConfig string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a signing key and its account",
	Long: `Generate a secp256k1 key pair and print its account, public key and
private key as JSON. With --seed the key is derived from the seed phrase, for
fixtures and local development. With --write-config an example configuration
naming the account as genesis administrator is written to the given path.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var kp *crypto.KeyPair
		if keygenSeed != "" {
			kp = crypto.KeyPairFromSeed(keygenSeed)
		} else {
			var err error
			if kp, err = crypto.GenerateKeyPair(); err != nil {
				return err
			}
		}
		id := account.ID(kp.AccountID())

		out, err := json.MarshalIndent(map[string]string{
			"account":     id.String(),
			"public_key":  kp.PublicKeyHex(),
			"private_key": kp.PrivateKeyHex(),
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		if keygenWriteConfig != "" {
			if err := config.SaveExampleConfig(keygenWriteConfig, id.String()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", keygenWriteConfig)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVar(&keygenSeed, "seed", "", "derive the key from a seed phrase")
	keygenCmd.Flags().StringVar(&keygenWriteConfig, "write-config", "", "write an example config with this account as genesis admin")
}
