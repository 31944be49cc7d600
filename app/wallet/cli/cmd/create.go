package cmd

import (
	"fmt"

	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var createEncrypted bool

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new keypair and address and persist it under --wallet",
	Run: func(cmd *cobra.Command, args []string) {
		if err := ensureWalletDir(); err != nil {
			cli.Fail(err)
		}

		priv, err := signature.GenerateKey()
		if err != nil {
			cli.Fail(err)
		}

		if err := saveKey(keyPath(walletName), priv, createEncrypted); err != nil {
			cli.Fail(err)
		}

		addr, err := signature.PublicKeyToAddress(priv.Public().String())
		if err != nil {
			cli.Fail(err)
		}

		fmt.Printf("wallet %q created\naddress: %s\n", walletName, addr)
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().BoolVar(&createEncrypted, "encrypted", false, "Encrypt the key file with a passphrase.")
}
