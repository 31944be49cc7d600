// Package cmd implements the wallet CLI's subcommands.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/spf13/cobra"
)

var (
	walletName string
	walletDir  string
	nodeURL    string
)

const keyExtension = ".kdkey"

// rootCmd is the base command when the wallet binary is called without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "A wallet for the Kaidos chain: manage keys, check balances, send coins",
}

// Execute runs the wallet CLI, exiting the process on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.Fail(err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&walletName, "wallet", "w", "default", "Name of the wallet key to use.")
	rootCmd.PersistentFlags().StringVarP(&walletDir, "wallet-dir", "d", "zblock/wallets/", "Directory holding wallet key files.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "node", "n", "http://127.0.0.1:9080", "Base URL of the node to query.")
}

func keyPath(name string) string {
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}
	return filepath.Join(walletDir, name)
}

func ensureWalletDir() error {
	return os.MkdirAll(walletDir, 0o700)
}
