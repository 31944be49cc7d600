package cmd

import (
	"fmt"

	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Print the confirmed balance for an address",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		addr := signature.Address(args[0])
		if !signature.IsValidAddress(addr) {
			cli.FailArgs("malformed address %q", args[0])
		}

		var bal walletBalance
		if err := getJSON(fmt.Sprintf("%s/v1/node/balance/%s", nodeURL, addr), &bal); err != nil {
			cli.Fail(err)
		}

		fmt.Printf("%d\n", bal.Balance)
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}
