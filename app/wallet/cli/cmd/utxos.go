package cmd

import (
	"fmt"

	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var utxosCmd = &cobra.Command{
	Use:   "utxos <address>",
	Short: "List every unspent output paying an address",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		addr := signature.Address(args[0])
		if !signature.IsValidAddress(addr) {
			cli.FailArgs("malformed address %q", args[0])
		}

		var utxos []walletUTXO
		if err := getJSON(fmt.Sprintf("%s/v1/node/utxos/%s", nodeURL, addr), &utxos); err != nil {
			cli.Fail(err)
		}

		if len(utxos) == 0 {
			fmt.Println("no unspent outputs")
			return
		}

		for _, u := range utxos {
			fmt.Printf("%s:%d\t%d\n", u.TxID, u.Vout, u.Amount)
		}
	},
}

func init() {
	rootCmd.AddCommand(utxosCmd)
}
