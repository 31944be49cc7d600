package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <file>",
	Short: "Submit a signed transaction read from <file> to a running node's mempool",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			cli.Fail(err)
		}

		var tx database.Transaction
		if err := json.Unmarshal(data, &tx); err != nil {
			cli.FailArgs("%s is not a valid transaction: %s", args[0], err)
		}

		if err := postJSON(nodeURL+"/v1/node/tx/submit", tx, nil); err != nil {
			cli.Fail(err)
		}

		fmt.Printf("submitted transaction %s\n", tx.TxID)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
