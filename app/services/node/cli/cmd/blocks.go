package cmd

import (
	"fmt"

	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	blocksStart uint64
	blocksEnd   uint64
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Query a running node's chain between --start and --end, inclusive",
	Run: func(cmd *cobra.Command, args []string) {
		if blocksStart > blocksEnd {
			cli.FailArgs("--start must not be greater than --end")
		}

		var blocks []database.Block
		url := fmt.Sprintf("%s/v1/node/blocks/%d/%d", nodeURL, blocksStart, blocksEnd)
		if err := getJSON(url, &blocks); err != nil {
			cli.Fail(err)
		}

		if len(blocks) == 0 {
			fmt.Println("no blocks in range")
			return
		}

		for _, b := range blocks {
			fmt.Printf("height[%d] hash[%s] txs[%d]\n", b.Header.Index, b.Hash(), len(b.Transactions))
		}
	},
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.Flags().Uint64Var(&blocksStart, "start", 0, "First height to include.")
	blocksCmd.Flags().Uint64Var(&blocksEnd, "end", 0, "Last height to include.")
}
