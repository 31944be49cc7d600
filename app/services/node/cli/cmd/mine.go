package cmd

import (
	"fmt"

	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

type mineResult struct {
	Hash   string `json:"hash"`
	Height uint64 `json:"height"`
	Reward uint64 `json:"reward"`
}

var mineCmd = &cobra.Command{
	Use:   "mine <addr>",
	Short: "Mine one block against a running node, crediting the reward to <addr>",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		addr := signature.Address(args[0])
		if !signature.IsValidAddress(addr) {
			cli.FailArgs("malformed address %q", args[0])
		}

		var result mineResult
		if err := postJSON(nodeURL+"/v1/node/mine", map[string]any{"address": addr}, &result); err != nil {
			cli.Fail(err)
		}

		fmt.Printf("mined block %s at height %d, reward %d\n", result.Hash, result.Height, result.Reward)
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
}
