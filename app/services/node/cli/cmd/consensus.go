package cmd

import (
	"fmt"

	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/spf13/cobra"
)

type consensusResult struct {
	Adopted bool   `json:"adopted"`
	Height  uint64 `json:"height"`
	Source  string `json:"source"`
}

var consensusCmd = &cobra.Command{
	Use:   "consensus",
	Short: "Trigger one replace-chain round against a running node's known peers",
	Run: func(cmd *cobra.Command, args []string) {
		var result consensusResult
		if err := postJSON(nodeURL+"/v1/node/consensus", struct{}{}, &result); err != nil {
			cli.Fail(err)
		}

		if !result.Adopted {
			fmt.Println("no longer chain found, local chain unchanged")
			return
		}
		fmt.Printf("adopted chain from %s at height %d\n", result.Source, result.Height)
	},
}

func init() {
	rootCmd.AddCommand(consensusCmd)
}
