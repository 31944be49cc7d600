package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Enumerate the wallets found under --wallet-dir",
	Run: func(cmd *cobra.Command, args []string) {
		entries, err := os.ReadDir(walletDir)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println("no wallets found")
				return
			}
			cli.Fail(err)
		}

		found := false
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), keyExtension) {
				continue
			}
			found = true
			fmt.Println(strings.TrimSuffix(e.Name(), keyExtension))
		}
		if !found {
			fmt.Println("no wallets found")
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
