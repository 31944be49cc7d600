package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/jolovicdev/kaidos/foundation/blockchain/genesis"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the data directory, a genesis block, and a miner key if none exist",
	Run: func(cmd *cobra.Command, args []string) {
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			cli.Fail(err)
		}

		genesisPath := filepath.Join(dataDir, "genesis.json")
		if _, err := os.Stat(genesisPath); os.IsNotExist(err) {
			if err := genesis.Save(genesisPath, genesis.Default()); err != nil {
				cli.Fail(err)
			}
			fmt.Println("wrote", genesisPath)
		} else {
			fmt.Println(genesisPath, "already exists, leaving it untouched")
		}

		keyPath := filepath.Join(dataDir, "miner.key")
		if _, err := os.Stat(keyPath); os.IsNotExist(err) {
			priv, err := signature.GenerateKey()
			if err != nil {
				cli.Fail(err)
			}
			if err := os.WriteFile(keyPath, []byte(priv.String()), 0o600); err != nil {
				cli.Fail(err)
			}
			addr, err := signature.PublicKeyToAddress(priv.Public().String())
			if err != nil {
				cli.Fail(err)
			}
			fmt.Println("wrote", keyPath, "miner address", addr)
		} else {
			fmt.Println(keyPath, "already exists, leaving it untouched")
		}
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
