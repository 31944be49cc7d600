// Package cmd implements the node command surface: `init` mints local
// storage and genesis, `start` runs the long-lived server process, and the
// remaining subcommands are thin HTTP clients that administer a node
// already running under `start`.
package cmd

import (
	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	nodeURL string
)

var rootCmd = &cobra.Command{
	Use:   "node",
	Short: "Operate a kaidos node: initialize storage, run the server, and administer it",
}

// Execute runs the node CLI, exiting the process on failure through the
// shared exit-code taxonomy.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.Fail(err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "zblock/", "Directory holding genesis.json, chain.db, and the miner key.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "node", "n", "http://127.0.0.1:9080", "Base URL of a running node's API, for commands that administer it remotely.")
}
