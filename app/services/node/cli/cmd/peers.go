package cmd

import (
	"fmt"

	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/jolovicdev/kaidos/foundation/blockchain/peer"
	"github.com/spf13/cobra"
)

type peersResult struct {
	Peers []peer.Peer `json:"peers"`
}

var addPeerCmd = &cobra.Command{
	Use:   "add-peer <host:port>",
	Short: "Register a peer with a running node",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var result peersResult
		if err := postJSON(nodeURL+"/v1/node/peers", map[string]string{"host": args[0]}, &result); err != nil {
			cli.Fail(err)
		}
		fmt.Printf("node now knows %d peer(s)\n", len(result.Peers))
	},
}

var listPeersCmd = &cobra.Command{
	Use:   "list-peers",
	Short: "List the peers a running node currently knows about",
	Run: func(cmd *cobra.Command, args []string) {
		var result peersResult
		if err := getJSON(nodeURL+"/v1/node/peers", &result); err != nil {
			cli.Fail(err)
		}
		if len(result.Peers) == 0 {
			fmt.Println("no known peers")
			return
		}
		for _, p := range result.Peers {
			fmt.Println(p.Host)
		}
	},
}

func init() {
	rootCmd.AddCommand(addPeerCmd)
	rootCmd.AddCommand(listPeersCmd)
}
