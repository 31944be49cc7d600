// Package main is the wallet CLI: generate keys, check balances and UTXOs,
// and build and send transactions against a running node.
package main

import "github.com/jolovicdev/kaidos/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
