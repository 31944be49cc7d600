// Package main is the node binary's entry point; the command surface
// itself lives in cli/cmd.
package main

import "github.com/jolovicdev/kaidos/app/services/node/cli/cmd"

func main() {
	cmd.Execute()
}
