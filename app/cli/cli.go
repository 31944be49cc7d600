// Package cli holds the small amount of behavior shared by the node and
// wallet command-line binaries: mapping an error to the exit code
// taxonomy and printing it consistently.
package cli

import (
	"fmt"
	"os"

	"github.com/jolovicdev/kaidos/foundation/blockchain/ledger"
)

// Fail prints err to stderr and exits the process with the code the
// taxonomy assigns to its Kind. A nil err is a no-op.
func Fail(err error) {
	if err == nil {
		return
	}

	kind := ledger.Classify(err)
	fmt.Fprintf(os.Stderr, "error: %s\n", err)
	os.Exit(kind.ExitCode())
}

// FailArgs reports a bad-arguments error (exit code 3) with a
// caller-supplied message, for CLI input validation that never reaches the
// ledger packages.
func FailArgs(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(3)
}
