// Package ledger classifies errors raised anywhere in the blockchain
// packages into the fixed taxonomy the CLI binaries map to exit codes,
// without every package needing to agree on one giant sentinel list.
package ledger

import (
	"errors"

	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
)

// Kind is one entry in the fixed error taxonomy.
type Kind int

// The fixed set of error kinds. Order is insignificant; values are not
// serialized.
const (
	KindUnknown Kind = iota
	KindInsufficientFunds
	KindSignatureMismatch
	KindBadTxid
	KindUnknownInput
	KindDoubleSpendInBlock
	KindDoubleSpendInMempool
	KindNegativeOrZeroAmount
	KindBadBlockLink
	KindBadPoW
	KindBadMerkleRoot
	KindBadCoinbase
	KindBadTimestamp
	KindInvalidCandidateChain
	KindStorageCorrupt
	KindMiningStalled
	KindMiningCancelled
	KindPeerUnavailable
	KindPeerMalformed
	KindTimeout
	KindBadArguments
)

// Classify maps an error returned by the blockchain packages to its
// taxonomy Kind. Errors it does not recognize classify as KindUnknown.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, database.ErrInsufficientFunds), errors.Is(err, database.ErrInsufficientInputs):
		return KindInsufficientFunds
	case errors.Is(err, database.ErrSignatureMismatch):
		return KindSignatureMismatch
	case errors.Is(err, database.ErrBadTxid):
		return KindBadTxid
	case errors.Is(err, database.ErrUnknownInput):
		return KindUnknownInput
	case errors.Is(err, database.ErrDoubleSpendInMempool):
		return KindDoubleSpendInMempool
	case errors.Is(err, database.ErrDoubleSpendInBlock):
		return KindDoubleSpendInBlock
	case errors.Is(err, database.ErrNegativeOrZeroAmt):
		return KindNegativeOrZeroAmount
	case errors.Is(err, database.ErrBadBlockLink):
		return KindBadBlockLink
	case errors.Is(err, database.ErrBadPoW):
		return KindBadPoW
	case errors.Is(err, database.ErrBadMerkleRoot):
		return KindBadMerkleRoot
	case errors.Is(err, database.ErrBadCoinbase), errors.Is(err, database.ErrMalformedCoinbase), errors.Is(err, database.ErrCoinbaseOverpayment), errors.Is(err, database.ErrUnexpectedCoinbase):
		return KindBadCoinbase
	case errors.Is(err, database.ErrBadTimestamp):
		return KindBadTimestamp
	case errors.Is(err, database.ErrMiningStalled):
		return KindMiningStalled
	case errors.Is(err, database.ErrMiningCanceled):
		return KindMiningCancelled
	case errors.Is(err, database.ErrStorageCorrupt):
		return KindStorageCorrupt
	default:
		return KindUnknown
	}
}

// ExitCode maps a Kind to the exit code taxonomy: 0 success, 1 validation
// failure, 2 I/O or network failure, 3 bad arguments.
func (k Kind) ExitCode() int {
	switch k {
	case KindUnknown:
		return 0
	case KindBadArguments:
		return 3
	case KindPeerUnavailable, KindPeerMalformed, KindTimeout, KindStorageCorrupt:
		return 2
	default:
		return 1
	}
}
