package database

import "errors"

// Validation errors surfaced synchronously to whoever submitted the
// transaction or block, per the error taxonomy in the design.
var (
	ErrBadTxid              = errors.New("txid does not match canonical serialization")
	ErrUnknownInput         = errors.New("input references an outpoint that is not in the utxo set")
	ErrDoubleSpendInBlock   = errors.New("outpoint spent more than once within the same block")
	ErrDoubleSpendInMempool = errors.New("outpoint already claimed by another transaction in the mempool")
	ErrSignatureMismatch    = errors.New("input signature does not verify against the referenced output")
	ErrNegativeOrZeroAmt    = errors.New("amount must be greater than zero")
	ErrInsufficientInputs   = errors.New("sum of inputs is less than sum of outputs")
	ErrInsufficientFunds    = errors.New("wallet could not select enough unspent outputs to cover the requested amount")
	ErrEmptyTransaction     = errors.New("transaction must have at least one input and one output")
	ErrMalformedCoinbase    = errors.New("coinbase transaction is malformed")
	ErrUnexpectedCoinbase   = errors.New("only the first transaction in a block may be a coinbase")
	ErrCoinbaseOverpayment  = errors.New("coinbase output exceeds reward plus collected fees")

	ErrBadBlockLink   = errors.New("block does not link to the expected previous block")
	ErrBadPoW         = errors.New("block hash does not satisfy the required difficulty")
	ErrBadMerkleRoot  = errors.New("merkle root does not match the block's transactions")
	ErrBadCoinbase    = errors.New("block's coinbase transaction is invalid")
	ErrBadTimestamp   = errors.New("block timestamp is earlier than the previous block")
	ErrMiningStalled  = errors.New("exhausted the nonce space without finding a valid hash")
	ErrMiningCanceled = errors.New("mining was canceled")

	// ErrStorageCorrupt is returned when the chain loaded from storage on
	// startup does not itself satisfy the consensus rules — a previous run
	// wrote an inconsistent chain, or the on-disk file was tampered with or
	// truncated. This is fatal: the node refuses to start rather than run
	// against a UTXO set it cannot trust.
	ErrStorageCorrupt = errors.New("recovered chain failed validation")
)
