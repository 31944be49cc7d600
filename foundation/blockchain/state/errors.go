package state

import "errors"

// ErrChainNotLonger is returned by ReplaceChain when the candidate chain is
// not strictly longer than the current one.
var ErrChainNotLonger = errors.New("candidate chain is not longer than the current chain")

// ErrEmptyChain is returned when an operation requires at least a genesis
// block and none is present.
var ErrEmptyChain = errors.New("chain has no blocks")
