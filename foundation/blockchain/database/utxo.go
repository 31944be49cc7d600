package database

import (
	"sync"

	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
)

// UTXOSet is the authoritative mapping from outpoint to unspent output.
// It is safe for concurrent use; ApplyBlock and RevertBlock are atomic —
// either every input is removed and every output inserted, or none are.
type UTXOSet struct {
	mu   sync.RWMutex
	outs map[OutPoint]TxOutput
}

// NewUTXOSet constructs an empty UTXO set.
func NewUTXOSet() *UTXOSet {
	return &UTXOSet{outs: make(map[OutPoint]TxOutput)}
}

// Lookup returns the output for an outpoint, if unspent.
func (u *UTXOSet) Lookup(op OutPoint) (TxOutput, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out, ok := u.outs[op]
	return out, ok
}

// ByAddress returns every unspent output paying the given address.
func (u *UTXOSet) ByAddress(addr signature.Address) []struct {
	OutPoint OutPoint
	Output   TxOutput
} {
	u.mu.RLock()
	defer u.mu.RUnlock()

	var result []struct {
		OutPoint OutPoint
		Output   TxOutput
	}
	for op, out := range u.outs {
		if out.Address == addr {
			result = append(result, struct {
				OutPoint OutPoint
				Output   TxOutput
			}{OutPoint: op, Output: out})
		}
	}
	return result
}

// Balance sums every unspent output paying the given address.
func (u *UTXOSet) Balance(addr signature.Address) Amount {
	u.mu.RLock()
	defer u.mu.RUnlock()

	var total Amount
	for _, out := range u.outs {
		if out.Address == addr {
			total += out.Amount
		}
	}
	return total
}

// Clone makes a deep copy for shadow application during block validation,
// mining, and chain replacement, so a failed operation never touches the
// live set.
func (u *UTXOSet) Clone() *UTXOSet {
	u.mu.RLock()
	defer u.mu.RUnlock()

	clone := NewUTXOSet()
	for op, out := range u.outs {
		clone.outs[op] = out
	}
	return clone
}

// applyTransactionLocked removes tx's spent outpoints and inserts its new
// outputs. Caller must hold u.mu for writing.
func (u *UTXOSet) applyTransactionLocked(tx Transaction) {
	for _, in := range tx.Inputs {
		if in.IsCoinbase() {
			continue
		}
		delete(u.outs, in.Previous)
	}
	for i, out := range tx.Outputs {
		u.outs[OutPoint{TxID: tx.TxID, Vout: uint32(i)}] = out
	}
}

// revertTransactionLocked is the inverse of applyTransactionLocked given the
// set of outputs that existed before tx was applied (needed to restore
// spent inputs). Caller must hold u.mu for writing.
func (u *UTXOSet) revertTransactionLocked(tx Transaction, spent map[OutPoint]TxOutput) {
	for i := range tx.Outputs {
		delete(u.outs, OutPoint{TxID: tx.TxID, Vout: uint32(i)})
	}
	for _, in := range tx.Inputs {
		if in.IsCoinbase() {
			continue
		}
		if out, ok := spent[in.Previous]; ok {
			u.outs[in.Previous] = out
		}
	}
}

// ApplyTransaction applies a single transaction's effects to the set. Used
// by block validation to advance a scratch snapshot transaction by
// transaction so later transactions in the same block see earlier spends.
func (u *UTXOSet) ApplyTransaction(tx Transaction) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.applyTransactionLocked(tx)
}

// ApplyBlock atomically applies every transaction in block to the set.
func (u *UTXOSet) ApplyBlock(block Block) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, tx := range block.Transactions {
		u.applyTransactionLocked(tx)
	}
}

// RevertBlock is the inverse of ApplyBlock, used when replacing chains.
// spentByTx supplies, for each transaction (by txid), the outputs its
// inputs consumed — the caller (state.State) tracks this from the chain
// history it is unwinding.
func (u *UTXOSet) RevertBlock(block Block, spentByTx map[string]map[OutPoint]TxOutput) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for i := len(block.Transactions) - 1; i >= 0; i-- {
		tx := block.Transactions[i]
		u.revertTransactionLocked(tx, spentByTx[tx.TxID])
	}
}

// All returns every unspent outpoint and output in the set, for snapshotting.
func (u *UTXOSet) All() []struct {
	OutPoint OutPoint
	Output   TxOutput
} {
	u.mu.RLock()
	defer u.mu.RUnlock()

	result := make([]struct {
		OutPoint OutPoint
		Output   TxOutput
	}, 0, len(u.outs))
	for op, out := range u.outs {
		result = append(result, struct {
			OutPoint OutPoint
			Output   TxOutput
		}{OutPoint: op, Output: out})
	}
	return result
}

// Insert adds a single unspent output directly, used when restoring a set
// from a persisted snapshot.
func (u *UTXOSet) Insert(op OutPoint, out TxOutput) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.outs[op] = out
}

// SpentOutputs returns, for a transaction about to be applied, the outputs
// its non-coinbase inputs currently reference. Callers use this to build
// the spentByTx map RevertBlock needs before calling ApplyBlock.
func (u *UTXOSet) SpentOutputs(tx Transaction) map[OutPoint]TxOutput {
	u.mu.RLock()
	defer u.mu.RUnlock()

	spent := make(map[OutPoint]TxOutput)
	for _, in := range tx.Inputs {
		if in.IsCoinbase() {
			continue
		}
		if out, ok := u.outs[in.Previous]; ok {
			spent[in.Previous] = out
		}
	}
	return spent
}
