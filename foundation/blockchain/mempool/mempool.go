// Package mempool maintains the set of validated, unconfirmed transactions
// waiting to be mined into a block.
package mempool

import (
	"errors"
	"sort"
	"sync"

	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
)

// ErrAlreadyInPool reports that a txid is already held. Submit never
// returns it: resubmitting a held txid is a no-op that returns nil.
var ErrAlreadyInPool = errors.New("transaction already in mempool")

// entry pairs a transaction with the sequence number it arrived at, so
// Take can break fee ties by arrival order (oldest first).
type entry struct {
	tx       database.Transaction
	fee      database.Amount
	sequence uint64
}

// Mempool is a thread-safe cache of standard transactions that have passed
// UTXO validation against the tip but are not yet part of a mined block.
type Mempool struct {
	mu       sync.RWMutex
	pool     map[string]entry
	nextSeq  uint64
}

// New constructs an empty mempool.
func New() *Mempool {
	return &Mempool{pool: make(map[string]entry)}
}

// Count returns the number of transactions currently held.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// IsMember reports whether a txid is already held.
func (mp *Mempool) IsMember(txid string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, ok := mp.pool[txid]
	return ok
}

// Submit validates tx against utxo — checking every other pool member's
// tentative spends as well, so two pool transactions can never spend the
// same outpoint — and inserts it if valid. Resubmitting an already-held
// txid is a no-op that returns nil, not an error. A tx that conflicts with
// one already in the pool is rejected with ErrDoubleSpendInMempool, kept
// distinct from database.ErrDoubleSpendInBlock which covers a conflict
// within a single transaction or block.
func (mp *Mempool) Submit(tx database.Transaction, utxo *database.UTXOSet) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, ok := mp.pool[tx.TxID]; ok {
		return nil
	}

	tentative := mp.tentativeSpendsLocked()
	for _, in := range tx.Inputs {
		if !in.IsCoinbase() && tentative[in.Previous] {
			return database.ErrDoubleSpendInMempool
		}
	}

	fee, err := database.VerifyStandardTransaction(tx, utxo, make(map[database.OutPoint]bool))
	if err != nil {
		return err
	}

	mp.pool[tx.TxID] = entry{tx: tx, fee: fee, sequence: mp.nextSeq}
	mp.nextSeq++

	return nil
}

// tentativeSpendsLocked returns the set of outpoints already claimed by
// transactions in the pool. Caller must hold mp.mu.
func (mp *Mempool) tentativeSpendsLocked() map[database.OutPoint]bool {
	spent := make(map[database.OutPoint]bool)
	for _, e := range mp.pool {
		for _, in := range e.tx.Inputs {
			if !in.IsCoinbase() {
				spent[in.Previous] = true
			}
		}
	}
	return spent
}

// Delete removes a transaction from the pool, if present.
func (mp *Mempool) Delete(txid string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, txid)
}

// Truncate empties the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]entry)
}

// Take returns up to max transactions ordered by fee descending, breaking
// ties by arrival order ascending — the order a miner should pack them into
// a candidate block.
func (mp *Mempool) Take(max int) []database.Transaction {
	mp.mu.RLock()
	entries := make([]entry, 0, len(mp.pool))
	for _, e := range mp.pool {
		entries = append(entries, e)
	}
	mp.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].fee != entries[j].fee {
			return entries[i].fee > entries[j].fee
		}
		return entries[i].sequence < entries[j].sequence
	})

	if max >= 0 && max < len(entries) {
		entries = entries[:max]
	}

	txs := make([]database.Transaction, len(entries))
	for i, e := range entries {
		txs[i] = e.tx
	}
	return txs
}

// Reconcile is called after the chain tip changes (a new block was mined or
// accepted, or the chain was replaced). Every pool transaction is
// re-validated against the new UTXO snapshot; anything that no longer
// verifies — because one of its inputs was consumed by the new tip, or a
// chain replacement unwound the transaction that funded it — is evicted.
func (mp *Mempool) Reconcile(utxo *database.UTXOSet) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	spentInContext := make(map[database.OutPoint]bool)
	for txid, e := range mp.pool {
		if _, err := database.VerifyStandardTransaction(e.tx, utxo, spentInContext); err != nil {
			delete(mp.pool, txid)
		}
	}
}
