package state

import (
	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
)

// Balance returns the total confirmed balance for an address.
func (s *State) Balance(addr signature.Address) database.Amount {
	s.mu.RLock()
	utxo := s.utxo
	s.mu.RUnlock()

	return utxo.Balance(addr)
}

// UTXOsFor returns every unspent output paying an address.
func (s *State) UTXOsFor(addr signature.Address) []struct {
	OutPoint database.OutPoint
	Output   database.TxOutput
} {
	s.mu.RLock()
	utxo := s.utxo
	s.mu.RUnlock()

	return utxo.ByAddress(addr)
}

// MempoolCount returns the number of pending transactions.
func (s *State) MempoolCount() int {
	return s.pool.Count()
}

// MempoolTransactions returns up to max pending transactions, best fee first.
func (s *State) MempoolTransactions(max int) []database.Transaction {
	return s.pool.Take(max)
}
