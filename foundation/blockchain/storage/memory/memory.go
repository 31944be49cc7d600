// Package memory is an in-process storage.Storer backend: nothing survives
// a restart, which is enough for tests and ephemeral development nodes.
package memory

import (
	"sync"

	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/peer"
)

// Storage is an in-memory implementation of storage.Storer.
type Storage struct {
	mu sync.Mutex

	blocks  []database.Block
	utxo    *database.UTXOSet
	height  uint64
	hasUTXO bool
	mempool []database.Transaction
	peers   map[peer.Peer]struct{}
}

// New constructs an empty in-memory store.
func New() *Storage {
	return &Storage{peers: make(map[peer.Peer]struct{})}
}

// SaveBlock appends block to the in-memory chain.
func (s *Storage) SaveBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blocks = append(s.blocks, block)
	return nil
}

// LoadChain returns every block saved so far.
func (s *Storage) LoadChain() ([]database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]database.Block, len(s.blocks))
	copy(out, s.blocks)
	return out, nil
}

// SaveUTXOSnapshot replaces the stored snapshot.
func (s *Storage) SaveUTXOSnapshot(height uint64, utxo *database.UTXOSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.height = height
	s.utxo = utxo.Clone()
	s.hasUTXO = true
	return nil
}

// LoadUTXOSnapshot returns the stored snapshot, if any.
func (s *Storage) LoadUTXOSnapshot() (uint64, *database.UTXOSet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasUTXO {
		return 0, nil, false, nil
	}
	return s.height, s.utxo.Clone(), true, nil
}

// SaveMempool replaces the stored mempool contents.
func (s *Storage) SaveMempool(txs []database.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mempool = append([]database.Transaction(nil), txs...)
	return nil
}

// LoadMempool returns the stored mempool contents.
func (s *Storage) LoadMempool() ([]database.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]database.Transaction, len(s.mempool))
	copy(out, s.mempool)
	return out, nil
}

// SavePeer records a peer as known.
func (s *Storage) SavePeer(p peer.Peer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.peers[p] = struct{}{}
	return nil
}

// LoadPeers returns every recorded peer.
func (s *Storage) LoadPeers() ([]peer.Peer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]peer.Peer, 0, len(s.peers))
	for p := range s.peers {
		out = append(out, p)
	}
	return out, nil
}

// Close is a no-op for the in-memory backend.
func (s *Storage) Close() error {
	return nil
}
