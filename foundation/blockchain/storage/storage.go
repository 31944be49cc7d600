// Package storage defines the persistence contract a node's state relies
// on: the chain of blocks, a UTXO snapshot for fast restart, the mempool
// contents, and the set of known peers.
package storage

import (
	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/peer"
)

// Storer is implemented by every persistence backend a node can use.
// Implementations must make SaveBlock durable before returning, since state
// treats a successful save as a commit point.
type Storer interface {
	// SaveBlock appends block to durable storage.
	SaveBlock(block database.Block) error

	// LoadChain returns every previously saved block in height order. An
	// empty, non-error result means storage is empty and state should mint
	// a fresh genesis block.
	LoadChain() ([]database.Block, error)

	// SaveUTXOSnapshot persists a UTXO set snapshot keyed by the tip height
	// it was computed at, so a restart can skip replaying the whole chain.
	SaveUTXOSnapshot(height uint64, utxo *database.UTXOSet) error

	// LoadUTXOSnapshot returns the most recent snapshot and the height it
	// was taken at, or ok=false if none exists.
	LoadUTXOSnapshot() (height uint64, utxo *database.UTXOSet, ok bool, err error)

	// SaveMempool persists the current mempool contents.
	SaveMempool(txs []database.Transaction) error

	// LoadMempool returns the persisted mempool contents, if any.
	LoadMempool() ([]database.Transaction, error)

	// SavePeer records a peer as known.
	SavePeer(p peer.Peer) error

	// LoadPeers returns every previously recorded peer.
	LoadPeers() ([]peer.Peer, error)

	// Close releases any resources held by the backend.
	Close() error
}
