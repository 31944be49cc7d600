// Package state is the core API for the blockchain: it owns the canonical
// chain, the UTXO set derived from it, and the mempool of pending
// transactions, and implements the consensus rules that keep them
// consistent.
package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/jolovicdev/kaidos/foundation/blockchain/consensus"
	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/genesis"
	"github.com/jolovicdev/kaidos/foundation/blockchain/mempool"
	"github.com/jolovicdev/kaidos/foundation/blockchain/peer"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
	"github.com/jolovicdev/kaidos/foundation/blockchain/storage"
)

// EventHandler is called as the state machine makes progress, so a caller
// can log or forward events without state depending on a logger directly.
type EventHandler func(v string, args ...any)

// Worker is the behavior state expects from whatever package drives mining,
// peer synchronization, and transaction gossip in the background.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
	SignalShareTx(tx database.Transaction)
}

// Config carries everything New needs to bring up a node's state.
type Config struct {
	MinerAddress signature.Address
	Host         string
	Genesis      genesis.Genesis
	KnownPeers   *peer.PeerSet
	Storage      storage.Storer
	EvHandler    EventHandler
}

// State owns the chain, UTXO set, and mempool, and enforces that all three
// only ever change together.
type State struct {
	mu sync.RWMutex

	minerAddress signature.Address
	host         string
	genesis      genesis.Genesis
	knownPeers   *peer.PeerSet
	storage      storage.Storer
	evHandler    EventHandler

	chain []database.Block
	utxo  *database.UTXOSet
	pool  *mempool.Mempool

	// spentByTx records, for every applied transaction, the outputs its
	// inputs consumed. ReplaceChain does not unwind through it: it rebuilds
	// the UTXO set from the candidate's genesis and replaces this record
	// with the one that rebuild produces.
	spentByTx map[string]map[database.OutPoint]database.TxOutput

	Worker Worker
}

// New constructs state, loading any persisted chain from storage and
// replaying it to rebuild the UTXO set, or minting a fresh genesis block if
// storage is empty.
func New(cfg Config) (*State, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	s := State{
		minerAddress: cfg.MinerAddress,
		host:         cfg.Host,
		genesis:      cfg.Genesis,
		knownPeers:   cfg.KnownPeers,
		storage:      cfg.Storage,
		evHandler:    ev,
		pool:         mempool.New(),
	}

	blocks, err := cfg.Storage.LoadChain()
	if err != nil {
		return nil, err
	}

	if len(blocks) == 0 {
		genesisBlock, err := cfg.Genesis.Block()
		if err != nil {
			return nil, err
		}
		if err := genesisBlock.Mine(context.Background(), ^uint64(0)); err != nil {
			return nil, err
		}
		blocks = []database.Block{genesisBlock}
		if err := cfg.Storage.SaveBlock(genesisBlock); err != nil {
			return nil, err
		}
	}

	utxo, spentByTx, err := validateChainFromGenesis(cfg.Genesis, blocks)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", database.ErrStorageCorrupt, err)
	}
	s.utxo = utxo
	s.spentByTx = spentByTx
	s.chain = blocks

	if peers, err := cfg.Storage.LoadPeers(); err != nil {
		ev("state: New: WARNING: loading persisted peers: %s", err)
	} else {
		for _, p := range peers {
			if _, err := cfg.KnownPeers.Add(p); err != nil {
				ev("state: New: WARNING: restoring peer[%s]: %s", p.Host, err)
			}
		}
	}

	if txs, err := cfg.Storage.LoadMempool(); err != nil {
		ev("state: New: WARNING: loading persisted mempool: %s", err)
	} else {
		for _, tx := range txs {
			// A tx persisted before shutdown may no longer verify against
			// the current UTXO set if the chain moved past its inputs while
			// the mempool file was stale; drop it rather than fail startup.
			if err := s.pool.Submit(tx, s.utxo); err != nil {
				ev("state: New: WARNING: dropping stale mempool tx[%s]: %s", tx.TxID, err)
			}
		}
	}

	return &s, nil
}

// Shutdown stops background work and persists final state.
func (s *State) Shutdown() error {
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	if s.storage != nil {
		if err := s.storage.SaveMempool(s.pool.Take(-1)); err != nil {
			s.evHandler("state: Shutdown: WARNING: persisting mempool failed: %s", err)
		}
	}

	return nil
}

// MinerAddress returns the address credited with mined block rewards.
func (s *State) MinerAddress() signature.Address {
	return s.minerAddress
}

// KnownPeers returns the node's peer set.
func (s *State) KnownPeers() *peer.PeerSet {
	return s.knownPeers
}

// AddKnownPeer records p as known and, if it was newly added, persists it
// so it survives a restart. Callers that already hold a peer.Peer discovered
// through the API or peer-sync gossip should go through this rather than
// KnownPeers().Add directly, or the peer is silently forgotten on restart.
func (s *State) AddKnownPeer(p peer.Peer) (bool, error) {
	added, err := s.knownPeers.Add(p)
	if err != nil {
		return false, err
	}

	if added && s.storage != nil {
		if err := s.storage.SavePeer(p); err != nil {
			s.evHandler("state: AddKnownPeer: WARNING: persist failed: %s", err)
		}
	}

	return added, nil
}

// Genesis returns the chain's fixed genesis parameters.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// RunConsensus executes one round of the replace-chain protocol against
// this node's known peers, adopting the longest strictly-longer valid
// chain if one is found.
func (s *State) RunConsensus(ev consensus.EventHandler) consensus.Result {
	return consensus.Run(s, s.knownPeers.Cap(), ev)
}
