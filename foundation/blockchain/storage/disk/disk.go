// Package disk is a badger-backed storage.Storer implementation: blocks,
// UTXO snapshots, mempool contents, and peers all live as JSON values under
// namespaced keys in a single embedded key-value store.
package disk

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"

	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/peer"
)

// Storage is a badger-backed implementation of storage.Storer.
type Storage struct {
	db *badger.DB
}

var (
	blockPrefix   = []byte("block:")
	utxoKey       = []byte("utxo:snapshot")
	utxoHeightKey = []byte("utxo:height")
	mempoolKey    = []byte("mempool")
	peerPrefix    = []byte("peer:")
)

// Open opens (creating if necessary) a badger store rooted at dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil).WithSyncWrites(true)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store at %s: %w", dir, err)
	}

	return &Storage{db: db}, nil
}

// Close releases the underlying badger store.
func (s *Storage) Close() error {
	return s.db.Close()
}

func blockKey(index uint64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], index)
	return key
}

// SaveBlock writes block under its height key. Badger's write-ahead log
// makes the write durable once Update returns without error.
func (s *Storage) SaveBlock(block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blockKey(block.Header.Index), data)
	})
}

// LoadChain scans every stored block in height order.
func (s *Storage) LoadChain() ([]database.Block, error) {
	var blocks []database.Block

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = blockPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(blockPrefix); it.ValidForPrefix(blockPrefix); it.Next() {
			item := it.Item()
			if err := item.Value(func(val []byte) error {
				var b database.Block
				if err := json.Unmarshal(val, &b); err != nil {
					return err
				}
				blocks = append(blocks, b)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return blocks, nil
}

type utxoEntry struct {
	OutPoint database.OutPoint  `json:"outpoint"`
	Output   database.TxOutput `json:"output"`
}

// SaveUTXOSnapshot writes a full snapshot of utxo, replacing any previous
// one, along with the height it was taken at.
func (s *Storage) SaveUTXOSnapshot(height uint64, utxo *database.UTXOSet) error {
	entries := utxo.All()
	rows := make([]utxoEntry, len(entries))
	for i, e := range entries {
		rows[i] = utxoEntry{OutPoint: e.OutPoint, Output: e.Output}
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	heightBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(heightBuf, height)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(utxoKey, data); err != nil {
			return err
		}
		return txn.Set(utxoHeightKey, heightBuf)
	})
}

// LoadUTXOSnapshot reads back the last snapshot written by SaveUTXOSnapshot.
func (s *Storage) LoadUTXOSnapshot() (uint64, *database.UTXOSet, bool, error) {
	var (
		height uint64
		rows   []utxoEntry
		found  bool
	)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(utxoKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rows)
		}); err != nil {
			return err
		}

		hItem, err := txn.Get(utxoHeightKey)
		if err != nil {
			return err
		}
		return hItem.Value(func(val []byte) error {
			height = binary.BigEndian.Uint64(val)
			return nil
		})
	})
	if err != nil {
		return 0, nil, false, err
	}
	if rows == nil {
		return 0, nil, false, nil
	}
	found = true

	utxo := database.NewUTXOSet()
	for _, r := range rows {
		utxo.Insert(r.OutPoint, r.Output)
	}

	return height, utxo, found, nil
}

// SaveMempool overwrites the persisted mempool contents.
func (s *Storage) SaveMempool(txs []database.Transaction) error {
	data, err := json.Marshal(txs)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(mempoolKey, data)
	})
}

// LoadMempool reads back the persisted mempool contents.
func (s *Storage) LoadMempool() ([]database.Transaction, error) {
	var txs []database.Transaction

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(mempoolKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &txs)
		})
	})
	if err != nil {
		return nil, err
	}

	return txs, nil
}

// SavePeer records a peer under its own key so peers can be added
// incrementally without rewriting the whole set.
func (s *Storage) SavePeer(p peer.Peer) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(append(append([]byte{}, peerPrefix...), []byte(p.Host)...), nil)
	})
}

// LoadPeers scans every recorded peer.
func (s *Storage) LoadPeers() ([]peer.Peer, error) {
	var peers []peer.Peer

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = peerPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(peerPrefix); it.ValidForPrefix(peerPrefix); it.Next() {
			host := it.Item().Key()[len(peerPrefix):]
			peers = append(peers, peer.New(string(host)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return peers, nil
}
