package database

import (
	"context"
	"encoding/json"

	"github.com/jolovicdev/kaidos/foundation/blockchain/merkle"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
)

// cancelCheckInterval is how often, in nonce attempts, the mining loop
// checks for cancellation (§5: at least once per 2^16 attempts).
const cancelCheckInterval = 1 << 16

// BlockHeader carries the fields committed to by the block hash.
type BlockHeader struct {
	Index        uint64  `json:"index"`
	PreviousHash string  `json:"previous_hash"`
	Timestamp    float64 `json:"timestamp"`
	MerkleRoot   string  `json:"merkle_root"`
	Difficulty   uint    `json:"difficulty"`
	Nonce        uint64  `json:"nonce"`
}

// Block is a header plus the transactions it commits to.
type Block struct {
	Header       BlockHeader   `json:"header"`
	Transactions []Transaction `json:"transactions"`
}

// Hash returns the hex SHA-256 hash of the block header's canonical form.
func (b Block) Hash() string {
	data, err := json.Marshal(b.Header)
	if err != nil {
		return signature.ZeroHash
	}
	return signature.HashBytes(data)
}

// merkleRoot computes the merkle root over this block's transaction ids.
func merkleRoot(transactions []Transaction) (string, error) {
	txids := make([]string, len(transactions))
	for i, tx := range transactions {
		txids[i] = tx.TxID
	}

	tree, err := merkle.New(txids)
	if err != nil {
		return "", err
	}
	return tree.Root(), nil
}

// NewBlock assembles an unsolved candidate block: the header is complete
// except for Nonce, which Mine must find.
func NewBlock(previous Block, transactions []Transaction, difficulty uint, timestamp float64) (Block, error) {
	root, err := merkleRoot(transactions)
	if err != nil {
		return Block{}, err
	}

	b := Block{
		Header: BlockHeader{
			Index:        previous.Header.Index + 1,
			PreviousHash: previous.Hash(),
			Timestamp:    timestamp,
			MerkleRoot:   root,
			Difficulty:   difficulty,
			Nonce:        0,
		},
		Transactions: transactions,
	}

	return b, nil
}

// NewGenesisBlock assembles the fixed genesis candidate: index 0, the zero
// previous hash, and a single zero-value coinbase to the reserved address.
// The caller must still call Mine to find a nonce satisfying difficulty.
func NewGenesisBlock(reservedAddr signature.Address, difficulty uint, timestamp float64) (Block, error) {
	coinbase := NewCoinbaseTransaction(reservedAddr, 0, timestamp, []byte("genesis"))

	root, err := merkleRoot([]Transaction{coinbase})
	if err != nil {
		return Block{}, err
	}

	b := Block{
		Header: BlockHeader{
			Index:        0,
			PreviousHash: signature.ZeroHash,
			Timestamp:    timestamp,
			MerkleRoot:   root,
			Difficulty:   difficulty,
			Nonce:        0,
		},
		Transactions: []Transaction{coinbase},
	}

	return b, nil
}

// Mine scans Nonce from 0 upward until the block's hash has Difficulty
// leading hex zeros, or maxNonce attempts are exhausted. The context is
// checked at least once every 2^16 attempts so mining is cancellable.
func (b *Block) Mine(ctx context.Context, maxNonce uint64) error {
	for nonce := uint64(0); nonce <= maxNonce; nonce++ {
		if nonce%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return ErrMiningCanceled
			}
		}

		b.Header.Nonce = nonce
		if isHashSolved(b.Header.Difficulty, b.Hash()) {
			return nil
		}
	}

	return ErrMiningStalled
}

// IsHashSolved reports whether hash satisfies the given proof-of-work
// difficulty. Exported so callers validating a chain's genesis block in
// isolation (outside ValidateBlock's link-to-previous checks) can reuse it.
func IsHashSolved(difficulty uint, hash string) bool {
	return isHashSolved(difficulty, hash)
}

// isHashSolved reports whether hash has at least difficulty leading hex
// zero characters.
func isHashSolved(difficulty uint, hash string) bool {
	if int(difficulty) > len(hash) {
		return false
	}
	for i := uint(0); i < difficulty; i++ {
		if hash[i] != '0' {
			return false
		}
	}
	return true
}

// ValidateBlock checks block against the chain rules in §4.6:
//   - links to previous by hash and sequential index
//   - hash satisfies the proof-of-work difficulty
//   - merkle root matches the transaction list
//   - the first transaction is the block's unique coinbase, and it does not
//     overpay the reward plus the fees actually collected from the rest of
//     the block, verified while applying each standard transaction's
//     effects to a scratch UTXO snapshot in order — this is what catches
//     an intra-block double-spend
//   - timestamp is non-decreasing relative to previous
func ValidateBlock(block, previous Block, expectedDifficulty uint, expectedReward Amount, utxo *UTXOSet) error {
	if block.Header.Index != previous.Header.Index+1 {
		return ErrBadBlockLink
	}
	if block.Header.PreviousHash != previous.Hash() {
		return ErrBadBlockLink
	}

	if !isHashSolved(expectedDifficulty, block.Hash()) {
		return ErrBadPoW
	}

	root, err := merkleRoot(block.Transactions)
	if err != nil || root != block.Header.MerkleRoot {
		return ErrBadMerkleRoot
	}

	if block.Header.Timestamp < previous.Header.Timestamp {
		return ErrBadTimestamp
	}

	if len(block.Transactions) == 0 || !block.Transactions[0].IsCoinbase() {
		return ErrBadCoinbase
	}

	scratch := utxo.Clone()
	spentInContext := make(map[OutPoint]bool)

	var collectedFees Amount
	for _, tx := range block.Transactions[1:] {
		if tx.IsCoinbase() {
			return ErrUnexpectedCoinbase
		}

		fee, err := VerifyStandardTransaction(tx, scratch, spentInContext)
		if err != nil {
			return err
		}
		collectedFees += fee

		scratch.ApplyTransaction(tx)
	}

	if err := VerifyCoinbaseTransaction(block.Transactions[0], expectedReward, collectedFees); err != nil {
		return ErrBadCoinbase
	}

	return nil
}
