package state

import (
	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/genesis"
)

// Height returns the current chain length (genesis counts as height 1).
func (s *State) Height() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.chain))
}

// LatestBlock returns the current tip.
func (s *State) LatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain[len(s.chain)-1]
}

// Blocks returns a copy of the chain from index from to to, inclusive.
func (s *State) Blocks(from, to uint64) []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if from >= uint64(len(s.chain)) {
		return nil
	}
	if to >= uint64(len(s.chain)) {
		to = uint64(len(s.chain)) - 1
	}

	out := make([]database.Block, to-from+1)
	copy(out, s.chain[from:to+1])
	return out
}

// ReplaceChain validates candidate from its own genesis and, if it is both
// entirely valid and strictly longer than the current chain, replaces the
// current chain, UTXO set, and mempool with it atomically. The current
// state is left untouched on any failure.
func (s *State) ReplaceChain(candidate []database.Block) error {
	if len(candidate) == 0 {
		return ErrEmptyChain
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(candidate) <= len(s.chain) {
		return ErrChainNotLonger
	}

	newUTXO, spentByTx, err := validateChainFromGenesis(s.genesis, candidate)
	if err != nil {
		return err
	}

	s.chain = candidate
	s.utxo = newUTXO
	s.spentByTx = spentByTx

	s.pool.Reconcile(s.utxo)

	if s.storage != nil {
		for _, block := range candidate {
			_ = s.storage.SaveBlock(block)
		}
	}

	return nil
}

// validateChainFromGenesis replays candidate from its own genesis block,
// re-deriving each block's expected difficulty and reward and running it
// through database.ValidateBlock exactly as ReplaceChain and state.New's
// recovery path both need to. It returns the UTXO set the chain implies and
// the per-transaction spent-outputs record ReplaceChain and New both keep
// around for reorg bookkeeping.
func validateChainFromGenesis(g genesis.Genesis, candidate []database.Block) (*database.UTXOSet, map[string]map[database.OutPoint]database.TxOutput, error) {
	newUTXO := database.NewUTXOSet()
	spentByTx := make(map[string]map[database.OutPoint]database.TxOutput)
	difficulty := g.InitialDifficulty

	for i, block := range candidate {
		if i == 0 {
			// The genesis block is fixed by the network's shared
			// configuration, not reconstructed from a "previous" block.
			expectedGenesis, err := g.Block()
			if err != nil {
				return nil, nil, err
			}
			if block.Header.Index != 0 ||
				block.Header.PreviousHash != expectedGenesis.Header.PreviousHash ||
				block.Header.MerkleRoot != expectedGenesis.Header.MerkleRoot {
				return nil, nil, database.ErrBadBlockLink
			}
			if !database.IsHashSolved(block.Header.Difficulty, block.Hash()) {
				return nil, nil, database.ErrBadPoW
			}
			for _, tx := range block.Transactions {
				spentByTx[tx.TxID] = newUTXO.SpentOutputs(tx)
				newUTXO.ApplyTransaction(tx)
			}
			continue
		}

		difficulty = retargetAt(g, candidate, uint64(i), difficulty)
		reward := g.RewardAt(uint64(i))

		if err := database.ValidateBlock(block, candidate[i-1], difficulty, reward, newUTXO); err != nil {
			return nil, nil, err
		}
		for _, tx := range block.Transactions {
			spentByTx[tx.TxID] = newUTXO.SpentOutputs(tx)
			newUTXO.ApplyTransaction(tx)
		}
	}

	return newUTXO, spentByTx, nil
}

// retargetAt recomputes the difficulty active at height i of a candidate
// chain, mirroring currentDifficultyLocked's retarget rule exactly:
// currentDifficultyLocked applies the adjustment spanning chain[boundary-interval:boundary]
// to the first block after boundary, i.e. block boundary+1, not to block
// boundary itself. retargetAt must attribute the adjustment to the same
// block or the append/mine path and the ReplaceChain path disagree at
// every retarget boundary.
func retargetAt(g genesis.Genesis, chain []database.Block, i uint64, previous uint) uint {
	interval := g.RetargetInterval
	if interval == 0 {
		return previous
	}

	boundary := i - 1
	if boundary == 0 || boundary%interval != 0 {
		return previous
	}

	start := chain[boundary-interval]
	end := chain[boundary]

	actual := end.Header.Timestamp - start.Header.Timestamp
	target := g.TargetBlockTime * float64(interval)

	switch {
	case actual < target/2 && previous < 255:
		return previous + 1
	case actual > target*2 && previous > minDifficulty:
		return previous - 1
	default:
		return previous
	}
}
