package state

import (
	"context"

	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
)

// MineNewBlock attempts to build and solve a new block from the best
// transactions currently in the mempool. An empty mempool still produces a
// valid coinbase-only block, exactly as a real miner keeps producing blocks
// between transactions. It can be cancelled through ctx; a cancellation
// returns database.ErrMiningCanceled.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	return s.mineNewBlockTo(ctx, s.minerAddress)
}

// MineNewBlockTo is MineNewBlock with the coinbase reward paid to addr
// instead of the node's configured miner address, for an operator-triggered
// mining pass on behalf of a wallet.
func (s *State) MineNewBlockTo(ctx context.Context, addr signature.Address) (database.Block, error) {
	return s.mineNewBlockTo(ctx, addr)
}

func (s *State) mineNewBlockTo(ctx context.Context, minerAddress signature.Address) (database.Block, error) {
	s.evHandler("state: MineNewBlock: assembling candidate")

	s.mu.RLock()
	previous := s.chain[len(s.chain)-1]
	difficulty := s.currentDifficultyLocked()
	reward := s.genesis.RewardAt(uint64(len(s.chain)))
	s.mu.RUnlock()

	trans := s.pool.Take(s.genesis.TransPerBlock)

	fees, err := feesFor(trans, s.utxo)
	if err != nil {
		return database.Block{}, err
	}

	nonce, err := signature.RandomNonce(8)
	if err != nil {
		return database.Block{}, err
	}
	coinbase := database.NewCoinbaseTransaction(minerAddress, reward+fees, nowFromCaller(ctx, previous), nonce)

	txs := append([]database.Transaction{coinbase}, trans...)

	s.evHandler("state: MineNewBlock: assembling candidate: height[%d] difficulty[%d] txs[%d]", previous.Header.Index+1, difficulty, len(txs))

	block, err := database.NewBlock(previous, txs, difficulty, coinbase.Timestamp)
	if err != nil {
		return database.Block{}, err
	}

	if err := block.Mine(ctx, ^uint64(0)); err != nil {
		return database.Block{}, err
	}

	if ctx.Err() != nil {
		return database.Block{}, database.ErrMiningCanceled
	}

	s.evHandler("state: MineNewBlock: solved: hash[%s]", block.Hash())

	if err := s.applyValidatedBlock(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// nowFromCaller derives a candidate block timestamp. Real wall-clock time
// belongs to the caller (worker), not to state, since state must remain
// free of nondeterministic calls to stay unit-testable; callers that don't
// supply one via context fall back to one tick past the previous block.
func nowFromCaller(ctx context.Context, previous database.Block) float64 {
	if ts, ok := ctx.Value(timestampKey{}).(float64); ok {
		return ts
	}
	return previous.Header.Timestamp + 1
}

// timestampKey is the context key MineNewBlock looks for a caller-supplied
// timestamp under.
type timestampKey struct{}

// WithTimestamp attaches a wall-clock timestamp to ctx for MineNewBlock to
// stamp the candidate block and its coinbase with.
func WithTimestamp(ctx context.Context, ts float64) context.Context {
	return context.WithValue(ctx, timestampKey{}, ts)
}

// feesFor computes the total fee a set of transactions would yield against
// utxo, in the same order ValidateBlock will later re-verify them. The
// miner needs this up front to size the coinbase output it commits to.
func feesFor(trans []database.Transaction, utxo *database.UTXOSet) (database.Amount, error) {
	scratch := utxo.Clone()
	spentInContext := make(map[database.OutPoint]bool)

	var total database.Amount
	for _, tx := range trans {
		fee, err := database.VerifyStandardTransaction(tx, scratch, spentInContext)
		if err != nil {
			return 0, err
		}
		total += fee
		scratch.ApplyTransaction(tx)
	}
	return total, nil
}

// ProcessProposedBlock validates a block received from a peer and, if it
// extends the current tip, applies it exactly like a locally mined block.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: prev[%s] new[%s] txs[%d]", block.Header.PreviousHash, block.Hash(), len(block.Transactions))

	if err := s.applyValidatedBlock(block); err != nil {
		return err
	}

	if s.Worker != nil {
		done := s.Worker.SignalCancelMining()
		defer done()
	}

	return nil
}

// applyValidatedBlock validates block against the current tip and, if
// valid, persists it, then appends it to the chain, updates the UTXO set,
// and evicts its transactions from the mempool. A failed save rejects the
// block and leaves the in-memory state untouched.
func (s *State) applyValidatedBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.chain) == 0 {
		return ErrEmptyChain
	}

	previous := s.chain[len(s.chain)-1]
	difficulty := s.currentDifficultyLocked()
	reward := s.genesis.RewardAt(block.Header.Index)

	if err := database.ValidateBlock(block, previous, difficulty, reward, s.utxo); err != nil {
		return err
	}

	if s.storage != nil {
		if err := s.storage.SaveBlock(block); err != nil {
			return err
		}
	}

	for _, tx := range block.Transactions {
		s.spentByTx[tx.TxID] = s.utxo.SpentOutputs(tx)
	}
	s.utxo.ApplyBlock(block)
	s.chain = append(s.chain, block)

	for _, tx := range block.Transactions {
		s.pool.Delete(tx.TxID)
	}
	s.pool.Reconcile(s.utxo)

	return nil
}

// SubmitTransaction validates and inserts tx into the mempool.
func (s *State) SubmitTransaction(tx database.Transaction) error {
	s.mu.RLock()
	utxo := s.utxo
	s.mu.RUnlock()

	if err := s.pool.Submit(tx, utxo); err != nil {
		return err
	}

	if s.Worker != nil {
		s.Worker.SignalShareTx(tx)
		s.Worker.SignalStartMining()
	}

	return nil
}
