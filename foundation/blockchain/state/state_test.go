package state_test

import (
	"context"
	"testing"

	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/genesis"
	"github.com/jolovicdev/kaidos/foundation/blockchain/peer"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
	"github.com/jolovicdev/kaidos/foundation/blockchain/state"
	"github.com/jolovicdev/kaidos/foundation/blockchain/storage/memory"
)

func testGenesis() genesis.Genesis {
	g := genesis.Default()
	g.InitialDifficulty = 1
	g.RetargetInterval = 10
	g.HalvingInterval = 4
	g.TransPerBlock = 100
	return g
}

func newTestState(t *testing.T, minerAddr signature.Address) *state.State {
	t.Helper()

	s, err := state.New(state.Config{
		MinerAddress: minerAddr,
		Host:         "node-under-test",
		Genesis:      testGenesis(),
		KnownPeers:   peer.NewPeerSet(0),
		Storage:      memory.New(),
		EvHandler:    func(string, ...any) {},
	})
	if err != nil {
		t.Fatalf("constructing state: %s", err)
	}
	return s
}

func newAddress(t *testing.T) (signature.PrivateKey, signature.Address) {
	t.Helper()

	priv, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}
	addr, err := signature.PublicKeyToAddress(priv.Public().String())
	if err != nil {
		t.Fatalf("deriving address: %s", err)
	}
	return priv, addr
}

func mineOneBlock(t *testing.T, s *state.State, ts float64) database.Block {
	t.Helper()

	ctx := state.WithTimestamp(context.Background(), ts)
	block, err := s.MineNewBlock(ctx)
	if err != nil {
		t.Fatalf("mining block: %s", err)
	}
	return block
}

// fundedState mines one coinbase-only block, crediting minerPriv's address
// with the genesis-height reward, and returns the state, key, address, and
// that coinbase transaction for the caller to spend.
func fundedState(t *testing.T) (*state.State, signature.PrivateKey, signature.Address, database.Transaction) {
	t.Helper()

	priv, addr := newAddress(t)
	s := newTestState(t, addr)

	block := mineOneBlock(t, s, 1)
	return s, priv, addr, block.Transactions[0]
}

func Test_MineRewardCreditsMinerBalance(t *testing.T) {
	_, minerAddr := newAddress(t)
	s := newTestState(t, minerAddr)

	block := mineOneBlock(t, s, 1)

	reward := s.Genesis().RewardAt(block.Header.Index)
	if got := s.Balance(minerAddr); got != reward {
		t.Fatalf("miner balance after mining a coinbase-only block: got %d want %d", got, reward)
	}

	if len(s.UTXOsFor(minerAddr)) != 1 {
		t.Fatalf("expected exactly one UTXO for the miner, got %d", len(s.UTXOsFor(minerAddr)))
	}
}

func Test_HalvingReducesReward(t *testing.T) {
	g := testGenesis()

	full := g.RewardAt(0)
	halved := g.RewardAt(g.HalvingInterval)
	quartered := g.RewardAt(g.HalvingInterval * 2)

	if halved != full/2 {
		t.Fatalf("expected reward to halve at height %d: got %d want %d", g.HalvingInterval, halved, full/2)
	}
	if quartered != full/4 {
		t.Fatalf("expected reward to quarter at height %d: got %d want %d", g.HalvingInterval*2, quartered, full/4)
	}
}

func Test_ReplaceChainRejectsShorterOrEqualChain(t *testing.T) {
	_, minerAddr := newAddress(t)
	s := newTestState(t, minerAddr)

	mineOneBlock(t, s, 1)

	sameLength := s.Blocks(0, s.Height()-1)
	if err := s.ReplaceChain(sameLength); err != state.ErrChainNotLonger {
		t.Fatalf("expected ErrChainNotLonger for an equal-length candidate, got %v", err)
	}

	shorter := s.Blocks(0, 0)
	if err := s.ReplaceChain(shorter); err != state.ErrChainNotLonger {
		t.Fatalf("expected ErrChainNotLonger for a shorter candidate, got %v", err)
	}
}

func Test_SendWithChangeCreditsReceiverAndChange(t *testing.T) {
	s, minerPriv, minerAddr, coinbase := fundedState(t)
	_, recvAddr := newAddress(t)

	half := coinbase.Outputs[0].Amount / 2
	spend := database.NewStandardTransaction(
		[]database.TxInput{{Previous: database.OutPoint{TxID: coinbase.TxID, Vout: 0}}},
		[]database.TxOutput{
			{Address: recvAddr, Amount: half},
			{Address: minerAddr, Amount: coinbase.Outputs[0].Amount - half - 1},
		},
		11,
	)
	if err := spend.SignInput(0, minerPriv); err != nil {
		t.Fatalf("signing spend: %s", err)
	}
	spend = spend.WithTxID()

	if err := s.SubmitTransaction(spend); err != nil {
		t.Fatalf("submitting spend: %s", err)
	}

	block := mineOneBlock(t, s, 12)
	if len(block.Transactions) != 2 {
		t.Fatalf("expected coinbase plus the one spend, got %d transactions", len(block.Transactions))
	}

	if got := s.Balance(recvAddr); got != half {
		t.Fatalf("receiver balance after spend: got %d want %d", got, half)
	}

	// The miner is also the sender, so its balance is the change output
	// plus the coinbase of the block that confirmed the spend.
	change := coinbase.Outputs[0].Amount - half - 1
	if got, want := s.Balance(minerAddr), change+block.Transactions[0].Outputs[0].Amount; got != want {
		t.Fatalf("sender balance after spend: got %d want %d", got, want)
	}
}

func Test_DoubleSpendSecondSubmissionRejected(t *testing.T) {
	s, minerPriv, _, coinbase := fundedState(t)
	_, recvA := newAddress(t)
	_, recvB := newAddress(t)

	build := func(to signature.Address, amount database.Amount, ts float64) database.Transaction {
		tx := database.NewStandardTransaction(
			[]database.TxInput{{Previous: database.OutPoint{TxID: coinbase.TxID, Vout: 0}}},
			[]database.TxOutput{{Address: to, Amount: amount}},
			ts,
		)
		if err := tx.SignInput(0, minerPriv); err != nil {
			t.Fatalf("signing: %s", err)
		}
		return tx.WithTxID()
	}

	txA := build(recvA, coinbase.Outputs[0].Amount/2, 11)
	txB := build(recvB, coinbase.Outputs[0].Amount/2, 12)

	if err := s.SubmitTransaction(txA); err != nil {
		t.Fatalf("first spend should be accepted: %s", err)
	}
	if err := s.SubmitTransaction(txB); err == nil {
		t.Fatal("expected the conflicting second spend to be rejected")
	}
}

func Test_ReplaceChainAdoptsLongerValidChain(t *testing.T) {
	_, addrX := newAddress(t)
	sx := newTestState(t, addrX)
	mineOneBlock(t, sx, 1)

	_, addrY := newAddress(t)
	sy := newTestState(t, addrY)
	mineOneBlock(t, sy, 1)
	mineOneBlock(t, sy, 2)
	mineOneBlock(t, sy, 3)

	longer := sy.Blocks(0, sy.Height()-1)
	if err := sx.ReplaceChain(longer); err != nil {
		t.Fatalf("expected the longer valid chain to be adopted: %s", err)
	}

	if sx.Height() != sy.Height() {
		t.Fatalf("expected heights to match after replacement: got %d want %d", sx.Height(), sy.Height())
	}
	if sx.Balance(addrY) != sy.Balance(addrY) {
		t.Fatalf("expected adopted chain's balances to match its source")
	}
}
