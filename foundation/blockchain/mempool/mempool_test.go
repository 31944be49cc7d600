package mempool_test

import (
	"testing"

	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/mempool"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
)

func newFundedSender(t *testing.T, utxo *database.UTXOSet, amount database.Amount) (signature.PrivateKey, signature.Address, database.OutPoint) {
	t.Helper()

	priv, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}
	addr, err := signature.PublicKeyToAddress(priv.Public().String())
	if err != nil {
		t.Fatalf("deriving address: %s", err)
	}

	coinbase := database.NewCoinbaseTransaction(addr, amount, 1, []byte("seed"))
	utxo.ApplyBlock(database.Block{Transactions: []database.Transaction{coinbase}})

	return priv, addr, database.OutPoint{TxID: coinbase.TxID, Vout: 0}
}

func buildSpend(t *testing.T, priv signature.PrivateKey, from database.OutPoint, to signature.Address, amount database.Amount, ts float64) database.Transaction {
	t.Helper()

	tx := database.NewStandardTransaction(
		[]database.TxInput{{Previous: from}},
		[]database.TxOutput{{Address: to, Amount: amount}},
		ts,
	)
	if err := tx.SignInput(0, priv); err != nil {
		t.Fatalf("signing: %s", err)
	}
	return tx.WithTxID()
}

func Test_SubmitAcceptsValidTransaction(t *testing.T) {
	utxo := database.NewUTXOSet()
	priv, _, spend := newFundedSender(t, utxo, 10*database.UnitsPerCoin)
	_, recv, _ := newFundedSender(t, utxo, 0)

	tx := buildSpend(t, priv, spend, recv, 5*database.UnitsPerCoin, 2)

	mp := mempool.New()
	if err := mp.Submit(tx, utxo); err != nil {
		t.Fatalf("expected submit to succeed, got %s", err)
	}
	if mp.Count() != 1 {
		t.Fatalf("expected 1 transaction in pool, got %d", mp.Count())
	}
}

func Test_SubmitIsIdempotent(t *testing.T) {
	utxo := database.NewUTXOSet()
	priv, _, spend := newFundedSender(t, utxo, 10*database.UnitsPerCoin)
	_, recv, _ := newFundedSender(t, utxo, 0)

	tx := buildSpend(t, priv, spend, recv, 5*database.UnitsPerCoin, 2)

	mp := mempool.New()
	if err := mp.Submit(tx, utxo); err != nil {
		t.Fatalf("first submit: %s", err)
	}
	if err := mp.Submit(tx, utxo); err != nil {
		t.Fatalf("resubmit should be a no-op, got error: %s", err)
	}
	if mp.Count() != 1 {
		t.Fatalf("expected 1 transaction after resubmit, got %d", mp.Count())
	}
}

func Test_SubmitRejectsConflictWithPoolMember(t *testing.T) {
	utxo := database.NewUTXOSet()
	priv, _, spend := newFundedSender(t, utxo, 10*database.UnitsPerCoin)
	_, recvA, _ := newFundedSender(t, utxo, 0)
	_, recvB, _ := newFundedSender(t, utxo, 0)

	txA := buildSpend(t, priv, spend, recvA, 5*database.UnitsPerCoin, 2)
	txB := buildSpend(t, priv, spend, recvB, 3*database.UnitsPerCoin, 3)

	mp := mempool.New()
	if err := mp.Submit(txA, utxo); err != nil {
		t.Fatalf("first spend should verify, got %s", err)
	}
	if err := mp.Submit(txB, utxo); err != database.ErrDoubleSpendInMempool {
		t.Fatalf("expected conflicting spend to be rejected, got %v", err)
	}
	if mp.Count() != 1 {
		t.Fatalf("expected only the first spend to remain, got %d", mp.Count())
	}
}

func Test_TakeOrdersByFeeDescendingThenArrival(t *testing.T) {
	utxo := database.NewUTXOSet()
	priv1, _, spend1 := newFundedSender(t, utxo, 10*database.UnitsPerCoin)
	priv2, _, spend2 := newFundedSender(t, utxo, 10*database.UnitsPerCoin)
	priv3, _, spend3 := newFundedSender(t, utxo, 10*database.UnitsPerCoin)
	_, recv, _ := newFundedSender(t, utxo, 0)

	lowFee := buildSpend(t, priv1, spend1, recv, 10*database.UnitsPerCoin-1, 2)
	highFee := buildSpend(t, priv2, spend2, recv, 5*database.UnitsPerCoin, 3)
	sameFeeAsHighButLater := buildSpend(t, priv3, spend3, recv, 5*database.UnitsPerCoin, 4)

	mp := mempool.New()
	for _, tx := range []database.Transaction{lowFee, highFee, sameFeeAsHighButLater} {
		if err := mp.Submit(tx, utxo); err != nil {
			t.Fatalf("submit: %s", err)
		}
	}

	ordered := mp.Take(-1)
	if len(ordered) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(ordered))
	}
	if ordered[0].TxID != highFee.TxID {
		t.Fatalf("expected highest-fee transaction first, got %s", ordered[0].TxID)
	}
	if ordered[1].TxID != sameFeeAsHighButLater.TxID {
		t.Fatalf("expected earlier-arriving equal-fee transaction before the later one")
	}
	if ordered[2].TxID != lowFee.TxID {
		t.Fatalf("expected lowest-fee transaction last, got %s", ordered[2].TxID)
	}
}

func Test_ReconcileEvictsSpentInputs(t *testing.T) {
	utxo := database.NewUTXOSet()
	priv, _, spend := newFundedSender(t, utxo, 10*database.UnitsPerCoin)
	_, recv, _ := newFundedSender(t, utxo, 0)

	tx := buildSpend(t, priv, spend, recv, 5*database.UnitsPerCoin, 2)

	mp := mempool.New()
	if err := mp.Submit(tx, utxo); err != nil {
		t.Fatalf("submit: %s", err)
	}

	utxo.ApplyBlock(database.Block{Transactions: []database.Transaction{tx}})
	mp.Reconcile(utxo)

	if mp.Count() != 0 {
		t.Fatalf("expected mined transaction to be evicted, got %d remaining", mp.Count())
	}
}
