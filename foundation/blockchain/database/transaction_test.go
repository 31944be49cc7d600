package database_test

import (
	"testing"

	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
)

func newKeyAndAddress(t *testing.T) (signature.PrivateKey, signature.Address) {
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

func Test_TxidIsPureFunctionOfContent(t *testing.T) {
	_, addrA := newKeyAndAddress(t)
	_, addrB := newKeyAndAddress(t)

	tx := database.NewStandardTransaction(
		[]database.TxInput{{Previous: database.OutPoint{TxID: "deadbeef", Vout: 0}}},
		[]database.TxOutput{{Address: addrA, Amount: 10}, {Address: addrB, Amount: 5}},
		1000,
	)

	if tx.TxID != tx.ComputeTxID() {
		t.Fatalf("txid %s does not match recomputed hash %s", tx.TxID, tx.ComputeTxID())
	}

	mutated := tx
	mutated.Outputs = append([]database.TxOutput{}, tx.Outputs...)
	mutated.Outputs[0].Amount = 11
	if mutated.ComputeTxID() == tx.TxID {
		t.Fatal("expected mutated outputs to change the computed txid")
	}
}

func Test_SignAndVerifyStandardTransaction(t *testing.T) {
	senderKey, senderAddr := newKeyAndAddress(t)
	_, recvAddr := newKeyAndAddress(t)

	fundingTx := database.NewCoinbaseTransaction(senderAddr, 50*database.UnitsPerCoin, 1, []byte("h0"))

	utxo := database.NewUTXOSet()
	utxo.ApplyBlock(database.Block{Transactions: []database.Transaction{fundingTx}})

	spend := database.OutPoint{TxID: fundingTx.TxID, Vout: 0}
	tx := database.NewStandardTransaction(
		[]database.TxInput{{Previous: spend}},
		[]database.TxOutput{
			{Address: recvAddr, Amount: 20 * database.UnitsPerCoin},
			{Address: senderAddr, Amount: 29 * database.UnitsPerCoin},
		},
		2,
	)

	if err := tx.SignInput(0, senderKey); err != nil {
		t.Fatalf("signing input: %s", err)
	}
	tx = tx.WithTxID()

	fee, err := database.VerifyStandardTransaction(tx, utxo, map[database.OutPoint]bool{})
	if err != nil {
		t.Fatalf("expected transaction to verify, got %s", err)
	}
	if fee != database.UnitsPerCoin {
		t.Fatalf("expected fee of 1 coin, got %d", fee)
	}
}

func Test_UnknownInputRejected(t *testing.T) {
	_, addr := newKeyAndAddress(t)

	utxo := database.NewUTXOSet()
	tx := database.NewStandardTransaction(
		[]database.TxInput{{Previous: database.OutPoint{TxID: "nope", Vout: 0}}},
		[]database.TxOutput{{Address: addr, Amount: 1}},
		1,
	)

	if _, err := database.VerifyStandardTransaction(tx, utxo, map[database.OutPoint]bool{}); err != database.ErrUnknownInput {
		t.Fatalf("expected ErrUnknownInput, got %v", err)
	}
}

func Test_DoubleSpendInContextRejected(t *testing.T) {
	senderKey, senderAddr := newKeyAndAddress(t)
	_, recvAddr := newKeyAndAddress(t)

	fundingTx := database.NewCoinbaseTransaction(senderAddr, 10*database.UnitsPerCoin, 1, []byte("h0"))
	utxo := database.NewUTXOSet()
	utxo.ApplyBlock(database.Block{Transactions: []database.Transaction{fundingTx}})

	spend := database.OutPoint{TxID: fundingTx.TxID, Vout: 0}

	build := func() database.Transaction {
		tx := database.NewStandardTransaction(
			[]database.TxInput{{Previous: spend}},
			[]database.TxOutput{{Address: recvAddr, Amount: 5 * database.UnitsPerCoin}},
			2,
		)
		if err := tx.SignInput(0, senderKey); err != nil {
			t.Fatalf("signing input: %s", err)
		}
		return tx.WithTxID()
	}

	txA := build()
	txB := build()

	spentInContext := map[database.OutPoint]bool{}
	if _, err := database.VerifyStandardTransaction(txA, utxo, spentInContext); err != nil {
		t.Fatalf("expected first spend to verify, got %s", err)
	}
	if _, err := database.VerifyStandardTransaction(txB, utxo, spentInContext); err != database.ErrDoubleSpendInBlock {
		t.Fatalf("expected ErrDoubleSpendInBlock, got %v", err)
	}
}

func Test_SignatureMismatchRejected(t *testing.T) {
	_, senderAddr := newKeyAndAddress(t)
	attackerKey, _ := newKeyAndAddress(t)
	_, recvAddr := newKeyAndAddress(t)

	fundingTx := database.NewCoinbaseTransaction(senderAddr, 10*database.UnitsPerCoin, 1, []byte("h0"))
	utxo := database.NewUTXOSet()
	utxo.ApplyBlock(database.Block{Transactions: []database.Transaction{fundingTx}})

	tx := database.NewStandardTransaction(
		[]database.TxInput{{Previous: database.OutPoint{TxID: fundingTx.TxID, Vout: 0}}},
		[]database.TxOutput{{Address: recvAddr, Amount: 5 * database.UnitsPerCoin}},
		2,
	)
	if err := tx.SignInput(0, attackerKey); err != nil {
		t.Fatalf("signing input: %s", err)
	}
	tx = tx.WithTxID()

	if _, err := database.VerifyStandardTransaction(tx, utxo, map[database.OutPoint]bool{}); err != database.ErrSignatureMismatch {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}
