package database

import "github.com/jolovicdev/kaidos/foundation/blockchain/signature"

// VerifyStandardTransaction checks a standard transaction against a UTXO
// snapshot, per §4.3:
//
//  1. txid matches the recomputed hash.
//  2. at least one input and one output, all amounts > 0.
//  3. every input's outpoint exists in the snapshot and has not already
//     been referenced earlier in this call (spentInContext catches
//     mempool conflicts and intra-block double-spends alike).
//  4. every input's public key hashes to the referenced output's address
//     and the signature verifies over the shared preimage.
//  5. sum(inputs) >= sum(outputs); the difference is the fee.
//
// spentInContext is mutated to record this transaction's outpoints so a
// caller iterating a batch of transactions accumulates conflicts across
// calls.
func VerifyStandardTransaction(tx Transaction, utxo *UTXOSet, spentInContext map[OutPoint]bool) (Amount, error) {
	if tx.ComputeTxID() != tx.TxID {
		return 0, ErrBadTxid
	}

	if len(tx.Inputs) == 0 || len(tx.Outputs) == 0 {
		return 0, ErrEmptyTransaction
	}

	for _, out := range tx.Outputs {
		if out.Amount == 0 {
			return 0, ErrNegativeOrZeroAmt
		}
	}

	var totalIn Amount
	for _, in := range tx.Inputs {
		if in.IsCoinbase() {
			return 0, ErrUnexpectedCoinbase
		}

		if spentInContext[in.Previous] {
			return 0, ErrDoubleSpendInBlock
		}

		refOut, ok := utxo.Lookup(in.Previous)
		if !ok {
			return 0, ErrUnknownInput
		}

		wantAddr, err := signature.PublicKeyToAddress(in.PublicKey)
		if err != nil || wantAddr != refOut.Address {
			return 0, ErrSignatureMismatch
		}

		if err := signature.Verify(tx.SigningPreimage(), in.Signature, in.PublicKey); err != nil {
			return 0, ErrSignatureMismatch
		}

		spentInContext[in.Previous] = true
		totalIn += refOut.Amount
	}

	totalOut := tx.TotalOutput()
	if totalIn < totalOut {
		return 0, ErrInsufficientInputs
	}

	return totalIn - totalOut, nil
}

// VerifyCoinbaseTransaction checks the block's reward transaction: exactly
// one null-outpoint input, and an output sum that does not exceed the
// expected reward plus the fees actually collected from the block's other
// transactions. Coinbase inputs carry no signature.
func VerifyCoinbaseTransaction(tx Transaction, expectedReward Amount, collectedFees Amount) error {
	if tx.ComputeTxID() != tx.TxID {
		return ErrBadTxid
	}

	if !tx.IsCoinbase() {
		return ErrMalformedCoinbase
	}

	if len(tx.Outputs) == 0 {
		return ErrMalformedCoinbase
	}

	// A coinbase output may legitimately be 0 once the reward schedule has
	// halved past the point where it rounds down to nothing and the block
	// collected no fees; the block is still valid, it just pays nothing.
	// A negative amount can't occur since Amount is unsigned, so there is
	// nothing else to reject here.
	if tx.TotalOutput() > expectedReward+collectedFees {
		return ErrCoinbaseOverpayment
	}

	return nil
}
