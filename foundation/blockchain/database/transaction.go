package database

import (
	"encoding/json"
	"fmt"

	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
)

// Amount is a non-negative fixed-point value with 8 fractional decimal
// digits of precision. The smallest representable unit is 10^-8 Kaidos.
type Amount uint64

// UnitsPerCoin is the number of Amount units in one whole Kaidos.
const UnitsPerCoin Amount = 100_000_000

// OutPoint uniquely identifies a transaction output.
type OutPoint struct {
	TxID string `json:"txid"`
	Vout uint32 `json:"vout"`
}

// String renders an OutPoint for logging and map keys.
func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.Vout)
}

// IsNull reports whether this is the synthetic outpoint used by coinbase
// inputs, which reference no real output.
func (o OutPoint) IsNull() bool {
	return o.TxID == "" && o.Vout == 0
}

// TxOutput pays an amount to an address. Immutable once constructed.
type TxOutput struct {
	Address signature.Address `json:"address"`
	Amount  Amount            `json:"amount"`
}

// TxInput spends a previous output. Coinbase inputs carry a null Previous
// and an arbitrary CoinbaseData nonce instead of a signature.
type TxInput struct {
	Previous     OutPoint `json:"outpoint"`
	Signature    string   `json:"signature,omitempty"`
	PublicKey    string   `json:"public_key,omitempty"`
	CoinbaseData string   `json:"coinbase_data,omitempty"`
}

// IsCoinbase reports whether this input is the synthetic coinbase input.
func (in TxInput) IsCoinbase() bool {
	return in.Previous.IsNull() && in.CoinbaseData != ""
}

// Transaction is the transactional unit of the ledger.
type Transaction struct {
	TxID      string     `json:"txid"`
	Inputs    []TxInput  `json:"inputs"`
	Outputs   []TxOutput `json:"outputs"`
	Timestamp float64    `json:"timestamp"`
}

// IsCoinbase reports whether tx is a coinbase transaction: exactly one
// synthetic input with a null outpoint.
func (tx Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].IsCoinbase()
}

// =============================================================================
// Canonical serialization
//
// The signing preimage excludes signatures and public keys so every input
// of a transaction shares one signature target. The txid preimage includes
// everything except the txid field itself, so a coinbase's CoinbaseData
// nonce (which lives inside an input) still makes the txid unique.

type canonicalInput struct {
	TxID string `json:"txid"`
	Vout uint32 `json:"vout"`
}

type canonicalOutput struct {
	Address signature.Address `json:"address"`
	Amount  Amount            `json:"amount"`
}

type signingPreimage struct {
	Inputs    []canonicalInput  `json:"inputs"`
	Outputs   []canonicalOutput `json:"outputs"`
	Timestamp float64           `json:"timestamp"`
}

// SigningPreimage returns the deterministic byte sequence every input's
// signature covers. Signatures and public keys are deliberately excluded.
func (tx Transaction) SigningPreimage() []byte {
	sp := signingPreimage{
		Inputs:    make([]canonicalInput, len(tx.Inputs)),
		Outputs:   make([]canonicalOutput, len(tx.Outputs)),
		Timestamp: tx.Timestamp,
	}
	for i, in := range tx.Inputs {
		sp.Inputs[i] = canonicalInput{TxID: in.Previous.TxID, Vout: in.Previous.Vout}
	}
	for i, out := range tx.Outputs {
		sp.Outputs[i] = canonicalOutput{Address: out.Address, Amount: out.Amount}
	}

	data, err := json.Marshal(sp)
	if err != nil {
		return nil
	}
	return data
}

type txidInput struct {
	TxID         string `json:"txid"`
	Vout         uint32 `json:"vout"`
	Signature    string `json:"signature"`
	PublicKey    string `json:"public_key"`
	CoinbaseData string `json:"coinbase_data"`
}

type txidPreimage struct {
	Inputs    []txidInput       `json:"inputs"`
	Outputs   []canonicalOutput `json:"outputs"`
	Timestamp float64           `json:"timestamp"`
}

// txidPreimageBytes returns the deterministic byte sequence hashed to
// produce a transaction's txid: every field except the txid itself.
func (tx Transaction) txidPreimageBytes() []byte {
	tp := txidPreimage{
		Inputs:    make([]txidInput, len(tx.Inputs)),
		Outputs:   make([]canonicalOutput, len(tx.Outputs)),
		Timestamp: tx.Timestamp,
	}
	for i, in := range tx.Inputs {
		tp.Inputs[i] = txidInput{
			TxID:         in.Previous.TxID,
			Vout:         in.Previous.Vout,
			Signature:    in.Signature,
			PublicKey:    in.PublicKey,
			CoinbaseData: in.CoinbaseData,
		}
	}
	for i, out := range tx.Outputs {
		tp.Outputs[i] = canonicalOutput{Address: out.Address, Amount: out.Amount}
	}

	data, err := json.Marshal(tp)
	if err != nil {
		return nil
	}
	return data
}

// ComputeTxID returns the hex SHA-256 hash of the transaction's canonical
// preimage, the value the TxID field must equal.
func (tx Transaction) ComputeTxID() string {
	return signature.HashBytes(tx.txidPreimageBytes())
}

// WithTxID returns a copy of tx with TxID set to its computed value.
func (tx Transaction) WithTxID() Transaction {
	tx.TxID = tx.ComputeTxID()
	return tx
}

// =============================================================================
// Construction

// NewStandardTransaction builds an unsigned standard transaction from the
// given inputs and outputs. Callers must sign each input before submission.
func NewStandardTransaction(inputs []TxInput, outputs []TxOutput, timestamp float64) Transaction {
	tx := Transaction{
		Inputs:    inputs,
		Outputs:   outputs,
		Timestamp: timestamp,
	}
	return tx.WithTxID()
}

// NewCoinbaseTransaction builds the block reward transaction. nonce
// disambiguates coinbases that would otherwise be identical across heights.
func NewCoinbaseTransaction(minerAddr signature.Address, reward Amount, timestamp float64, nonce []byte) Transaction {
	tx := Transaction{
		Inputs: []TxInput{
			{
				Previous:     OutPoint{},
				CoinbaseData: fmt.Sprintf("%x", nonce),
			},
		},
		Outputs: []TxOutput{
			{Address: minerAddr, Amount: reward},
		},
		Timestamp: timestamp,
	}
	return tx.WithTxID()
}

// SignInput signs input i of tx with priv over the transaction's shared
// signing preimage and stores the signature and public key on the input.
func (tx *Transaction) SignInput(i int, priv signature.PrivateKey) error {
	if i < 0 || i >= len(tx.Inputs) {
		return fmt.Errorf("input index %d out of range", i)
	}

	sig, err := priv.Sign(tx.SigningPreimage())
	if err != nil {
		return err
	}

	tx.Inputs[i].Signature = sig
	tx.Inputs[i].PublicKey = priv.Public().String()

	return nil
}

// TotalOutput sums the transaction's output amounts.
func (tx Transaction) TotalOutput() Amount {
	var total Amount
	for _, out := range tx.Outputs {
		total += out.Amount
	}
	return total
}
