package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/jolovicdev/kaidos/app/cli"
	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var txOutput string

var txCmd = &cobra.Command{
	Use:   "tx <from> <to> <amount>",
	Short: "Build, sign, and submit a transaction spending <from>'s UTXOs to <to>",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		fromWallet, toStr, amountStr := args[0], args[1], args[2]

		amount, err := strconv.ParseUint(amountStr, 10, 64)
		if err != nil {
			cli.FailArgs("amount must be a non-negative integer of smallest units, got %q", amountStr)
		}

		to := signature.Address(toStr)
		if !signature.IsValidAddress(to) {
			cli.FailArgs("malformed recipient address %q", toStr)
		}

		priv, err := loadKey(keyPath(fromWallet))
		if err != nil {
			cli.Fail(err)
		}

		from, err := signature.PublicKeyToAddress(priv.Public().String())
		if err != nil {
			cli.Fail(err)
		}

		var available []walletUTXO
		if err := getJSON(fmt.Sprintf("%s/v1/node/utxos/%s", nodeURL, from), &available); err != nil {
			cli.Fail(err)
		}

		tx, err := buildTransaction(priv, from, available, to, database.Amount(amount))
		if err != nil {
			cli.Fail(err)
		}

		data, err := json.MarshalIndent(tx, "", "  ")
		if err != nil {
			cli.Fail(err)
		}

		if txOutput != "" {
			if err := os.WriteFile(txOutput, data, 0o644); err != nil {
				cli.Fail(err)
			}
			fmt.Printf("wrote unsubmitted transaction %s to %s\n", tx.TxID, txOutput)
			return
		}

		if err := postJSON(fmt.Sprintf("%s/v1/node/tx/submit", nodeURL), tx); err != nil {
			cli.Fail(err)
		}
		fmt.Printf("submitted transaction %s\n", tx.TxID)
	},
}

func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.Flags().StringVarP(&txOutput, "output", "o", "", "Write the signed transaction to this file instead of submitting it.")
}

// buildTransaction selects UTXOs from available largest-first until amount
// is covered, builds a [recipient, change] output pair (omitting change if
// it would be zero), and signs every input over the shared preimage.
func buildTransaction(priv signature.PrivateKey, from signature.Address, available []walletUTXO, to signature.Address, amount database.Amount) (database.Transaction, error) {
	sort.Slice(available, func(i, j int) bool { return available[i].Amount > available[j].Amount })

	var inputs []database.TxInput
	var selected database.Amount
	for _, u := range available {
		if selected >= amount {
			break
		}
		inputs = append(inputs, database.TxInput{Previous: database.OutPoint{TxID: u.TxID, Vout: u.Vout}})
		selected += u.Amount
	}

	if selected < amount {
		return database.Transaction{}, database.ErrInsufficientFunds
	}

	outputs := []database.TxOutput{{Address: to, Amount: amount}}
	if change := selected - amount; change > 0 {
		outputs = append(outputs, database.TxOutput{Address: from, Amount: change})
	}

	tx := database.NewStandardTransaction(inputs, outputs, float64(time.Now().Unix()))

	for i := range tx.Inputs {
		if err := tx.SignInput(i, priv); err != nil {
			return database.Transaction{}, err
		}
	}
	tx = tx.WithTxID()

	return tx, nil
}
