package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
)

// walletUTXO is the wire shape returned by GET /v1/node/utxos/:address.
type walletUTXO struct {
	TxID    string            `json:"txid"`
	Vout    uint32            `json:"vout"`
	Amount  database.Amount   `json:"amount"`
	Address signature.Address `json:"address"`
}

// walletBalance is the wire shape returned by GET /v1/node/balance/:address.
type walletBalance struct {
	Address signature.Address `json:"address"`
	Balance database.Amount   `json:"balance"`
}

var httpClient = http.Client{Timeout: 5 * time.Second}

func getJSON(url string, out any) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("node returned %d: %s", resp.StatusCode, msg)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func postJSON(url string, in any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}

	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("node returned %d: %s", resp.StatusCode, msg)
	}

	return nil
}
