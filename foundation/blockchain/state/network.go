package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// SendBlockToPeers broadcasts a newly accepted block to every known peer.
// Individual peer failures are logged and otherwise ignored — gossip is
// best-effort.
func (s *State) SendBlockToPeers(block database.Block) {
	s.evHandler("state: SendBlockToPeers: started")
	defer s.evHandler("state: SendBlockToPeers: completed")

	for _, p := range s.knownPeers.Copy(s.host) {
		url := fmt.Sprintf("%s/block/submit", fmt.Sprintf(baseURL, p.Host))
		if err := send(http.MethodPost, url, block, nil); err != nil {
			s.evHandler("state: SendBlockToPeers: %s: WARNING: %s", p.Host, err)
		}
	}
}

// SendTxToPeers shares a mempool-accepted transaction with every known peer.
func (s *State) SendTxToPeers(tx database.Transaction) {
	s.evHandler("state: SendTxToPeers: started")
	defer s.evHandler("state: SendTxToPeers: completed")

	for _, p := range s.knownPeers.Copy(s.host) {
		url := fmt.Sprintf("%s/tx/submit", fmt.Sprintf(baseURL, p.Host))
		if err := send(http.MethodPost, url, tx, nil); err != nil {
			s.evHandler("state: SendTxToPeers: %s: WARNING: %s", p.Host, err)
		}
	}
}

// RequestPeerStatus asks a peer for its tip and known-peer list.
func (s *State) RequestPeerStatus(p peer.Peer) (peer.Status, error) {
	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, p.Host))

	var ps peer.Status
	if err := send(http.MethodGet, url, nil, &ps); err != nil {
		return peer.Status{}, err
	}
	return ps, nil
}

// RequestPeerBlocks asks a peer for every block from from to to, inclusive.
func (s *State) RequestPeerBlocks(p peer.Peer, from, to uint64) ([]database.Block, error) {
	url := fmt.Sprintf("%s/blocks/%d/%d", fmt.Sprintf(baseURL, p.Host), from, to)

	var blocks []database.Block
	if err := send(http.MethodGet, url, nil, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// send issues an HTTP request to a peer with a bounded timeout and decodes
// a JSON response, if one is expected.
func send(method, url string, dataSend, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}

	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return errors.New(string(msg))
	}

	if dataRecv != nil {
		return json.NewDecoder(resp.Body).Decode(dataRecv)
	}
	return nil
}
