// Package nodeapi maintains the handlers behind the node-to-node peer
// exchange protocol and the small set of client-facing endpoints (balance
// and UTXO lookups, transaction and block submission, event streaming)
// that ride the same v1 mux.
package nodeapi

import (
	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/peer"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
)

// utxo is the wire shape for a single unspent output returned by the
// utxos endpoint.
type utxo struct {
	TxID    string            `json:"txid"`
	Vout    uint32            `json:"vout"`
	Amount  database.Amount   `json:"amount"`
	Address signature.Address `json:"address"`
}

// balanceResponse is the wire shape for the balance endpoint.
type balanceResponse struct {
	Address signature.Address `json:"address"`
	Balance database.Amount   `json:"balance"`
}

// submitResponse acknowledges an accepted tx or block submission.
type submitResponse struct {
	Status string `json:"status"`
}

// statusResponse is an alias kept for documentation; the wire shape is
// simply peer.Status.
type statusResponse = peer.Status

// peersResponse is the wire shape for the peers endpoint.
type peersResponse struct {
	Peers []peer.Peer `json:"peers"`
}

// addPeerRequest is the wire shape POSTed to add a known peer.
type addPeerRequest struct {
	Host string `json:"host" validate:"required"`
}

// mineRequest is the wire shape POSTed to trigger a single mining pass.
type mineRequest struct {
	Address signature.Address `json:"address" validate:"required"`
}

// mineResponse reports the block a triggered mining pass produced.
type mineResponse struct {
	Hash   string          `json:"hash"`
	Height uint64          `json:"height"`
	Reward database.Amount `json:"reward"`
}

// consensusResponse reports the outcome of a triggered consensus round.
type consensusResponse struct {
	Adopted bool   `json:"adopted"`
	Height  uint64 `json:"height"`
	Source  string `json:"source"`
}
