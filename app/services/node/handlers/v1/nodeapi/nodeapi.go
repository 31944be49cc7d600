package nodeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jolovicdev/kaidos/business/web/errs"
	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/peer"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
	"github.com/jolovicdev/kaidos/foundation/blockchain/state"
	"github.com/jolovicdev/kaidos/foundation/events"
	"github.com/jolovicdev/kaidos/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of node-to-node and client-facing endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
	WS    websocket.Upgrader
}

// Status returns the node's current tip and known peers, answering the
// Peer Exchange protocol's get_status capability.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.LatestBlock()

	status := peer.Status{
		LatestBlockHash:   latest.Hash(),
		LatestBlockHeight: h.State.Height() - 1,
		KnownPeers:        h.State.KnownPeers().Copy(""),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Blocks returns every block between :from and :to, inclusive, answering
// get_blocks.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := strconv.ParseUint(web.Param(r, "from"), 10, 64)
	if err != nil {
		return errs.NewTrusted(errors.New("from must be a non-negative integer"), http.StatusBadRequest)
	}
	to, err := strconv.ParseUint(web.Param(r, "to"), 10, 64)
	if err != nil {
		return errs.NewTrusted(errors.New("to must be a non-negative integer"), http.StatusBadRequest)
	}
	if from > to {
		return errs.NewTrusted(errors.New("from must not be greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.Blocks(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// UTXOs returns every unspent output paying :address, answering get_utxos.
func (h Handlers) UTXOs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addr := signature.Address(web.Param(r, "address"))
	if !signature.IsValidAddress(addr) {
		return errs.NewTrusted(errors.New("malformed address"), http.StatusBadRequest)
	}

	entries := h.State.UTXOsFor(addr)
	out := make([]utxo, len(entries))
	for i, e := range entries {
		out[i] = utxo{TxID: e.OutPoint.TxID, Vout: e.OutPoint.Vout, Amount: e.Output.Amount, Address: e.Output.Address}
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// Balance returns the confirmed balance for :address.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addr := signature.Address(web.Param(r, "address"))
	if !signature.IsValidAddress(addr) {
		return errs.NewTrusted(errors.New("malformed address"), http.StatusBadRequest)
	}

	return web.Respond(ctx, w, balanceResponse{Address: addr, Balance: h.State.Balance(addr)}, http.StatusOK)
}

// SubmitTx decodes a signed transaction and submits it to the mempool,
// answering broadcast_tx.
func (h Handlers) SubmitTx(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tx database.Transaction
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	v, err := web.GetValues(ctx)
	traceID := "00000000-0000-0000-0000-000000000000"
	if err == nil {
		traceID = v.TraceID
	}
	h.Log.Infow("submit tx", "traceid", traceID, "txid", tx.TxID)

	if err := h.State.SubmitTransaction(tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Evts.Send(fmt.Sprintf("accepted transaction %s", tx.TxID))

	return web.Respond(ctx, w, submitResponse{Status: "accepted"}, http.StatusOK)
}

// SubmitBlock decodes a block proposed by a peer, validates it, and applies
// it if it extends the current tip, answering broadcast_block.
func (h Handlers) SubmitBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := h.State.ProcessProposedBlock(block); err != nil {
		return errs.NewTrusted(fmt.Errorf("block not accepted: %w", err), http.StatusNotAcceptable)
	}

	h.Evts.Send(fmt.Sprintf("accepted block %s at height %d", block.Hash(), block.Header.Index))

	return web.Respond(ctx, w, submitResponse{Status: "accepted"}, http.StatusOK)
}

// Peers returns every peer this node currently knows about, answering
// exchange_peers.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, peersResponse{Peers: h.State.KnownPeers().Copy("")}, http.StatusOK)
}

// AddPeer records a peer as known, backing the `node add-peer` command.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req addPeerRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if _, err := h.State.AddKnownPeer(peer.New(req.Host)); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, peersResponse{Peers: h.State.KnownPeers().Copy("")}, http.StatusOK)
}

// Mine synchronously runs one mining pass with the reward paid to the
// requested address, backing the `node mine` command.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req mineRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	if !signature.IsValidAddress(req.Address) {
		return errs.NewTrusted(errors.New("malformed address"), http.StatusBadRequest)
	}

	block, err := h.State.MineNewBlockTo(ctx, req.Address)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("mining failed: %w", err), http.StatusInternalServerError)
	}

	h.State.SendBlockToPeers(block)
	h.Evts.Send(fmt.Sprintf("mined block %s at height %d", block.Hash(), block.Header.Index))

	reward := block.Transactions[0].Outputs[0].Amount
	return web.Respond(ctx, w, mineResponse{Hash: block.Hash(), Height: block.Header.Index, Reward: reward}, http.StatusOK)
}

// Consensus triggers one round of the replace-chain protocol against known
// peers, backing the `node consensus` command.
func (h Handlers) Consensus(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	traceID := "00000000-0000-0000-0000-000000000000"
	if v, err := web.GetValues(ctx); err == nil {
		traceID = v.TraceID
	}

	result := h.State.RunConsensus(func(v string, args ...any) {
		h.Log.Infow(fmt.Sprintf(v, args...), "traceid", traceID)
	})

	return web.Respond(ctx, w, consensusResponse{Adopted: result.Adopted, Height: result.Height, Source: result.Source}, http.StatusOK)
}

// Events upgrades the connection to a websocket and streams ledger events
// — mined blocks and accepted transactions — as they happen.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	conn, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, open := <-ch:
			if !open {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
