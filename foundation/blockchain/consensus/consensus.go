// Package consensus periodically reconciles a node's chain against its
// known peers, adopting the longest valid alternative when one exists.
package consensus

import (
	"sort"

	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/peer"
)

// EventHandler is called to report progress, mirroring state.EventHandler
// so callers can share one logging shim across packages.
type EventHandler func(v string, args ...any)

// Ledger is the behavior consensus needs from the local node's state.
type Ledger interface {
	Height() uint64
	KnownPeers() *peer.PeerSet
	RequestPeerStatus(p peer.Peer) (peer.Status, error)
	RequestPeerBlocks(p peer.Peer, from, to uint64) ([]database.Block, error)
	ReplaceChain(candidate []database.Block) error
}

// Result summarizes one consensus run.
type Result struct {
	Height  uint64
	Adopted bool
	Source  string
}

// candidate pairs a peer with the chain height it advertised, so results can be
// tried from longest to shortest.
type candidate struct {
	peer   peer.Peer
	height uint64
}

// Run executes one round of §4.8's consensus protocol against up to cap
// peers: it asks each known peer for its tip height, then attempts to
// replace the local chain with the longest peer chain that is strictly
// longer than the local one, falling back to the next-longest on failure.
// Individual peer errors are logged through ev and otherwise ignored —
// consensus itself never fails.
func Run(ledger Ledger, cap int, ev EventHandler) Result {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	localHeight := ledger.Height()

	peers := ledger.KnownPeers().Copy("")
	if cap > 0 && len(peers) > cap {
		peers = peers[:cap]
	}

	var candidates []candidate
	for _, p := range peers {
		status, err := ledger.RequestPeerStatus(p)
		if err != nil {
			ev("consensus: Run: %s: status request failed: %s", p.Host, err)
			continue
		}
		if status.LatestBlockHeight+1 <= localHeight {
			continue
		}
		candidates = append(candidates, candidate{peer: p, height: status.LatestBlockHeight + 1})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].height > candidates[j].height
	})

	for _, c := range candidates {
		blocks, err := ledger.RequestPeerBlocks(c.peer, 0, c.height-1)
		if err != nil {
			ev("consensus: Run: %s: block fetch failed: %s", c.peer.Host, err)
			continue
		}

		if err := ledger.ReplaceChain(blocks); err != nil {
			ev("consensus: Run: %s: chain rejected: %s", c.peer.Host, err)
			continue
		}

		ev("consensus: Run: adopted chain from %s: height[%d]", c.peer.Host, ledger.Height())
		return Result{Height: ledger.Height(), Adopted: true, Source: c.peer.Host}
	}

	return Result{Height: ledger.Height(), Adopted: false}
}
