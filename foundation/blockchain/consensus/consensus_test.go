package consensus_test

import (
	"errors"
	"testing"

	"github.com/jolovicdev/kaidos/foundation/blockchain/consensus"
	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/peer"
)

type fakeLedger struct {
	height     uint64
	peers      *peer.PeerSet
	statuses   map[string]peer.Status
	blocks     map[string][]database.Block
	replaced   []database.Block
	replaceErr error
}

func (f *fakeLedger) Height() uint64                { return f.height }
func (f *fakeLedger) KnownPeers() *peer.PeerSet      { return f.peers }

func (f *fakeLedger) RequestPeerStatus(p peer.Peer) (peer.Status, error) {
	status, ok := f.statuses[p.Host]
	if !ok {
		return peer.Status{}, errors.New("unreachable")
	}
	return status, nil
}

func (f *fakeLedger) RequestPeerBlocks(p peer.Peer, from, to uint64) ([]database.Block, error) {
	blocks, ok := f.blocks[p.Host]
	if !ok {
		return nil, errors.New("no blocks")
	}
	return blocks, nil
}

func (f *fakeLedger) ReplaceChain(candidate []database.Block) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced = candidate
	f.height = uint64(len(candidate))
	return nil
}

func blocksOfHeight(n int) []database.Block {
	blocks := make([]database.Block, n)
	for i := range blocks {
		blocks[i] = database.Block{Header: database.BlockHeader{Index: uint64(i)}}
	}
	return blocks
}

func Test_RunAdoptsLongestPeerChain(t *testing.T) {
	peers := peer.NewPeerSet(0)
	peers.Add(peer.New("short-peer"))
	peers.Add(peer.New("long-peer"))

	ledger := &fakeLedger{
		height: 2,
		peers:  peers,
		statuses: map[string]peer.Status{
			"short-peer": {LatestBlockHeight: 2},
			"long-peer":  {LatestBlockHeight: 4},
		},
		blocks: map[string][]database.Block{
			"long-peer": blocksOfHeight(5),
		},
	}

	result := consensus.Run(ledger, 0, nil)
	if !result.Adopted {
		t.Fatal("expected the longer chain to be adopted")
	}
	if result.Source != "long-peer" {
		t.Fatalf("expected adoption from long-peer, got %s", result.Source)
	}
	if len(ledger.replaced) != 5 {
		t.Fatalf("expected 5 blocks adopted, got %d", len(ledger.replaced))
	}
}

func Test_RunAdoptsNothingWhenEveryCandidateIsRejected(t *testing.T) {
	peers := peer.NewPeerSet(0)
	peers.Add(peer.New("bad-peer"))
	peers.Add(peer.New("good-peer"))

	ledger := &fakeLedger{
		height: 2,
		peers:  peers,
		statuses: map[string]peer.Status{
			"bad-peer":  {LatestBlockHeight: 9},
			"good-peer": {LatestBlockHeight: 4},
		},
		blocks: map[string][]database.Block{
			"bad-peer":  blocksOfHeight(10),
			"good-peer": blocksOfHeight(5),
		},
	}

	callCount := 0
	originalReplace := ledger.ReplaceChain
	_ = originalReplace

	// Reject every candidate: the longest is tried first, then the next,
	// and neither may be adopted.
	ledger.replaceErr = errors.New("invalid chain")
	result := consensus.Run(ledger, 0, func(string, ...any) { callCount++ })
	if result.Adopted {
		t.Fatal("expected no chain to be adopted while every candidate is rejected")
	}
	if callCount == 0 {
		t.Fatal("expected consensus to log the rejected candidates")
	}
}

func Test_RunSkipsChainsNotLongerThanLocal(t *testing.T) {
	peers := peer.NewPeerSet(0)
	peers.Add(peer.New("equal-peer"))

	ledger := &fakeLedger{
		height: 5,
		peers:  peers,
		statuses: map[string]peer.Status{
			"equal-peer": {LatestBlockHeight: 4},
		},
	}

	result := consensus.Run(ledger, 0, nil)
	if result.Adopted {
		t.Fatal("expected no adoption when no peer chain is longer than local")
	}
}
