package worker_test

import (
	"testing"
	"time"

	"github.com/jolovicdev/kaidos/foundation/blockchain/genesis"
	"github.com/jolovicdev/kaidos/foundation/blockchain/peer"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
	"github.com/jolovicdev/kaidos/foundation/blockchain/state"
	"github.com/jolovicdev/kaidos/foundation/blockchain/storage/memory"
	"github.com/jolovicdev/kaidos/foundation/blockchain/worker"
)

func Test_SignalStartMiningMinesABlock(t *testing.T) {
	priv, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}
	addr, err := signature.PublicKeyToAddress(priv.Public().String())
	if err != nil {
		t.Fatalf("deriving address: %s", err)
	}

	g := genesis.Default()
	g.InitialDifficulty = 1

	s, err := state.New(state.Config{
		MinerAddress: addr,
		Host:         "worker-under-test",
		Genesis:      g,
		KnownPeers:   peer.NewPeerSet(0),
		Storage:      memory.New(),
		EvHandler:    func(string, ...any) {},
	})
	if err != nil {
		t.Fatalf("constructing state: %s", err)
	}

	startHeight := s.Height()

	w := worker.Run(s, 0, nil)
	defer w.Shutdown()

	w.SignalStartMining()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Height() > startHeight {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("expected height to advance past %d within the deadline, got %d", startHeight, s.Height())
}
