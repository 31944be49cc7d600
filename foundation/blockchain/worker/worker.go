// Package worker drives the background goroutines a running node needs:
// mining new blocks, periodically syncing with peers, and gossiping newly
// submitted transactions.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jolovicdev/kaidos/foundation/blockchain/consensus"
	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/state"
)

// maxTxShareRequests bounds the transaction gossip queue; once full,
// further SignalShareTx calls are dropped rather than blocking the caller.
const maxTxShareRequests = 100

// peerSyncInterval is how often the peer-sync loop runs consensus and
// exchanges peer lists.
const peerSyncInterval = time.Minute

// EventHandler is called to report progress.
type EventHandler func(v string, args ...any)

// Worker manages the mining, peer-sync, and transaction-gossip goroutines
// for one node's state, and implements state.Worker.
type Worker struct {
	state *state.State
	ev    EventHandler

	wg     sync.WaitGroup
	ticker *time.Ticker
	shut   chan struct{}

	startMining  chan bool
	cancelMining chan chan struct{}
	txSharing    chan database.Transaction

	peerCap int
}

// Run constructs a Worker for state, registers it as state.Worker, and
// starts its background goroutines. It blocks until every goroutine has
// confirmed it is running.
func Run(s *state.State, peerCap int, ev EventHandler) *Worker {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	w := &Worker{
		state:        s,
		ev:           ev,
		ticker:       time.NewTicker(peerSyncInterval),
		shut:         make(chan struct{}),
		startMining:  make(chan bool, 1),
		cancelMining: make(chan chan struct{}, 1),
		txSharing:    make(chan database.Transaction, maxTxShareRequests),
		peerCap:      peerCap,
	}

	s.Worker = w

	operations := []func(){
		w.peerSyncOperations,
		w.miningOperations,
		w.shareTxOperations,
	}

	w.wg.Add(len(operations))
	started := make(chan struct{})
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			started <- struct{}{}
			op()
		}(op)
	}
	for range operations {
		<-started
	}

	return w
}

// Shutdown stops every background goroutine and waits for them to exit.
func (w *Worker) Shutdown() {
	w.ev("worker: Shutdown: started")
	defer w.ev("worker: Shutdown: completed")

	w.ticker.Stop()

	done := w.SignalCancelMining()
	done()

	close(w.shut)
	w.wg.Wait()
}

func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

// SignalStartMining wakes the mining loop. A pending signal already queued
// is enough; this call never blocks.
func (w *Worker) SignalStartMining() {
	select {
	case w.startMining <- true:
	default:
	}
	w.ev("worker: SignalStartMining: signaled")
}

// SignalCancelMining asks any in-flight mining operation to stop, returning
// a func the caller must invoke once it has finished the state changes that
// made the running mining operation stale — the mining goroutine won't
// return until then.
func (w *Worker) SignalCancelMining() (done func()) {
	wait := make(chan struct{})

	select {
	case w.cancelMining <- wait:
	default:
	}
	w.ev("worker: SignalCancelMining: signaled")

	return func() { close(wait) }
}

// SignalShareTx queues tx for gossip to peers. If the queue is full the
// transaction is dropped — gossip is best-effort, not delivery-guaranteed.
func (w *Worker) SignalShareTx(tx database.Transaction) {
	select {
	case w.txSharing <- tx:
	default:
		w.ev("worker: SignalShareTx: WARNING: queue full, dropping tx[%s]", tx.TxID)
	}
}

// miningOperations runs the mining loop: idle until signaled, then attempt
// one block, then idle again.
func (w *Worker) miningOperations() {
	w.ev("worker: miningOperations: started")
	defer w.ev("worker: miningOperations: completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			return
		}
	}
}

// runMiningOperation mines exactly one block, cancellable through the
// worker's cancelMining channel, and broadcasts it to peers on success.
func (w *Worker) runMiningOperation() {
	w.ev("worker: runMiningOperation: started")
	defer w.ev("worker: runMiningOperation: completed")

	select {
	case <-w.cancelMining:
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wait chan struct{}
	defer func() {
		if wait != nil {
			<-wait
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case wait = <-w.cancelMining:
			w.ev("worker: runMiningOperation: cancel requested")
		case <-ctx.Done():
		}
	}()

	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		block, err := w.state.MineNewBlock(state.WithTimestamp(ctx, float64(time.Now().Unix())))
		if err != nil {
			switch err {
			case database.ErrMiningCanceled:
				w.ev("worker: runMiningOperation: cancelled")
			case database.ErrMiningStalled:
				w.ev("worker: runMiningOperation: WARNING: exhausted nonce space")
			default:
				w.ev("worker: runMiningOperation: ERROR: %s", err)
			}
			return
		}

		w.ev("worker: runMiningOperation: solved: hash[%s]", block.Hash())
		w.state.SendBlockToPeers(block)
	}()

	wg.Wait()
}

// shareTxOperations drains the gossip queue and forwards each transaction
// to every known peer.
func (w *Worker) shareTxOperations() {
	w.ev("worker: shareTxOperations: started")
	defer w.ev("worker: shareTxOperations: completed")

	for {
		select {
		case tx := <-w.txSharing:
			if !w.isShutdown() {
				w.state.SendTxToPeers(tx)
			}
		case <-w.shut:
			return
		}
	}
}

// peerSyncOperations runs consensus and peer discovery on a fixed interval.
func (w *Worker) peerSyncOperations() {
	w.ev("worker: peerSyncOperations: started")
	defer w.ev("worker: peerSyncOperations: completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runPeerSyncOperation()
			}
		case <-w.shut:
			return
		}
	}
}

func (w *Worker) runPeerSyncOperation() {
	w.ev("worker: runPeerSyncOperation: started")
	defer w.ev("worker: runPeerSyncOperation: completed")

	for _, p := range w.state.KnownPeers().Copy("") {
		status, err := w.state.RequestPeerStatus(p)
		if err != nil {
			w.ev("worker: runPeerSyncOperation: %s: ERROR: %s", p.Host, err)
			continue
		}

		for _, known := range status.KnownPeers {
			if added, err := w.state.AddKnownPeer(known); err != nil {
				w.ev("worker: runPeerSyncOperation: addPeer: %s: WARNING: %s", known.Host, err)
			} else if added {
				w.ev("worker: runPeerSyncOperation: addPeer: added %s", known.Host)
			}
		}
	}

	result := consensus.Run(w.state, w.peerCap, consensus.EventHandler(w.ev))
	if result.Adopted {
		w.ev("worker: runPeerSyncOperation: adopted chain from %s: height[%d]", result.Source, result.Height)
	}
}
