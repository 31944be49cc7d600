// Package peer maintains the set of known peers and their advertised status.
package peer

import (
	"errors"
	"sync"
)

// ErrPeerSetFull is returned by Add when the set is already at its cap.
var ErrPeerSetFull = errors.New("peer set is at capacity")

// Peer identifies a node in the network by its reachable host address.
type Peer struct {
	Host string
}

// New constructs a peer value.
func New(host string) Peer {
	return Peer{Host: host}
}

// Match reports whether host names this peer, used to exclude self from
// peer lists returned to a requester.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// Status is what a peer reports about itself from its status endpoint: its
// tip and the peers it in turn knows about.
type Status struct {
	LatestBlockHash   string `json:"latest_block_hash"`
	LatestBlockHeight uint64 `json:"latest_block_height"`
	KnownPeers        []Peer `json:"known_peers"`
}

// PeerSet is a thread-safe, capacity-bounded set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	cap int
	set map[Peer]struct{}
}

// NewPeerSet constructs an empty set bounded at cap peers. A cap of 0 means
// unbounded.
func NewPeerSet(cap int) *PeerSet {
	return &PeerSet{cap: cap, set: make(map[Peer]struct{})}
}

// Add inserts peer into the set. It reports whether the peer was newly
// added, and returns ErrPeerSetFull if the set is already at capacity.
func (ps *PeerSet) Add(p Peer) (bool, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.set[p]; exists {
		return false, nil
	}

	if ps.cap > 0 && len(ps.set) >= ps.cap {
		return false, ErrPeerSetFull
	}

	ps.set[p] = struct{}{}
	return true, nil
}

// Remove drops peer from the set, if present.
func (ps *PeerSet) Remove(p Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, p)
}

// Cap reports the set's configured capacity, or 0 if unbounded.
func (ps *PeerSet) Cap() int {
	return ps.cap
}

// Len reports the current size of the set.
func (ps *PeerSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Copy returns every known peer except one matching host (typically self).
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for p := range ps.set {
		if !p.Match(host) {
			peers = append(peers, p)
		}
	}
	return peers
}
