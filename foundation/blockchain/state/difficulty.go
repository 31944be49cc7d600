package state

import "github.com/jolovicdev/kaidos/foundation/blockchain/database"

// minDifficulty is the floor difficulty never retargets below.
const minDifficulty = 1

// CurrentDifficulty returns the proof-of-work difficulty the next block must
// satisfy. Every RetargetInterval blocks, it compares the average time the
// last interval actually took against TargetBlockTime and adjusts by at
// most one: under half the target raises difficulty, over twice the target
// lowers it, and anything in between leaves it unchanged.
func (s *State) CurrentDifficulty() uint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.currentDifficultyLocked()
}

func (s *State) currentDifficultyLocked() uint {
	interval := s.genesis.RetargetInterval
	if interval == 0 {
		return s.genesis.InitialDifficulty
	}

	tip := uint64(len(s.chain)) - 1 // index of the current tip, chain[0] is genesis
	difficulty := s.genesis.InitialDifficulty

	// Replay every retarget boundary crossed so far, in order, starting
	// from the genesis difficulty. This keeps difficulty a pure function
	// of chain history rather than accumulated mutable state.
	for boundary := interval; boundary <= tip; boundary += interval {
		start := s.chain[boundary-interval]
		end := s.chain[boundary]

		actual := end.Header.Timestamp - start.Header.Timestamp
		target := s.genesis.TargetBlockTime * float64(interval)

		switch {
		case actual < target/2 && difficulty < 255:
			difficulty++
		case actual > target*2 && difficulty > minDifficulty:
			difficulty--
		}
	}

	return difficulty
}

// CurrentReward returns the coinbase reward for the next block to be mined.
func (s *State) CurrentReward() database.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.genesis.RewardAt(uint64(len(s.chain)))
}
