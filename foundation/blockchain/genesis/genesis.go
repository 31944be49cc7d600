// Package genesis maintains access to the genesis configuration: the fixed
// constants every node must agree on to accept the same chain.
package genesis

import (
	"encoding/json"
	"os"

	"github.com/jolovicdev/kaidos/foundation/blockchain/database"
	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
)

// Genesis represents the genesis file: the fixed parameters of the ledger
// and the block that seeds the chain.
type Genesis struct {
	ReservedAddress   signature.Address `json:"reserved_address"`
	InitialDifficulty uint              `json:"initial_difficulty"`
	InitialReward     database.Amount   `json:"initial_reward"`
	HalvingInterval   uint64            `json:"halving_interval"`
	RetargetInterval  uint64            `json:"retarget_interval"`
	TargetBlockTime   float64           `json:"target_block_time_seconds"`
	TransPerBlock     int               `json:"trans_per_block"`
	Timestamp         float64           `json:"timestamp"`
}

// DefaultPath is the genesis file Load reads when it is given an empty
// path.
const DefaultPath = "zblock/genesis.json"

// Default returns the built-in genesis configuration used when no genesis
// file is present on disk. Any node started against this configuration and
// an identical genesis block can validate the same chain.
func Default() Genesis {
	return Genesis{
		ReservedAddress:   "KDAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		InitialDifficulty: 4,
		InitialReward:     50 * database.UnitsPerCoin,
		HalvingInterval:   210_000,
		RetargetInterval:  10,
		TargetBlockTime:   30,
		TransPerBlock:     2000,
		Timestamp:         0,
	}
}

// Load reads the genesis file at path, falling back to Default if the file
// does not exist.
func Load(path string) (Genesis, error) {
	if path == "" {
		path = DefaultPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Genesis{}, err
	}

	g := Default()
	if err := json.Unmarshal(content, &g); err != nil {
		return Genesis{}, err
	}

	return g, nil
}

// Save writes g to path as indented JSON, for `node init`.
func Save(path string, g Genesis) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Block constructs the unsolved genesis block described by g. The caller
// must call Mine on the result before it is a valid chain tip.
func (g Genesis) Block() (database.Block, error) {
	return database.NewGenesisBlock(g.ReservedAddress, g.InitialDifficulty, g.Timestamp)
}

// RewardAt returns the coinbase reward for the block at the given index,
// halving every HalvingInterval blocks until precision is exhausted.
func (g Genesis) RewardAt(index uint64) database.Amount {
	halvings := index / g.HalvingInterval
	if halvings >= 64 {
		return 0
	}
	return g.InitialReward >> halvings
}
