// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config loads the YAML description of a ledger deployment.
package config

import (
	"bytes"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/staking/params"
	"github.com/vechain/stakeledger/state"
)

const (
	DefaultLogLevel               = "info"
	DefaultLevelDBCache           = 128
	DefaultOpenFilesCacheCapacity = 64
)

// Config describes a deployment: where state lives, how it logs and what
// the genesis looks like.
type Config struct {
	DataDir        string        `yaml:"data-dir"`
	LogLevel       string        `yaml:"log-level"`
	LogFormat      string        `yaml:"log-format"`
	LevelDB        lvldb.Options `yaml:"leveldb"`
	StateCacheSize int           `yaml:"state-cache-size"`
	Metrics        bool          `yaml:"metrics"`
	Genesis        Genesis       `yaml:"genesis"`
}

// Genesis is applied once, to an empty store.
type Genesis struct {
	LaunchTime uint64        `yaml:"launch-time"`
	Params     Params        `yaml:"params"`
	Authorized []ids.Address `yaml:"authorized"`
	Exchanges  []ids.Address `yaml:"exchanges"`
	Accounts   []Account     `yaml:"accounts"`
	RewardFund *big.Int      `yaml:"reward-fund"`
}

// Params overrides the default staking parameters field by field.
type Params struct {
	EpochDurationInSeconds     *uint64  `yaml:"epoch-duration"`
	RewardDelegatedStakeWeight *uint32  `yaml:"delegated-stake-weight"`
	MinimumPoolStake           *big.Int `yaml:"minimum-pool-stake"`
	CobbDouglasAlpha           *Alpha   `yaml:"cobb-douglas-alpha"`
}

type Alpha struct {
	Numerator   uint32 `yaml:"numerator"`
	Denominator uint32 `yaml:"denominator"`
}

// Account is a genesis token allocation.
type Account struct {
	Address ids.Address `yaml:"address"`
	Stake   *big.Int    `yaml:"stake"`
	Rewards *big.Int    `yaml:"rewards"`
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes a YAML document, fills in defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LevelDB.CacheSize == 0 {
		c.LevelDB.CacheSize = DefaultLevelDBCache
	}
	if c.LevelDB.OpenFilesCacheCapacity == 0 {
		c.LevelDB.OpenFilesCacheCapacity = DefaultOpenFilesCacheCapacity
	}
	if c.StateCacheSize == 0 {
		c.StateCacheSize = state.DefaultCacheSize
	}
}

// Validate checks the config as a whole.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log-level")
	}
	if _, err := log.ParseFormat(c.LogFormat); err != nil {
		return errors.Wrap(err, "log-format")
	}
	if c.LevelDB.CacheSize < 0 || c.LevelDB.OpenFilesCacheCapacity < 0 {
		return errors.New("leveldb: sizes must not be negative")
	}
	if c.StateCacheSize < 0 {
		return errors.New("state-cache-size must not be negative")
	}
	if _, err := c.Params(); err != nil {
		return errors.Wrap(err, "genesis params")
	}
	if len(c.Genesis.Authorized) == 0 {
		return errors.New("genesis: at least one authorized address")
	}

	seen := make(map[ids.Address]bool)
	for _, a := range c.Genesis.Accounts {
		if seen[a.Address] {
			return errors.Errorf("genesis: duplicate account %v", a.Address)
		}
		seen[a.Address] = true
		for name, v := range map[string]*big.Int{"stake": a.Stake, "rewards": a.Rewards} {
			if v != nil && v.Sign() < 0 {
				return errors.Errorf("genesis: %v: %s must not be negative", a.Address, name)
			}
		}
	}
	if c.Genesis.RewardFund != nil && c.Genesis.RewardFund.Sign() < 0 {
		return errors.New("genesis: reward-fund must not be negative")
	}
	exchanges := make(map[ids.Address]bool)
	for _, ex := range c.Genesis.Exchanges {
		if exchanges[ex] {
			return errors.Errorf("genesis: duplicate exchange %v", ex)
		}
		exchanges[ex] = true
	}
	return nil
}

// Params returns the default staking parameters with the configured
// overrides applied.
func (c *Config) Params() (*params.Params, error) {
	p := params.Default()
	o := c.Genesis.Params
	if o.EpochDurationInSeconds != nil {
		p.EpochDurationInSeconds = *o.EpochDurationInSeconds
	}
	if o.RewardDelegatedStakeWeight != nil {
		p.RewardDelegatedStakeWeight = *o.RewardDelegatedStakeWeight
	}
	if o.MinimumPoolStake != nil {
		p.MinimumPoolStake = new(big.Int).Set(o.MinimumPoolStake)
	}
	if o.CobbDouglasAlpha != nil {
		p.CobbDouglasAlphaNumerator = o.CobbDouglasAlpha.Numerator
		p.CobbDouglasAlphaDenominator = o.CobbDouglasAlpha.Denominator
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
