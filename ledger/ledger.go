// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger assembles a staking ledger from a deployment config: the
// leveldb store, the journaled state, both token ledgers, the vault, the
// reward payer and the staking engine.
package ledger

import (
	"os"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/config"
	"github.com/vechain/stakeledger/genesis"
	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/staking"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/storage"
	"github.com/vechain/stakeledger/token"
	"github.com/vechain/stakeledger/vault"
)

var logger = log.WithContext("pkg", "ledger")

var (
	StakeTokenAddress  = ids.NamedAddress("stake-token")
	RewardTokenAddress = ids.NamedAddress("reward-token")
	VaultAddress       = ids.NamedAddress("vault")
	PayerAddress       = ids.NamedAddress("reward-payer")
)

// Setup installs the root logger and, when enabled, prometheus metrics.
// Call it before Open.
func Setup(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	format, err := log.ParseFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	log.SetDefault(log.NewLogger(log.NewHandler(os.Stderr, format, level)))
	if cfg.Metrics {
		metrics.InitializePrometheusMetrics()
	}
	return nil
}

type Ledger struct {
	db          *lvldb.LevelDB
	state       *state.State
	stakeToken  *token.Ledger
	rewardToken *token.Ledger
	vault       *vault.Vault
	payer       *vault.Payer
	staking     *staking.Staking
	genesisID   ids.Bytes32
}

// Open opens the store in cfg.DataDir, or an in-memory one when it is
// empty, and builds gen into it if the store is new. A store built from a
// different genesis is rejected.
func Open(cfg *config.Config, gen *genesis.Genesis, clock staking.Clock) (*Ledger, error) {
	var (
		db  *lvldb.LevelDB
		err error
	)
	if cfg.DataDir == "" {
		db, err = lvldb.NewMem()
	} else {
		db, err = lvldb.New(cfg.DataDir, cfg.LevelDB)
	}
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	l, err := open(db, cfg, gen, clock)
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func open(db *lvldb.LevelDB, cfg *config.Config, gen *genesis.Genesis, clock staking.Clock) (*Ledger, error) {
	st, err := state.New(db, cfg.StateCacheSize)
	if err != nil {
		return nil, err
	}

	l := &Ledger{
		db:          db,
		state:       st,
		stakeToken:  token.New(storage.NewContext(StakeTokenAddress, st)),
		rewardToken: token.New(storage.NewContext(RewardTokenAddress, st)),
	}
	l.vault = vault.New(storage.NewContext(VaultAddress, st), l.stakeToken)
	l.payer = vault.NewPayer(PayerAddress, l.rewardToken)
	l.staking = staking.New(st, l.vault, l.payer, clock, staking.NewAllowList(gen.Authorized()...))

	stored, err := genesis.StoredID(st)
	if err != nil {
		return nil, err
	}
	switch {
	case stored.IsZero():
		logger.Info("building genesis", "name", gen.Name(), "id", gen.ID())
		if err := gen.Build(&genesis.Target{
			State:       st,
			Staking:     l.staking,
			StakeToken:  l.stakeToken,
			RewardToken: l.rewardToken,
			Payer:       l.payer,
		}); err != nil {
			return nil, errors.Wrap(err, "build genesis")
		}
	case stored != gen.ID():
		return nil, errors.Errorf("genesis mismatch: store has %v, want %v", stored, gen.ID())
	}
	l.genesisID = gen.ID()

	epoch, err := l.staking.CurrentEpoch()
	if err != nil {
		return nil, err
	}
	logger.Info("ledger opened", "genesis", l.genesisID, "epoch", epoch)
	return l, nil
}

func (l *Ledger) Staking() *staking.Staking  { return l.staking }
func (l *Ledger) StakeToken() *token.Ledger  { return l.stakeToken }
func (l *Ledger) RewardToken() *token.Ledger { return l.rewardToken }
func (l *Ledger) Vault() *vault.Vault        { return l.vault }
func (l *Ledger) Payer() *vault.Payer        { return l.payer }
func (l *Ledger) GenesisID() ids.Bytes32     { return l.genesisID }

// Commit persists token writes made outside staking operations, such as
// mints.
func (l *Ledger) Commit() error {
	return l.state.Commit()
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
