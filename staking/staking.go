// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking is the staking and reward ledger. Owners stake tokens and
// delegate them to pools, protocol fees earned by the makers of a pool are
// turned into rewards at the end of each epoch and split between the pool
// operator and its delegators.
package staking

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/staking/aggregation"
	"github.com/vechain/stakeledger/staking/epoch"
	"github.com/vechain/stakeledger/staking/params"
	"github.com/vechain/stakeledger/staking/pools"
	"github.com/vechain/stakeledger/staking/reverts"
	"github.com/vechain/stakeledger/staking/rewards"
	"github.com/vechain/stakeledger/staking/stakes"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/storage"
)

var (
	logger = log.WithContext("pkg", "staking")

	// DefaultAddress namespaces the ledger's storage.
	DefaultAddress = ids.NamedAddress("staking")

	ErrNotInitialized = errors.New("staking: not initialized")
	ErrInvalidAmount  = errors.New("staking: amount must be non-negative")

	slotExchanges = storage.Slot("exchanges")
)

// SetLogger replaces the package logger. It is not safe to call while a
// Staking instance is in use.
func SetLogger(l log.Logger) {
	logger = l
}

// Option configures a Staking instance.
type Option func(*Staking)

// WithAddress stores the ledger under addr instead of DefaultAddress.
func WithAddress(addr ids.Address) Option {
	return func(s *Staking) { s.address = addr }
}

// Staking is the ledger engine. Every public method is serialized and
// atomic: it either commits all of its changes or none.
type Staking struct {
	mu      sync.Mutex
	address ids.Address
	state   *state.State

	vault  Vault
	payer  RewardPayer
	clock  Clock
	authz  Authorizer
	params *params.Service

	stakeService       *stakes.Service
	poolService        *pools.Service
	rewardService      *rewards.Service
	aggregationService *aggregation.Service
	epochService       *epoch.Service
	exchanges          *storage.Mapping[ids.Address, bool]

	events      []Event
	subscribers []func(Event)
}

// New creates the engine over st. The vault and payer are expected to
// write to st as well, so their transfers are reverted with the operation.
func New(st *state.State, vault Vault, payer RewardPayer, clock Clock, authz Authorizer, opts ...Option) *Staking {
	s := &Staking{
		address: DefaultAddress,
		state:   st,
		vault:   vault,
		payer:   payer,
		clock:   clock,
		authz:   authz,
	}
	for _, opt := range opts {
		opt(s)
	}

	sctx := storage.NewContext(s.address, st)
	s.params = params.New(sctx)
	s.stakeService = stakes.New(sctx)
	s.poolService = pools.New(sctx)
	s.rewardService = rewards.New(sctx)
	s.aggregationService = aggregation.New(sctx)
	s.epochService = epoch.New(sctx)
	s.exchanges = storage.NewMapping[ids.Address, bool](sctx, slotExchanges)
	return s
}

// Subscribe registers fn to receive events of committed operations.
func (s *Staking) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Init starts epoch 1 at startTime. It may only be called once.
func (s *Staking) Init(startTime uint64) error {
	return s.execute("init", func() error {
		if err := s.epochService.Init(startTime); err != nil {
			return err
		}
		metricCurrentEpoch().Set(int64(epoch.First))
		logger.Info("staking initialized", "epoch", epoch.First, "start", startTime)
		return nil
	})
}

func (s *Staking) emit(ev Event) {
	s.events = append(s.events, ev)
}

// execute runs fn atomically and dispatches its events once committed.
func (s *Staking) execute(op string, fn func() error) error {
	events, err := s.run(op, fn)
	if err != nil {
		return err
	}
	for _, ev := range events.list {
		for _, sub := range events.subscribers {
			sub(ev)
		}
	}
	return nil
}

type committed struct {
	list        []Event
	subscribers []func(Event)
}

func (s *Staking) run(op string, fn func() error) (committed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkpoint := s.state.NewCheckpoint()
	s.events = nil

	err := fn()
	if err == nil {
		err = s.state.Commit()
	}
	observeOperation(op, err)
	if err != nil {
		s.state.RevertTo(checkpoint)
		s.events = nil
		return committed{}, err
	}

	out := committed{list: s.events, subscribers: s.subscribers}
	s.events = nil
	return out, nil
}

// view runs a read only fn under the lock.
func (s *Staking) view(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Staking) currentEpoch() (uint64, error) {
	cur, err := s.epochService.Current()
	if err != nil {
		return 0, err
	}
	if cur == 0 {
		return 0, ErrNotInitialized
	}
	return cur, nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (s *Staking) assertAuthorized(caller ids.Address) error {
	if s.authz == nil || !s.authz.IsAuthorized(caller) {
		return reverts.Newf(reverts.OnlyCallableByAuthorizedCaller, "%v is not authorized", caller)
	}
	return nil
}

// Params returns the parameters in effect.
func (s *Staking) Params() (p *params.Params, err error) {
	err = s.view(func() error {
		p, err = s.params.Get()
		return err
	})
	return
}

// SetParams replaces every parameter at once.
func (s *Staking) SetParams(caller ids.Address, p *params.Params) error {
	logger.Debug("setting params", "caller", caller, "params", p)
	err := s.execute("set_params", func() error {
		if err := s.assertAuthorized(caller); err != nil {
			return err
		}
		if err := s.params.Set(p); err != nil {
			return err
		}
		s.emit(ParamsSetEvent{Params: p.Copy()})
		return nil
	})
	if err != nil {
		logger.Info("set params failed", "caller", caller, "error", err)
		return err
	}
	logger.Info("params set", "epochDuration", p.EpochDurationInSeconds, "minimumPoolStake", p.MinimumPoolStake)
	return nil
}
