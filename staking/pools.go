// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/staking/pools"
)

// GetStakingPool returns the pool, or an InvalidPool revert.
func (s *Staking) GetStakingPool(id ids.PoolID) (p *pools.Pool, err error) {
	err = s.view(func() error {
		p, err = s.poolService.Get(id)
		return err
	})
	return
}

func (s *Staking) PoolIDByMaker(maker ids.Address) (id ids.PoolID, err error) {
	err = s.view(func() error {
		id, err = s.poolService.PoolIDByMaker(maker)
		return err
	})
	return
}

func (s *Staking) LastPoolID() (id ids.PoolID, err error) {
	err = s.view(func() error {
		id, err = s.poolService.LastPoolID()
		return err
	})
	return
}

// CreateStakingPool creates a pool operated by caller, optionally joining
// it as a maker.
func (s *Staking) CreateStakingPool(caller ids.Address, operatorShare uint32, addOperatorAsMaker bool) (id ids.PoolID, err error) {
	logger.Debug("creating staking pool", "operator", caller, "share", operatorShare, "maker", addOperatorAsMaker)

	err = s.execute("create_pool", func() error {
		id, err = s.poolService.Create(caller, operatorShare)
		if err != nil {
			return err
		}
		s.emit(StakingPoolCreatedEvent{Pool: id, Operator: caller, OperatorShare: operatorShare})
		if addOperatorAsMaker {
			return s.joinAsMaker(caller, id)
		}
		return nil
	})
	if err != nil {
		logger.Info("create staking pool failed", "operator", caller, "error", err)
		return 0, err
	}

	logger.Info("created staking pool", "pool", id, "operator", caller)
	return id, nil
}

// DecreaseStakingPoolOperatorShare lowers the share the operator keeps.
func (s *Staking) DecreaseStakingPoolOperatorShare(caller ids.Address, id ids.PoolID, share uint32) error {
	logger.Debug("decreasing operator share", "caller", caller, "pool", id, "share", share)

	err := s.execute("decrease_operator_share", func() error {
		prev, err := s.poolService.DecreaseOperatorShare(caller, id, share)
		if err != nil {
			return err
		}
		s.emit(OperatorShareDecreasedEvent{Pool: id, OldShare: prev, NewShare: share})
		return nil
	})
	if err != nil {
		logger.Info("decrease operator share failed", "pool", id, "error", err)
		return err
	}

	logger.Info("decreased operator share", "pool", id, "share", share)
	return nil
}

// JoinStakingPoolAsMaker attributes caller's fees to id from now on. The
// nil pool leaves the current one.
func (s *Staking) JoinStakingPoolAsMaker(caller ids.Address, id ids.PoolID) error {
	logger.Debug("joining staking pool", "maker", caller, "pool", id)

	err := s.execute("join_pool", func() error {
		return s.joinAsMaker(caller, id)
	})
	if err != nil {
		logger.Info("join staking pool failed", "maker", caller, "error", err)
		return err
	}
	return nil
}

func (s *Staking) joinAsMaker(maker ids.Address, id ids.PoolID) error {
	if err := s.poolService.SetMakerPool(maker, id); err != nil {
		return err
	}
	s.emit(MakerStakingPoolSetEvent{Maker: maker, Pool: id})
	return nil
}
