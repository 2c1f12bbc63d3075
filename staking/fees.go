// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/staking/params"
	"github.com/vechain/stakeledger/staking/reverts"
)

// IsValidExchange reports whether addr may pay protocol fees.
func (s *Staking) IsValidExchange(addr ids.Address) (ok bool, err error) {
	err = s.view(func() error {
		ok, err = s.exchanges.Get(addr)
		return err
	})
	return
}

func (s *Staking) AddExchangeAddress(caller, addr ids.Address) error {
	logger.Debug("adding exchange", "caller", caller, "exchange", addr)

	err := s.execute("add_exchange", func() error {
		if err := s.assertAuthorized(caller); err != nil {
			return err
		}
		ok, err := s.exchanges.Get(addr)
		if err != nil {
			return err
		}
		if ok {
			return reverts.Newf(reverts.ExchangeAlreadyRegistered, "exchange %v already registered", addr)
		}
		if err := s.exchanges.Set(addr, true); err != nil {
			return err
		}
		s.emit(ExchangeAddedEvent{Exchange: addr})
		return nil
	})
	if err != nil {
		logger.Info("add exchange failed", "exchange", addr, "error", err)
		return err
	}

	logger.Info("added exchange", "exchange", addr)
	return nil
}

func (s *Staking) RemoveExchangeAddress(caller, addr ids.Address) error {
	logger.Debug("removing exchange", "caller", caller, "exchange", addr)

	err := s.execute("remove_exchange", func() error {
		if err := s.assertAuthorized(caller); err != nil {
			return err
		}
		ok, err := s.exchanges.Get(addr)
		if err != nil {
			return err
		}
		if !ok {
			return reverts.Newf(reverts.ExchangeNotRegistered, "exchange %v not registered", addr)
		}
		s.exchanges.Delete(addr)
		s.emit(ExchangeRemovedEvent{Exchange: addr})
		return nil
	})
	if err != nil {
		logger.Info("remove exchange failed", "exchange", addr, "error", err)
		return err
	}

	logger.Info("removed exchange", "exchange", addr)
	return nil
}

// PayProtocolFee credits a fee paid by payer on a fill of maker's order to
// the maker's pool for the current epoch. Only registered exchanges may
// call it. Fees of makers without a pool, or of pools below the minimum
// stake, are kept but earn the pool nothing.
func (s *Staking) PayProtocolFee(caller, maker, payer ids.Address, amount *big.Int) error {
	logger.Debug("paying protocol fee", "exchange", caller, "maker", maker, "payer", payer, "amount", amount)
	if err := checkAmount(amount); err != nil {
		return err
	}

	err := s.execute("pay_protocol_fee", func() error {
		ok, err := s.exchanges.Get(caller)
		if err != nil {
			return err
		}
		if !ok {
			return reverts.Newf(reverts.OnlyCallableByExchange, "%v is not a registered exchange", caller)
		}
		if amount.Sign() == 0 {
			return nil
		}
		if collector, ok := s.payer.(FeeCollector); ok {
			if err := collector.Collect(payer, amount); err != nil {
				return err
			}
		}
		return s.creditFee(maker, amount)
	})
	if err != nil {
		logger.Info("pay protocol fee failed", "exchange", caller, "maker", maker, "error", err)
		return err
	}
	return nil
}

func (s *Staking) creditFee(maker ids.Address, amount *big.Int) error {
	pool, err := s.poolService.PoolIDByMaker(maker)
	if err != nil {
		return err
	}
	if pool.IsNil() {
		return nil
	}
	cur, err := s.currentEpoch()
	if err != nil {
		return err
	}
	p, err := s.params.Get()
	if err != nil {
		return err
	}
	total, err := s.stakeService.PoolTotal(pool, cur)
	if err != nil {
		return err
	}
	if total.CurrentEpochBalance.Cmp(p.MinimumPoolStake) < 0 {
		logger.Trace("pool below minimum stake", "pool", pool, "stake", total.CurrentEpochBalance)
		return nil
	}

	first, err := s.aggregationService.CreditFee(cur, pool, amount, func() (*big.Int, *big.Int, error) {
		return s.weightedStake(pool, total.CurrentEpochBalance, cur, p)
	})
	if err != nil {
		return err
	}
	metricFeesCredited().Add(1)
	if first {
		s.emit(StakingPoolEarnedRewardsInEpochEvent{Epoch: cur, Pool: pool})
	}
	return nil
}

// weightedStake counts the operator's own stake in full and members' stake
// at the delegated stake weight.
func (s *Staking) weightedStake(pool ids.PoolID, total *big.Int, cur uint64, p *params.Params) (weighted, members *big.Int, err error) {
	pl, err := s.poolService.Get(pool)
	if err != nil {
		return nil, nil, err
	}
	own, err := s.stakeService.DelegatedToPool(pl.Operator, pool, cur)
	if err != nil {
		return nil, nil, err
	}
	operatorStake := own.CurrentEpochBalance
	members = new(big.Int).Sub(total, operatorStake)

	weighted = new(big.Int).Mul(members, big.NewInt(int64(p.RewardDelegatedStakeWeight)))
	weighted.Quo(weighted, big.NewInt(params.PPMDenominator))
	weighted.Add(weighted, operatorStake)
	return weighted, members, nil
}
