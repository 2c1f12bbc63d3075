// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/staking/aggregation"
	"github.com/vechain/stakeledger/staking/cobbdouglas"
	"github.com/vechain/stakeledger/staking/lazybalance"
	"github.com/vechain/stakeledger/staking/params"
	"github.com/vechain/stakeledger/staking/reverts"
)

// WithdrawDelegatorRewards pays owner everything earned in pool so far.
func (s *Staking) WithdrawDelegatorRewards(owner ids.Address, pool ids.PoolID) (reward *big.Int, err error) {
	logger.Debug("withdrawing delegator rewards", "owner", owner, "pool", pool)

	err = s.execute("withdraw_rewards", func() error {
		cur, err := s.currentEpoch()
		if err != nil {
			return err
		}
		if _, err := s.poolService.Get(pool); err != nil {
			return err
		}
		reward, err = s.withdrawAndSync(owner, pool, cur)
		return err
	})
	if err != nil {
		logger.Info("withdraw delegator rewards failed", "owner", owner, "pool", pool, "error", err)
		return nil, err
	}

	logger.Info("withdrew delegator rewards", "owner", owner, "pool", pool, "reward", reward)
	return reward, nil
}

// ComputeRewardBalanceOfDelegator returns what owner would withdraw from
// pool now, plus its share of the pool's rewards for the previous epoch if
// those are not finalized yet. It is always zero for the pool operator.
func (s *Staking) ComputeRewardBalanceOfDelegator(pool ids.PoolID, owner ids.Address) (reward *big.Int, err error) {
	err = s.view(func() error {
		cur, err := s.currentEpoch()
		if err != nil {
			return err
		}
		stored, err := s.stakeService.StoredDelegatedToPool(owner, pool)
		if err != nil {
			return err
		}
		if reward, err = s.delegatorReward(pool, owner, stored, cur); err != nil {
			return err
		}
		if member, err := s.isMember(pool, owner); err != nil || !member {
			return err
		}
		_, membersReward, membersStake, err := s.unfinalizedPoolReward(pool, cur)
		if err != nil {
			return err
		}
		if membersReward.Sign() == 0 || membersStake.Sign() == 0 {
			return nil
		}
		// unfinalized rewards were earned with the stake of the previous epoch
		stake := stored.NextEpochBalance
		if stored.CurrentEpoch+1 >= cur {
			stake = stored.CurrentEpochBalance
		}
		if stake == nil || stake.Sign() == 0 {
			return nil
		}
		share := new(big.Int).Mul(membersReward, stake)
		reward.Add(reward, share.Quo(share, membersStake))
		return nil
	})
	return
}

// ComputeRewardBalanceOfOperator returns the operator's share of the pool's
// rewards for the previous epoch if those are not finalized yet. Finalized
// operator rewards are paid right away.
func (s *Staking) ComputeRewardBalanceOfOperator(pool ids.PoolID) (reward *big.Int, err error) {
	err = s.view(func() error {
		cur, err := s.currentEpoch()
		if err != nil {
			return err
		}
		reward, _, _, err = s.unfinalizedPoolReward(pool, cur)
		return err
	})
	return
}

// withdrawAndSync pays owner the reward accrued in pool since its
// delegated balance was last stored, stores the balance loaded at cur and
// checkpoints the pool's cumulative reward at cur.
func (s *Staking) withdrawAndSync(owner ids.Address, pool ids.PoolID, cur uint64) (*big.Int, error) {
	if err := s.assertPoolFinalized(pool, cur); err != nil {
		return nil, err
	}
	stored, err := s.stakeService.StoredDelegatedToPool(owner, pool)
	if err != nil {
		return nil, err
	}
	reward, err := s.delegatorReward(pool, owner, stored, cur)
	if err != nil {
		return nil, err
	}
	if err := s.stakeService.SetDelegatedToPool(owner, pool, lazybalance.LoadAt(stored, cur)); err != nil {
		return nil, err
	}
	if reward.Sign() > 0 {
		if err := s.rewardService.DecreasePoolRewards(pool, reward); err != nil {
			return nil, err
		}
		if err := s.payer.Pay(owner, reward); err != nil {
			return nil, err
		}
		s.emit(DelegatorRewardsWithdrawnEvent{Delegator: owner, Pool: pool, Amount: new(big.Int).Set(reward)})
	}
	if err := s.rewardService.Update(pool, cur); err != nil {
		return nil, err
	}
	return reward, nil
}

// isMember reports whether owner shares in the members reward of pool.
// The operator's own stake is paid through the operator share instead.
func (s *Staking) isMember(pool ids.PoolID, owner ids.Address) (bool, error) {
	ok, err := s.poolService.Exists(pool)
	if err != nil || !ok {
		return false, err
	}
	pl, err := s.poolService.Get(pool)
	if err != nil {
		return false, err
	}
	return pl.Operator != owner, nil
}

// delegatorReward is the finalized reward of a delegated balance stored in
// epoch E: its current balance earned over [E, E+1), its next balance over
// [E+1, cur).
func (s *Staking) delegatorReward(pool ids.PoolID, owner ids.Address, stored *lazybalance.Balance, cur uint64) (*big.Int, error) {
	b := stored.Copy()
	if b.CurrentEpoch >= cur {
		return new(big.Int), nil
	}
	if member, err := s.isMember(pool, owner); err != nil || !member {
		return new(big.Int), err
	}
	reward, err := s.rewardService.MemberRewardOverInterval(pool, b.CurrentEpochBalance, b.CurrentEpoch, b.CurrentEpoch+1)
	if err != nil {
		return nil, err
	}
	if b.CurrentEpoch+1 < cur {
		more, err := s.rewardService.MemberRewardOverInterval(pool, b.NextEpochBalance, b.CurrentEpoch+1, cur)
		if err != nil {
			return nil, err
		}
		reward.Add(reward, more)
	}
	// rounding never lets a settlement take more than the pot holds
	pot, err := s.rewardService.RewardsByPool(pool)
	if err != nil {
		return nil, err
	}
	if reward.Cmp(pot) > 0 {
		reward.Set(pot)
	}
	return reward, nil
}

func (s *Staking) assertPoolFinalized(pool ids.PoolID, cur uint64) error {
	if cur <= 1 {
		return nil
	}
	stats, err := s.aggregationService.PoolStats(cur-1, pool)
	if err != nil {
		return err
	}
	if !stats.IsEmpty() {
		return reverts.Newf(reverts.PoolNotFinalized, "pool %v not finalized for epoch %d", pool, cur-1)
	}
	return nil
}

// unfinalizedPoolReward returns the split of the reward pool would get if
// it were finalized for the previous epoch now.
func (s *Staking) unfinalizedPoolReward(pool ids.PoolID, cur uint64) (operatorReward, membersReward, membersStake *big.Int, err error) {
	operatorReward, membersReward, membersStake = new(big.Int), new(big.Int), new(big.Int)
	if cur <= 1 {
		return
	}
	stats, err := s.aggregationService.PoolStats(cur-1, pool)
	if err != nil || stats.IsEmpty() {
		return
	}
	agg, err := s.aggregationService.Aggregated(cur - 1)
	if err != nil {
		return
	}
	p, err := s.params.Get()
	if err != nil {
		return
	}
	total, err := poolReward(stats, agg, p)
	if err != nil {
		return
	}
	pl, err := s.poolService.Get(pool)
	if err != nil {
		return
	}
	operatorReward, membersReward = splitReward(pl.OperatorShare, total, stats.MembersStake)
	return operatorReward, membersReward, stats.MembersStake, nil
}

// poolReward is the Cobb-Douglas reward of a pool, capped by what the
// epoch has left to hand out.
func poolReward(stats *aggregation.PoolStats, agg *aggregation.AggregatedStats, p *params.Params) (*big.Int, error) {
	if stats.IsEmpty() {
		return new(big.Int), nil
	}
	reward, err := cobbdouglas.Reward(&cobbdouglas.Input{
		TotalRewards:     agg.RewardsAvailable,
		Fees:             stats.FeesCollected,
		TotalFees:        agg.TotalFeesCollected,
		Stake:            stats.WeightedStake,
		TotalStake:       agg.TotalWeightedStake,
		AlphaNumerator:   p.CobbDouglasAlphaNumerator,
		AlphaDenominator: p.CobbDouglasAlphaDenominator,
	})
	if err != nil {
		return nil, err
	}
	if remaining := agg.RewardsRemaining(); remaining.Cmp(reward) < 0 {
		reward = remaining
	}
	return reward, nil
}

// splitReward rounds the operator reward up. Without members the operator
// takes everything.
func splitReward(operatorShare uint32, total, membersStake *big.Int) (operatorReward, membersReward *big.Int) {
	if membersStake.Sign() == 0 {
		return new(big.Int).Set(total), new(big.Int)
	}
	ppm := big.NewInt(params.PPMDenominator)
	operatorReward = new(big.Int).Mul(total, big.NewInt(int64(operatorShare)))
	operatorReward.Add(operatorReward, new(big.Int).Sub(ppm, big.NewInt(1)))
	operatorReward.Quo(operatorReward, ppm)
	return operatorReward, new(big.Int).Sub(total, operatorReward)
}
