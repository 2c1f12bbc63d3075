// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"time"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/staking/aggregation"
	"github.com/vechain/stakeledger/staking/reverts"
)

func (s *Staking) CurrentEpoch() (epoch uint64, err error) {
	err = s.view(func() error {
		epoch, err = s.currentEpoch()
		return err
	})
	return
}

// CurrentEpochEarliestEndTime is the first unix time EndEpoch may succeed.
func (s *Staking) CurrentEpochEarliestEndTime() (end uint64, err error) {
	err = s.view(func() error {
		p, err := s.params.Get()
		if err != nil {
			return err
		}
		end, err = s.epochService.EarliestEndTime(p.EpochDurationInSeconds)
		return err
	})
	return
}

func (s *Staking) AggregatedStatsByEpoch(epoch uint64) (stats *aggregation.AggregatedStats, err error) {
	err = s.view(func() error {
		stats, err = s.aggregationService.Aggregated(epoch)
		return err
	})
	return
}

func (s *Staking) PoolStatsByEpoch(pool ids.PoolID, epoch uint64) (stats *aggregation.PoolStats, err error) {
	err = s.view(func() error {
		stats, err = s.aggregationService.PoolStats(epoch, pool)
		return err
	})
	return
}

// EndEpoch closes the current epoch and starts the next one. It returns
// the number of pools that now need FinalizePool. The previous epoch must
// be fully finalized and the epoch duration must have passed.
func (s *Staking) EndEpoch() (numPools uint64, err error) {
	logger.Debug("ending epoch")

	var ended uint64
	err = s.execute("end_epoch", func() error {
		cur, err := s.currentEpoch()
		if err != nil {
			return err
		}
		ended = cur

		prev, err := s.aggregationService.Aggregated(cur - 1)
		if err != nil {
			return err
		}
		if prev.NumPoolsToFinalize != 0 {
			return reverts.Newf(reverts.PreviousEpochNotFinalized, "epoch %d has %d pools to finalize", cur-1, prev.NumPoolsToFinalize)
		}

		available, err := s.payer.AvailableBalance()
		if err != nil {
			return err
		}
		reserved, err := s.rewardService.Reserved()
		if err != nil {
			return err
		}
		available = new(big.Int).Sub(available, reserved)
		if available.Sign() < 0 {
			available.SetInt64(0)
		}

		agg, err := s.aggregationService.Aggregated(cur)
		if err != nil {
			return err
		}
		agg.RewardsAvailable = available
		if err := s.aggregationService.SetAggregated(cur, agg); err != nil {
			return err
		}
		s.emit(EpochEndedEvent{
			Epoch:              cur,
			NumPoolsToFinalize: agg.NumPoolsToFinalize,
			RewardsAvailable:   new(big.Int).Set(available),
			TotalFeesCollected: new(big.Int).Set(agg.TotalFeesCollected),
			TotalWeightedStake: new(big.Int).Set(agg.TotalWeightedStake),
		})

		p, err := s.params.Get()
		if err != nil {
			return err
		}
		if _, err := s.epochService.Advance(s.clock.Now(), p.EpochDurationInSeconds); err != nil {
			return err
		}

		numPools = agg.NumPoolsToFinalize
		if numPools == 0 {
			s.emit(EpochFinalizedEvent{Epoch: cur, RewardsPaid: new(big.Int), RewardsRemaining: new(big.Int).Set(available)})
		}
		return nil
	})
	if err != nil {
		logger.Info("end epoch failed", "error", err)
		return 0, err
	}

	metricCurrentEpoch().Set(int64(ended + 1))
	metricPoolsToFinalize().Set(int64(numPools))
	logger.Info("ended epoch", "epoch", ended, "poolsToFinalize", numPools)
	return numPools, nil
}

// FinalizePool pays out the rewards pool earned in the previous epoch. It
// is a no-op for pools that earned nothing or are already finalized.
func (s *Staking) FinalizePool(pool ids.PoolID) error {
	logger.Debug("finalizing pool", "pool", pool)
	start := time.Now()

	var remaining uint64
	err := s.execute("finalize_pool", func() error {
		cur, err := s.currentEpoch()
		if err != nil {
			return err
		}
		if cur <= 1 {
			return nil
		}
		prev := cur - 1

		agg, err := s.aggregationService.Aggregated(prev)
		if err != nil {
			return err
		}
		remaining = agg.NumPoolsToFinalize
		if agg.NumPoolsToFinalize == 0 {
			return nil
		}
		stats, err := s.aggregationService.PoolStats(prev, pool)
		if err != nil {
			return err
		}
		if stats.IsEmpty() {
			return nil
		}
		s.aggregationService.DeletePoolStats(prev, pool)

		p, err := s.params.Get()
		if err != nil {
			return err
		}
		reward, err := poolReward(stats, agg, p)
		if err != nil {
			return err
		}
		operatorReward, membersReward, err := s.syncPoolRewards(pool, reward, stats.MembersStake, cur)
		if err != nil {
			return err
		}
		s.emit(RewardsPaidEvent{Epoch: cur, Pool: pool, OperatorReward: operatorReward, MembersReward: membersReward})

		agg.TotalRewardsFinalized.Add(agg.TotalRewardsFinalized, operatorReward)
		agg.TotalRewardsFinalized.Add(agg.TotalRewardsFinalized, membersReward)
		agg.NumPoolsToFinalize--
		remaining = agg.NumPoolsToFinalize
		if err := s.aggregationService.SetAggregated(prev, agg); err != nil {
			return err
		}
		if agg.NumPoolsToFinalize == 0 {
			s.emit(EpochFinalizedEvent{
				Epoch:            prev,
				RewardsPaid:      new(big.Int).Set(agg.TotalRewardsFinalized),
				RewardsRemaining: agg.RewardsRemaining(),
			})
		}
		return nil
	})
	if err != nil {
		logger.Info("finalize pool failed", "pool", pool, "error", err)
		return err
	}

	metricPoolsToFinalize().Set(int64(remaining))
	metrics.ObserveMillis(metricFinalizeDuration(), start)
	logger.Info("finalized pool", "pool", pool, "poolsToFinalize", remaining)
	return nil
}

// syncPoolRewards pays the operator share right away and moves the
// members share into the pool's pot.
func (s *Staking) syncPoolRewards(pool ids.PoolID, reward, membersStake *big.Int, cur uint64) (operatorReward, membersReward *big.Int, err error) {
	pl, err := s.poolService.Get(pool)
	if err != nil {
		return nil, nil, err
	}
	operatorReward, membersReward = splitReward(pl.OperatorShare, reward, membersStake)
	if operatorReward.Sign() > 0 {
		if err := s.payer.Pay(pl.Operator, operatorReward); err != nil {
			return nil, nil, err
		}
	}
	if membersReward.Sign() > 0 {
		if err := s.rewardService.IncreasePoolRewards(pool, membersReward); err != nil {
			return nil, nil, err
		}
		if err := s.rewardService.Add(pool, membersReward, membersStake, cur); err != nil {
			return nil, nil, err
		}
	}
	return operatorReward, membersReward, nil
}
