// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package aggregation

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/storage"
)

var (
	slotPoolStats  = storage.Slot("aggregation-pool-stats")
	slotAggregated = storage.Slot("aggregation-epoch-stats")
)

type epochKey uint64

func (k epochKey) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

type poolKey struct {
	epoch uint64
	pool  ids.PoolID
}

func (k poolKey) Bytes() []byte {
	return binary.BigEndian.AppendUint64(k.pool.Bytes(), k.epoch)
}

// StakeSnapshot yields the weighted and members stake of a pool.
type StakeSnapshot func() (weighted, members *big.Int, err error)

type Service struct {
	poolStats  *storage.Mapping[poolKey, *PoolStats]
	aggregated *storage.Mapping[epochKey, *AggregatedStats]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		poolStats:  storage.NewMapping[poolKey, *PoolStats](sctx, slotPoolStats),
		aggregated: storage.NewMapping[epochKey, *AggregatedStats](sctx, slotAggregated),
	}
}

func (s *Service) PoolStats(epoch uint64, pool ids.PoolID) (*PoolStats, error) {
	p, err := s.poolStats.Get(poolKey{epoch, pool})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool stats")
	}
	fill(&p.FeesCollected, &p.WeightedStake, &p.MembersStake)
	return p, nil
}

func (s *Service) DeletePoolStats(epoch uint64, pool ids.PoolID) {
	s.poolStats.Delete(poolKey{epoch, pool})
}

func (s *Service) Aggregated(epoch uint64) (*AggregatedStats, error) {
	a, err := s.aggregated.Get(epochKey(epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get aggregated stats")
	}
	fill(&a.RewardsAvailable, &a.TotalFeesCollected, &a.TotalWeightedStake, &a.TotalRewardsFinalized)
	return a, nil
}

func (s *Service) SetAggregated(epoch uint64, a *AggregatedStats) error {
	if err := s.aggregated.Set(epochKey(epoch), a); err != nil {
		return errors.Wrap(err, "failed to set aggregated stats")
	}
	return nil
}

// CreditFee adds fee to the pool in epoch. The first credit of the epoch
// also records the stake snapshot and counts the pool for finalization;
// first reports whether this was it.
func (s *Service) CreditFee(epoch uint64, pool ids.PoolID, fee *big.Int, snapshot StakeSnapshot) (first bool, err error) {
	p, err := s.PoolStats(epoch, pool)
	if err != nil {
		return false, err
	}
	a, err := s.Aggregated(epoch)
	if err != nil {
		return false, err
	}
	if p.IsEmpty() {
		weighted, members, err := snapshot()
		if err != nil {
			return false, err
		}
		p.WeightedStake = weighted
		p.MembersStake = members
		a.NumPoolsToFinalize++
		a.TotalWeightedStake.Add(a.TotalWeightedStake, weighted)
		first = true
	}
	p.FeesCollected.Add(p.FeesCollected, fee)
	a.TotalFeesCollected.Add(a.TotalFeesCollected, fee)

	if err := s.poolStats.Set(poolKey{epoch, pool}, p); err != nil {
		return false, errors.Wrap(err, "failed to set pool stats")
	}
	if err := s.SetAggregated(epoch, a); err != nil {
		return false, err
	}
	return first, nil
}

func fill(fields ...**big.Int) {
	for _, f := range fields {
		if *f == nil {
			*f = new(big.Int)
		}
	}
}
