// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package aggregation

import (
	"math/big"
)

// PoolStats is what a pool collected in one epoch. The stake figures are
// taken once, on the first fee credited to the pool in that epoch.
type PoolStats struct {
	FeesCollected *big.Int
	WeightedStake *big.Int
	MembersStake  *big.Int
}

// IsEmpty is true for pools that earned nothing, or were already finalized.
func (p *PoolStats) IsEmpty() bool {
	return p == nil || p.FeesCollected == nil || p.FeesCollected.Sign() == 0
}

// AggregatedStats covers every pool of one epoch. RewardsAvailable is
// snapshotted when the epoch ends.
type AggregatedStats struct {
	RewardsAvailable      *big.Int
	NumPoolsToFinalize    uint64
	TotalFeesCollected    *big.Int
	TotalWeightedStake    *big.Int
	TotalRewardsFinalized *big.Int
}

// RewardsRemaining is what finalization has not handed out yet.
func (a *AggregatedStats) RewardsRemaining() *big.Int {
	remaining := new(big.Int).Sub(a.RewardsAvailable, a.TotalRewardsFinalized)
	if remaining.Sign() < 0 {
		return new(big.Int)
	}
	return remaining
}
