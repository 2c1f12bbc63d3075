// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/staking/params"
	"github.com/vechain/stakeledger/staking/stakes"
)

// Event is emitted by a successful operation. Events of an operation are
// delivered in order, after its changes are committed.
type Event interface {
	Name() string
}

type StakeEvent struct {
	Staker ids.Address
	Amount *big.Int
}

type UnstakeEvent struct {
	Staker ids.Address
	Amount *big.Int
}

type MoveStakeEvent struct {
	Staker     ids.Address
	Amount     *big.Int
	FromStatus stakes.Status
	FromPool   ids.PoolID
	ToStatus   stakes.Status
	ToPool     ids.PoolID
}

type StakingPoolCreatedEvent struct {
	Pool          ids.PoolID
	Operator      ids.Address
	OperatorShare uint32
}

type OperatorShareDecreasedEvent struct {
	Pool     ids.PoolID
	OldShare uint32
	NewShare uint32
}

type MakerStakingPoolSetEvent struct {
	Maker ids.Address
	Pool  ids.PoolID
}

type StakingPoolEarnedRewardsInEpochEvent struct {
	Epoch uint64
	Pool  ids.PoolID
}

type EpochEndedEvent struct {
	Epoch              uint64
	NumPoolsToFinalize uint64
	RewardsAvailable   *big.Int
	TotalFeesCollected *big.Int
	TotalWeightedStake *big.Int
}

type EpochFinalizedEvent struct {
	Epoch            uint64
	RewardsPaid      *big.Int
	RewardsRemaining *big.Int
}

type RewardsPaidEvent struct {
	Epoch          uint64
	Pool           ids.PoolID
	OperatorReward *big.Int
	MembersReward  *big.Int
}

type DelegatorRewardsWithdrawnEvent struct {
	Delegator ids.Address
	Pool      ids.PoolID
	Amount    *big.Int
}

type ParamsSetEvent struct {
	Params *params.Params
}

type ExchangeAddedEvent struct {
	Exchange ids.Address
}

type ExchangeRemovedEvent struct {
	Exchange ids.Address
}

type CatastrophicFailureEvent struct {
	Sender ids.Address
}

type WithdrawAllEvent struct {
	Staker ids.Address
	Amount *big.Int
}

func (StakeEvent) Name() string                           { return "Stake" }
func (UnstakeEvent) Name() string                         { return "Unstake" }
func (MoveStakeEvent) Name() string                       { return "MoveStake" }
func (StakingPoolCreatedEvent) Name() string              { return "StakingPoolCreated" }
func (OperatorShareDecreasedEvent) Name() string          { return "OperatorShareDecreased" }
func (MakerStakingPoolSetEvent) Name() string             { return "MakerStakingPoolSet" }
func (StakingPoolEarnedRewardsInEpochEvent) Name() string { return "StakingPoolEarnedRewardsInEpoch" }
func (EpochEndedEvent) Name() string                      { return "EpochEnded" }
func (EpochFinalizedEvent) Name() string                  { return "EpochFinalized" }
func (RewardsPaidEvent) Name() string                     { return "RewardsPaid" }
func (DelegatorRewardsWithdrawnEvent) Name() string       { return "DelegatorRewardsWithdrawn" }
func (ParamsSetEvent) Name() string                       { return "ParamsSet" }
func (ExchangeAddedEvent) Name() string                   { return "ExchangeAdded" }
func (ExchangeRemovedEvent) Name() string                 { return "ExchangeRemoved" }
func (CatastrophicFailureEvent) Name() string             { return "InCatastrophicFailureMode" }
func (WithdrawAllEvent) Name() string                     { return "WithdrawAll" }
