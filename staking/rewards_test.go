// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/ids"
)

func TestWithdrawIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	operator, pool := env.createPool(0)
	delegator := ids.RandAddress()

	env.delegate(delegator, pool, 10)
	env.endEpoch()
	env.payFee(operator, 10)
	env.endEpoch()
	require.NoError(t, env.staking.FinalizePool(pool))

	paid, err := env.staking.WithdrawDelegatorRewards(delegator, pool)
	require.NoError(t, err)
	assertBig(t, 10, paid)
	for range 3 {
		paid, err = env.staking.WithdrawDelegatorRewards(delegator, pool)
		require.NoError(t, err)
		assertBig(t, 0, paid)
	}
	assert.Equal(t, int64(10), env.rewardBalance(delegator))

	env.endEpoch()
	paid, err = env.staking.WithdrawDelegatorRewards(delegator, pool)
	require.NoError(t, err)
	assertBig(t, 0, paid)
}

func TestWithdrawFromMissingPool(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.staking.WithdrawDelegatorRewards(ids.RandAddress(), ids.PoolID(3))
	assert.Error(t, err)

	reward, err := env.staking.ComputeRewardBalanceOfDelegator(ids.PoolID(3), ids.RandAddress())
	require.NoError(t, err)
	assertBig(t, 0, reward)
}

func TestRewardsAccrueLazily(t *testing.T) {
	env := newTestEnv(t)
	operator, pool := env.createPool(0)
	a, b := ids.RandAddress(), ids.RandAddress()

	env.delegate(a, pool, 30)
	env.delegate(b, pool, 10)
	env.endEpoch()

	// a never touches its stake while three epochs of rewards land
	for range 3 {
		env.payFee(operator, 8)
		env.endEpoch()
		require.NoError(t, env.staking.FinalizePool(pool))
	}
	reward, err := env.staking.ComputeRewardBalanceOfDelegator(pool, a)
	require.NoError(t, err)
	assertBig(t, 18, reward)

	paid, err := env.staking.WithdrawDelegatorRewards(a, pool)
	require.NoError(t, err)
	assertBig(t, 18, paid)
	paid, err = env.staking.WithdrawDelegatorRewards(b, pool)
	require.NoError(t, err)
	assertBig(t, 6, paid)
}

func TestRewardsFollowStakeChanges(t *testing.T) {
	env := newTestEnv(t)
	operator, pool := env.createPool(0)
	a, b := ids.RandAddress(), ids.RandAddress()

	env.delegate(a, pool, 10)
	env.delegate(b, pool, 10)
	env.endEpoch()
	env.payFee(operator, 20)

	// more stake for a only counts from the next epoch
	env.delegate(a, pool, 20)
	env.endEpoch()
	require.NoError(t, env.staking.FinalizePool(pool))

	env.payFee(operator, 40)
	env.endEpoch()

	// the unfinalized half is already visible
	reward, err := env.staking.ComputeRewardBalanceOfDelegator(pool, a)
	require.NoError(t, err)
	assertBig(t, 10+30, reward)
	reward, err = env.staking.ComputeRewardBalanceOfDelegator(pool, b)
	require.NoError(t, err)
	assertBig(t, 10+10, reward)

	require.NoError(t, env.staking.FinalizePool(pool))

	// moving stake pays out what was earned so far
	require.NoError(t, env.staking.MoveStake(b, delegated(pool), undelegated(), big.NewInt(10)))
	assert.Equal(t, int64(20), env.rewardBalance(b))
	evs := eventsNamed[DelegatorRewardsWithdrawnEvent](env.takeEvents())
	require.Len(t, evs, 1)
	assertBig(t, 20, evs[0].Amount)

	paid, err := env.staking.WithdrawDelegatorRewards(a, pool)
	require.NoError(t, err)
	assertBig(t, 40, paid)
}

func TestOperatorStakeEarnsNoMemberReward(t *testing.T) {
	env := newTestEnv(t)
	operator, pool := env.createPool(500_000)
	member := ids.RandAddress()

	env.delegate(operator, pool, 10)
	env.delegate(member, pool, 10)
	env.endEpoch()
	env.payFee(operator, 20)

	stats, err := env.staking.PoolStatsByEpoch(pool, 2)
	require.NoError(t, err)
	assertBig(t, 10, stats.MembersStake)
	assertBig(t, 10+9, stats.WeightedStake)

	env.endEpoch()
	opReward, err := env.staking.ComputeRewardBalanceOfOperator(pool)
	require.NoError(t, err)
	assertBig(t, 10, opReward)
	reward, err := env.staking.ComputeRewardBalanceOfDelegator(pool, operator)
	require.NoError(t, err)
	assertBig(t, 0, reward)

	require.NoError(t, env.staking.FinalizePool(pool))
	opReward, err = env.staking.ComputeRewardBalanceOfOperator(pool)
	require.NoError(t, err)
	assertBig(t, 0, opReward)
	assert.Equal(t, int64(10), env.rewardBalance(operator))

	paid, err := env.staking.WithdrawDelegatorRewards(operator, pool)
	require.NoError(t, err)
	assertBig(t, 0, paid)
	paid, err = env.staking.WithdrawDelegatorRewards(member, pool)
	require.NoError(t, err)
	assertBig(t, 10, paid)
}

func TestUnpaidRewardsRollForward(t *testing.T) {
	env := newTestEnv(t)
	op1, p1 := env.createPool(0)
	op2, p2 := env.createPool(0)

	env.delegate(ids.RandAddress(), p1, 10)
	env.delegate(ids.RandAddress(), p2, 30)
	env.fundRewards(100)
	env.endEpoch()

	// equal fees, unequal stake: neither pool takes everything
	env.payFee(op1, 50)
	env.payFee(op2, 50)
	env.endEpoch()
	require.NoError(t, env.staking.FinalizePool(p1))
	require.NoError(t, env.staking.FinalizePool(p2))

	fin := eventsNamed[EpochFinalizedEvent](env.takeEvents())
	require.Len(t, fin, 1)
	assert.Positive(t, fin[0].RewardsRemaining.Sign())
	assert.Equal(t, 0, new(big.Int).Add(fin[0].RewardsPaid, fin[0].RewardsRemaining).Cmp(big.NewInt(200)))

	// paid rewards sit reserved in the pots, the rest is available again
	reserved, err := env.staking.rewardService.Reserved()
	require.NoError(t, err)
	assert.Equal(t, 0, reserved.Cmp(fin[0].RewardsPaid))

	env.endEpoch()
	ended := eventsNamed[EpochEndedEvent](env.takeEvents())
	require.Len(t, ended, 1)
	assert.Equal(t, 0, ended[0].RewardsAvailable.Cmp(fin[0].RewardsRemaining))
}

type rewardSnapshot struct {
	membersStake *big.Int
	stakes       map[ids.Address]*big.Int
}

type rewardKey struct {
	owner ids.Address
	pool  ids.PoolID
}

type randomRewardsRun struct {
	seed1, seed2 uint64
	epochs       int
	fund         *big.Int // minted to the payer before every epoch
	feeOdds      int      // a pool earns fees with probability 1/feeOdds
	idleOdds     int      // a delegator does nothing with probability 1 - 1/idleOdds
	minDelegate  int64
	maxDelegate  int64
	exitInFull   bool // undelegate whole balances so member stakes stay >= minDelegate
	slackShift   uint // lower bound slack, relative to what the pool paid its members
}

// TestRandomizedRewards checks withdrawals against an exact rational
// reference of every delegator's share in every epoch.
func TestRandomizedRewards(t *testing.T) {
	t.Run("exact", func(t *testing.T) {
		// small enough that cumulative rewards never need normalizing
		runRandomizedRewards(t, randomRewardsRun{
			seed1: 7, seed2: 11,
			epochs:      6,
			fund:        big.NewInt(1_000_000),
			feeOdds:     1,
			idleOdds:    1,
			minDelegate: 1, maxDelegate: 300,
			slackShift: 64,
		})
	})
	t.Run("normalized with idle epochs", func(t *testing.T) {
		// rewards near 2^110 per epoch against stakes near 2^11 normalize
		// by the third credit; skipped fees and idle delegators leave
		// multi-epoch gaps in the cumulative table
		runRandomizedRewards(t, randomRewardsRun{
			seed1: 3, seed2: 5,
			epochs:      12,
			fund:        new(big.Int).Lsh(big.NewInt(1), 110),
			feeOdds:     3,
			idleOdds:    3,
			minDelegate: 1000, maxDelegate: 2000,
			exitInFull: true,
			slackShift: 12,
		})
	})
}

func runRandomizedRewards(t *testing.T, run randomRewardsRun) {
	env := newTestEnv(t)
	rng := rand.New(rand.NewPCG(run.seed1, run.seed2))

	var (
		poolIDs      []ids.PoolID
		operators    = map[ids.PoolID]ids.Address{}
		delegators   []ids.Address
		expected     = map[rewardKey]*big.Rat{}
		paid         = map[rewardKey]*big.Int{}
		syncs        = map[rewardKey]int{}
		operatorPays = map[ids.Address]*big.Int{}
		membersPaid  = map[ids.PoolID]*big.Int{}
		snapshots    map[ids.PoolID]rewardSnapshot
	)
	for range 3 {
		op, id := env.createPool(uint32(rng.IntN(1_000_001)))
		operators[id] = op
		operatorPays[op] = new(big.Int)
		membersPaid[id] = new(big.Int)
		poolIDs = append(poolIDs, id)
		env.delegate(op, id, int64(1+rng.IntN(500)))
	}
	for range 5 {
		delegators = append(delegators, ids.RandAddress())
	}

	record := func() {
		evs := env.takeEvents()
		for _, ev := range eventsNamed[DelegatorRewardsWithdrawnEvent](evs) {
			k := rewardKey{ev.Delegator, ev.Pool}
			if paid[k] == nil {
				paid[k] = new(big.Int)
			}
			paid[k].Add(paid[k], ev.Amount)
		}
		for _, ev := range eventsNamed[RewardsPaidEvent](evs) {
			op := operators[ev.Pool]
			operatorPays[op].Add(operatorPays[op], ev.OperatorReward)
			membersPaid[ev.Pool].Add(membersPaid[ev.Pool], ev.MembersReward)
			if ev.MembersReward.Sign() == 0 {
				continue
			}
			snap, ok := snapshots[ev.Pool]
			require.True(t, ok)
			for d, stake := range snap.stakes {
				k := rewardKey{d, ev.Pool}
				if expected[k] == nil {
					expected[k] = new(big.Rat)
				}
				share := new(big.Rat).SetFrac(new(big.Int).Mul(ev.MembersReward, stake), snap.membersStake)
				expected[k].Add(expected[k], share)
			}
		}
	}
	finalizeAll := func() {
		for _, id := range poolIDs {
			require.NoError(t, env.staking.FinalizePool(id))
		}
		record()
	}

	for range run.epochs {
		finalizeAll()
		require.NoError(t, env.rewardToken.Mint(env.payer.Address(), run.fund))
		epoch := env.epoch()

		for _, d := range delegators {
			if rng.IntN(run.idleOdds) != 0 {
				continue
			}
			pool := poolIDs[rng.IntN(len(poolIDs))]
			k := rewardKey{d, pool}
			switch rng.IntN(4) {
			case 1:
				env.delegate(d, pool, run.minDelegate+rng.Int64N(run.maxDelegate-run.minDelegate+1))
				syncs[k]++
			case 2:
				b, err := env.staking.StakeDelegatedToPoolByOwner(d, pool)
				require.NoError(t, err)
				if b.NextEpochBalance.Sign() > 0 {
					amount := new(big.Int).Set(b.NextEpochBalance)
					if !run.exitInFull {
						amount = big.NewInt(1 + rng.Int64N(b.NextEpochBalance.Int64()))
					}
					require.NoError(t, env.staking.MoveStake(d, delegated(pool), undelegated(), amount))
					syncs[k]++
				}
			case 3:
				_, err := env.staking.WithdrawDelegatorRewards(d, pool)
				require.NoError(t, err)
				syncs[k]++
			}
		}
		record()

		snapshots = map[ids.PoolID]rewardSnapshot{}
		for _, id := range poolIDs {
			if rng.IntN(run.feeOdds) != 0 {
				continue
			}
			env.payFee(operators[id], int64(1+rng.IntN(1000)))
			stats, err := env.staking.PoolStatsByEpoch(id, epoch)
			require.NoError(t, err)
			snap := rewardSnapshot{membersStake: stats.MembersStake, stakes: map[ids.Address]*big.Int{}}
			sum := new(big.Int)
			for _, d := range delegators {
				b, err := env.staking.StakeDelegatedToPoolByOwner(d, id)
				require.NoError(t, err)
				snap.stakes[d] = b.CurrentEpochBalance
				sum.Add(sum, b.CurrentEpochBalance)
			}
			if !stats.IsEmpty() {
				assert.Equal(t, 0, sum.Cmp(stats.MembersStake), "members stake of %v", id)
			}
			snapshots[id] = snap
		}
		record()
		env.endEpoch()
		record()
	}
	finalizeAll()

	for _, d := range delegators {
		for _, id := range poolIDs {
			_, err := env.staking.WithdrawDelegatorRewards(d, id)
			require.NoError(t, err)
		}
	}
	for id, op := range operators {
		_, err := env.staking.WithdrawDelegatorRewards(op, id)
		require.NoError(t, err)
	}
	record()

	for k, exp := range expected {
		got := paid[k]
		if got == nil {
			got = new(big.Int)
		}
		floor := new(big.Int).Quo(exp.Num(), exp.Denom())
		assert.True(t, got.Cmp(floor) <= 0, "%v in %v: paid %v, expected %v", k.owner, k.pool, got, exp.FloatString(3))
		slack := new(big.Int).Rsh(membersPaid[k.pool], run.slackShift)
		slack.Add(slack, big.NewInt(int64(2*(syncs[k]+1))))
		lower := new(big.Int).Sub(floor, slack)
		assert.True(t, got.Cmp(lower) >= 0, "%v in %v: paid %v, expected %v", k.owner, k.pool, got, exp.FloatString(3))
	}
	for k := range paid {
		_, ok := expected[k]
		assert.True(t, ok, "unexpected payment to %v in %v", k.owner, k.pool)
	}
	for id, op := range operators {
		assert.Nil(t, paid[rewardKey{op, id}])
		assert.Equal(t, 0, operatorPays[op].Cmp(env.rewardBalanceOf(op)))
	}

	pots := new(big.Int)
	for _, id := range poolIDs {
		pot, err := env.staking.rewardService.RewardsByPool(id)
		require.NoError(t, err)
		assert.True(t, pot.Sign() >= 0)
		pots.Add(pots, pot)

		withdrawn := new(big.Int)
		for k, v := range paid {
			if k.pool == id {
				withdrawn.Add(withdrawn, v)
			}
		}
		assert.Equal(t, 0, new(big.Int).Add(withdrawn, pot).Cmp(membersPaid[id]), "pot of %v", id)
	}
	reserved, err := env.staking.rewardService.Reserved()
	require.NoError(t, err)
	assert.Equal(t, 0, pots.Cmp(reserved))
	assert.True(t, env.rewardBalanceOf(env.payer.Address()).Cmp(reserved) >= 0)
}

// TestNormalizedRewardsStaySolvent settles a delegator after every credit
// while rewards per unit of stake are large enough to normalize the
// cumulative table. No settlement may take more than the pot holds.
func TestNormalizedRewardsStaySolvent(t *testing.T) {
	env := newTestEnv(t)
	operator, pool := env.createPool(0)
	a, b := ids.RandAddress(), ids.RandAddress()
	env.delegate(a, pool, 1_000_000_007)
	env.delegate(b, pool, 999_999_937)
	env.endEpoch()

	membersReward := new(big.Int)
	withdrawn := new(big.Int)
	collect := func() {
		for _, ev := range env.takeEvents() {
			switch ev := ev.(type) {
			case RewardsPaidEvent:
				membersReward.Add(membersReward, ev.MembersReward)
			case DelegatorRewardsWithdrawnEvent:
				withdrawn.Add(withdrawn, ev.Amount)
			}
		}
	}

	fund := new(big.Int).Lsh(big.NewInt(1), 120)
	for i := range 5 {
		require.NoError(t, env.rewardToken.Mint(env.payer.Address(), fund))
		env.payFee(operator, 100)
		env.endEpoch()
		require.NoError(t, env.staking.FinalizePool(pool))
		collect()

		// every move settles a's rewards against the normalized table
		env.delegate(a, pool, int64(1_000_003+i*7))
		_, err := env.staking.WithdrawDelegatorRewards(b, pool)
		require.NoError(t, err)
		collect()
	}
	for _, d := range []ids.Address{a, b} {
		_, err := env.staking.WithdrawDelegatorRewards(d, pool)
		require.NoError(t, err)
	}
	collect()

	assert.True(t, withdrawn.Cmp(membersReward) <= 0, "withdrew %v of %v", withdrawn, membersReward)
	// rounding loses at most a tiny fraction of what the pool earned
	assert.True(t, new(big.Int).Sub(membersReward, withdrawn).Cmp(new(big.Int).Rsh(membersReward, 20)) <= 0)

	pot, err := env.staking.rewardService.RewardsByPool(pool)
	require.NoError(t, err)
	assert.Equal(t, 0, new(big.Int).Sub(membersReward, withdrawn).Cmp(pot))
	reserved, err := env.staking.rewardService.Reserved()
	require.NoError(t, err)
	assert.Equal(t, 0, pot.Cmp(reserved))
}

// TestSettlementCappedAtPot drains a pot below what the cumulative table
// owes and checks the settlement pays what is left instead of failing.
func TestSettlementCappedAtPot(t *testing.T) {
	env := newTestEnv(t)
	operator, pool := env.createPool(0)
	delegator := ids.RandAddress()
	env.delegate(delegator, pool, 10)
	env.endEpoch()
	env.payFee(operator, 100)
	env.endEpoch()
	require.NoError(t, env.staking.FinalizePool(pool))

	owed, err := env.staking.ComputeRewardBalanceOfDelegator(pool, delegator)
	require.NoError(t, err)
	assertBig(t, 100, owed)

	// take all but 40 out of the pot behind the table's back
	require.NoError(t, env.staking.rewardService.DecreasePoolRewards(pool, big.NewInt(60)))

	owed, err = env.staking.ComputeRewardBalanceOfDelegator(pool, delegator)
	require.NoError(t, err)
	assertBig(t, 40, owed)

	// the move settles first and must not revert
	require.NoError(t, env.staking.MoveStake(delegator, delegated(pool), undelegated(), big.NewInt(10)))
	assert.Equal(t, int64(40), env.rewardBalance(delegator))
	pot, err := env.staking.rewardService.RewardsByPool(pool)
	require.NoError(t, err)
	assertBig(t, 0, pot)
}

// TestRewardsAcrossIdleEpochs leaves several epochs between credits with
// no fees and no settlements, so interval bounds resolve through the most
// recent entry of the cumulative table.
func TestRewardsAcrossIdleEpochs(t *testing.T) {
	env := newTestEnv(t)
	operator, pool := env.createPool(0)
	a, b := ids.RandAddress(), ids.RandAddress()
	env.delegate(a, pool, 30)
	env.delegate(b, pool, 10)
	env.endEpoch()

	env.payFee(operator, 400)
	env.endEpoch()
	require.NoError(t, env.staking.FinalizePool(pool))
	credited := env.epoch()

	got, err := env.staking.WithdrawDelegatorRewards(b, pool)
	require.NoError(t, err)
	assertBig(t, 100, got)

	for range 4 {
		env.endEpoch()
	}
	last, err := env.staking.rewardService.MostRecentEpoch(pool)
	require.NoError(t, err)
	assert.Equal(t, credited, last)
	assert.Greater(t, env.epoch(), last+2)

	// nothing is stored at the current epoch or the two before it
	owed, err := env.staking.ComputeRewardBalanceOfDelegator(pool, a)
	require.NoError(t, err)
	assertBig(t, 300, owed)
	owed, err = env.staking.ComputeRewardBalanceOfDelegator(pool, b)
	require.NoError(t, err)
	assertBig(t, 0, owed)

	env.payFee(operator, 800)
	env.endEpoch()
	require.NoError(t, env.staking.FinalizePool(pool))

	got, err = env.staking.WithdrawDelegatorRewards(a, pool)
	require.NoError(t, err)
	assertBig(t, 900, got)
	got, err = env.staking.WithdrawDelegatorRewards(b, pool)
	require.NoError(t, err)
	assertBig(t, 200, got)
}
