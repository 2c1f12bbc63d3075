// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/staking/params"
	"github.com/vechain/stakeledger/staking/stakes"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/storage"
	"github.com/vechain/stakeledger/token"
	"github.com/vechain/stakeledger/vault"
)

const genesisTime = uint64(1_700_000_000)

type manualClock struct {
	mu  sync.Mutex
	now uint64
}

func (c *manualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

type testEnv struct {
	t           *testing.T
	state       *state.State
	staking     *Staking
	stakeToken  *token.Ledger
	rewardToken *token.Ledger
	vault       *vault.Vault
	payer       *vault.Payer
	clock       *manualClock
	admin       ids.Address
	exchange    ids.Address
	taker       ids.Address

	mu     sync.Mutex
	events []Event
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := state.New(db, 0)
	require.NoError(t, err)

	env := &testEnv{
		t:           t,
		state:       st,
		stakeToken:  token.New(storage.NewContext(ids.NamedAddress("stake-token"), st)),
		rewardToken: token.New(storage.NewContext(ids.NamedAddress("reward-token"), st)),
		clock:       &manualClock{now: genesisTime},
		admin:       ids.RandAddress(),
		exchange:    ids.RandAddress(),
		taker:       ids.RandAddress(),
	}
	env.vault = vault.New(storage.NewContext(ids.NamedAddress("vault"), st), env.stakeToken)
	env.payer = vault.NewPayer(ids.NamedAddress("reward-payer"), env.rewardToken)
	env.staking = New(st, env.vault, env.payer, env.clock, NewAllowList(env.admin))
	env.staking.Subscribe(func(ev Event) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.events = append(env.events, ev)
	})

	require.NoError(t, env.staking.Init(genesisTime))
	p := params.Default()
	p.MinimumPoolStake = big.NewInt(2)
	require.NoError(t, env.staking.SetParams(env.admin, p))
	require.NoError(t, env.staking.AddExchangeAddress(env.admin, env.exchange))
	require.NoError(t, env.rewardToken.Mint(env.taker, new(big.Int).Lsh(big.NewInt(1), 100)))
	env.clearEvents()
	return env
}

func (e *testEnv) clearEvents() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = nil
}

func (e *testEnv) takeEvents() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	evs := e.events
	e.events = nil
	return evs
}

func eventsNamed[T Event](evs []Event) []T {
	var out []T
	for _, ev := range evs {
		if v, ok := ev.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func (e *testEnv) stake(owner ids.Address, amount int64) {
	e.t.Helper()
	require.NoError(e.t, e.stakeToken.Mint(owner, big.NewInt(amount)))
	require.NoError(e.t, e.staking.Stake(owner, big.NewInt(amount)))
}

func (e *testEnv) delegate(owner ids.Address, pool ids.PoolID, amount int64) {
	e.t.Helper()
	e.stake(owner, amount)
	require.NoError(e.t, e.staking.MoveStake(owner, undelegated(), delegated(pool), big.NewInt(amount)))
}

func (e *testEnv) createPool(share uint32) (ids.Address, ids.PoolID) {
	e.t.Helper()
	operator := ids.RandAddress()
	id, err := e.staking.CreateStakingPool(operator, share, true)
	require.NoError(e.t, err)
	return operator, id
}

func (e *testEnv) payFee(maker ids.Address, amount int64) {
	e.t.Helper()
	require.NoError(e.t, e.staking.PayProtocolFee(e.exchange, maker, e.taker, big.NewInt(amount)))
}

func (e *testEnv) fundRewards(amount int64) {
	e.t.Helper()
	require.NoError(e.t, e.rewardToken.Mint(e.payer.Address(), big.NewInt(amount)))
}

// endEpoch waits out the epoch duration and ends it.
func (e *testEnv) endEpoch() uint64 {
	e.t.Helper()
	p, err := e.staking.Params()
	require.NoError(e.t, err)
	e.clock.Advance(p.EpochDurationInSeconds)
	n, err := e.staking.EndEpoch()
	require.NoError(e.t, err)
	return n
}

func (e *testEnv) rewardBalance(addr ids.Address) int64 {
	e.t.Helper()
	b, err := e.rewardToken.BalanceOf(addr)
	require.NoError(e.t, err)
	return b.Int64()
}

func (e *testEnv) rewardBalanceOf(addr ids.Address) *big.Int {
	e.t.Helper()
	b, err := e.rewardToken.BalanceOf(addr)
	require.NoError(e.t, err)
	return b
}

func (e *testEnv) epoch() uint64 {
	e.t.Helper()
	cur, err := e.staking.CurrentEpoch()
	require.NoError(e.t, err)
	return cur
}

func assertBig(t *testing.T, want int64, got *big.Int) {
	t.Helper()
	if assert.NotNil(t, got) {
		assert.Equal(t, want, got.Int64(), "got %v", got)
		assert.True(t, got.IsInt64())
	}
}

func undelegated() stakes.Info {
	return stakes.Info{Status: stakes.Undelegated}
}

func delegated(pool ids.PoolID) stakes.Info {
	return stakes.Info{Status: stakes.Delegated, Pool: pool}
}
