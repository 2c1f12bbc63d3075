// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/staking/reverts"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/storage"
)

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := state.New(db, 0)
	require.NoError(t, err)
	return New(storage.NewContext(ids.NamedAddress("rewards"), st))
}

func frac(n, d int64) *Fraction {
	return &Fraction{Numerator: big.NewInt(n), Denominator: big.NewInt(d)}
}

func TestFraction(t *testing.T) {
	assert.False(t, (&Fraction{}).IsSet())
	assert.False(t, (*Fraction)(nil).IsSet())
	assert.True(t, Zero().IsSet())
	assert.Equal(t, "1/2", frac(1, 2).String())

	sum := AddFraction(frac(1, 2), big.NewInt(1), big.NewInt(3))
	assert.Equal(t, "5/6", sum.String())

	// zero numerators pass the other side through
	assert.Equal(t, "1/3", AddFraction(Zero(), big.NewInt(1), big.NewInt(3)).String())
	assert.Equal(t, "1/3", AddFraction(&Fraction{}, big.NewInt(1), big.NewInt(3)).String())
	assert.Equal(t, "1/2", AddFraction(frac(1, 2), big.NewInt(0), big.NewInt(7)).String())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "3/4", Normalize(frac(3, 4)).String())

	big1 := new(big.Int).Lsh(big.NewInt(1), 200)
	big2 := new(big.Int).Lsh(big.NewInt(1), 199)
	n := Normalize(&Fraction{Numerator: big1, Denominator: big2})
	assert.True(t, n.Numerator.Cmp(maxTerm) <= 0)
	assert.True(t, n.Denominator.Cmp(maxTerm) <= 0)
	// 2 rounded down by at most one unit of the denominator
	twice := new(big.Int).Mul(n.Denominator, big.NewInt(2))
	assert.True(t, twice.Cmp(n.Numerator) >= 0)
	assert.True(t, new(big.Int).Sub(twice, n.Numerator).Cmp(big.NewInt(3)) <= 0)

	huge := &Fraction{Numerator: new(big.Int).Lsh(big.NewInt(1), 300), Denominator: big.NewInt(1)}
	h := Normalize(huge)
	assert.True(t, h.IsSet())
	assert.True(t, h.Numerator.Cmp(maxTerm) <= 0)
}

func TestNormalizeNeverRoundsUp(t *testing.T) {
	// odd terms just above the bound, where flooring both would raise the ratio
	for _, tc := range []struct{ n, d *big.Int }{
		{new(big.Int).Add(maxTerm, big.NewInt(1)), new(big.Int).Add(maxTerm, big.NewInt(1))},
		{new(big.Int).Lsh(big.NewInt(3), 160), new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 140), big.NewInt(12345))},
		{new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 229), big.NewInt(999)), new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(7))},
	} {
		got := Normalize(&Fraction{Numerator: tc.n, Denominator: tc.d})
		assert.True(t, got.Numerator.Cmp(maxTerm) <= 0)
		assert.True(t, got.Denominator.Cmp(maxTerm) <= 0)
		// got <= n/d  <=>  got.n * d <= n * got.d
		lhs := new(big.Int).Mul(got.Numerator, tc.d)
		rhs := new(big.Int).Mul(tc.n, got.Denominator)
		assert.True(t, lhs.Cmp(rhs) <= 0, "%v rounded up to %v", tc, got)
	}
}

func TestScaleDifference(t *testing.T) {
	tests := []struct {
		name string
		a, b *Fraction
		s    int64
		want int64
	}{
		{"zero stake", frac(1, 1), Zero(), 0, 0},
		{"unset end", &Fraction{}, Zero(), 10, 0},
		{"zero begin", frac(1, 1), Zero(), 10, 10},
		{"unset begin", frac(1, 2), &Fraction{}, 10, 5},
		{"difference", frac(5, 6), frac(1, 2), 9, 3},
		{"floor", frac(2, 3), frac(1, 3), 10, 3},
		{"negative clamps", frac(1, 3), frac(1, 2), 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScaleDifference(tt.a, tt.b, big.NewInt(tt.s))
			assert.Equal(t, tt.want, got.Int64())
		})
	}
}

func TestAddAndUpdate(t *testing.T) {
	s := newService(t)
	pool := ids.PoolID(1)

	require.NoError(t, s.Update(pool, 1))
	f, err := s.StoredAt(pool, 1)
	require.NoError(t, err)
	assert.Equal(t, "0/1", f.String())

	require.NoError(t, s.Add(pool, big.NewInt(10), big.NewInt(20), 3))
	// second add in the same epoch is ignored
	require.NoError(t, s.Add(pool, big.NewInt(99), big.NewInt(1), 3))
	f, err = s.StoredAt(pool, 3)
	require.NoError(t, err)
	assert.Equal(t, "10/20", f.String())

	require.NoError(t, s.Add(pool, big.NewInt(1), big.NewInt(4), 5))
	f, err = s.StoredAt(pool, 5)
	require.NoError(t, err)
	assert.Equal(t, "60/80", f.String())

	last, err := s.MostRecentEpoch(pool)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), last)

	require.NoError(t, s.Update(pool, 9))
	f, err = s.StoredAt(pool, 9)
	require.NoError(t, err)
	assert.Equal(t, "60/80", f.String())

	// does not overwrite
	require.NoError(t, s.Update(pool, 3))
	f, err = s.StoredAt(pool, 3)
	require.NoError(t, err)
	assert.Equal(t, "10/20", f.String())
}

func TestAtFallback(t *testing.T) {
	s := newService(t)
	pool := ids.PoolID(7)

	f, err := s.At(pool, 0)
	require.NoError(t, err)
	assert.Equal(t, "0/1", f.String())

	require.NoError(t, s.Add(pool, big.NewInt(1), big.NewInt(2), 4))

	tests := []struct {
		epoch uint64
		want  string
	}{
		{3, "0/1"},
		{4, "1/2"},
		{5, "1/2"},
		{6, "1/2"},
		{7, "1/2"},   // most recent
		{100, "1/2"}, // most recent
	}
	for _, tt := range tests {
		f, err := s.At(pool, tt.epoch)
		require.NoError(t, err)
		assert.Equal(t, tt.want, f.String(), "epoch %d", tt.epoch)
	}
}

func TestMemberRewardOverInterval(t *testing.T) {
	s := newService(t)
	pool := ids.PoolID(2)

	_, err := s.MemberRewardOverInterval(pool, big.NewInt(1), 3, 2)
	assert.True(t, reverts.Is(err, reverts.IntervalInvalid))

	require.NoError(t, s.Update(pool, 1))
	require.NoError(t, s.Add(pool, big.NewInt(10), big.NewInt(10), 3))
	require.NoError(t, s.Add(pool, big.NewInt(30), big.NewInt(10), 4))

	tests := []struct {
		stake      int64
		begin, end uint64
		want       int64
	}{
		{0, 1, 4, 0},
		{10, 2, 2, 0},
		{10, 1, 3, 10},
		{4, 1, 3, 4},
		{6, 1, 3, 6},
		{10, 3, 4, 30},
		{10, 1, 4, 40},
		{10, 4, 9, 0},
	}
	for _, tt := range tests {
		got, err := s.MemberRewardOverInterval(pool, big.NewInt(tt.stake), tt.begin, tt.end)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Int64(), "stake %d [%d, %d)", tt.stake, tt.begin, tt.end)
	}
}

func TestPoolRewards(t *testing.T) {
	s := newService(t)

	require.NoError(t, s.IncreasePoolRewards(1, big.NewInt(30)))
	require.NoError(t, s.IncreasePoolRewards(2, big.NewInt(12)))
	require.NoError(t, s.DecreasePoolRewards(1, big.NewInt(10)))

	err := s.DecreasePoolRewards(2, big.NewInt(13))
	assert.True(t, reverts.Is(err, reverts.InsufficientBalance))

	p1, err := s.RewardsByPool(1)
	require.NoError(t, err)
	assert.Equal(t, int64(20), p1.Int64())

	reserved, err := s.Reserved()
	require.NoError(t, err)
	assert.Equal(t, int64(32), reserved.Int64())
}
