// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cobbdouglas

import (
	"math"
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ether = big.NewInt(1e18)

func input(total, fees, totalFees, stake, totalStake int64, num, den uint32) *Input {
	return &Input{
		TotalRewards:     new(big.Int).Mul(big.NewInt(total), ether),
		Fees:             big.NewInt(fees),
		TotalFees:        big.NewInt(totalFees),
		Stake:            big.NewInt(stake),
		TotalStake:       big.NewInt(totalStake),
		AlphaNumerator:   num,
		AlphaDenominator: den,
	}
}

func reference(in *Input) float64 {
	f, _ := new(big.Rat).SetFrac(in.Fees, in.TotalFees).Float64()
	s, _ := new(big.Rat).SetFrac(in.Stake, in.TotalStake).Float64()
	r, _ := new(big.Rat).SetInt(in.TotalRewards).Float64()
	a := float64(in.AlphaNumerator) / float64(in.AlphaDenominator)
	return r * math.Pow(f, a) * math.Pow(s, 1-a)
}

func assertClose(t *testing.T, want float64, got *big.Int, msgAndArgs ...any) {
	t.Helper()
	g, _ := new(big.Rat).SetInt(got).Float64()
	if want == 0 {
		assert.Equal(t, 0, got.Sign(), msgAndArgs...)
		return
	}
	assert.InEpsilon(t, want, g, 1e-9, msgAndArgs...)
}

func TestZeroInputs(t *testing.T) {
	for _, in := range []*Input{
		input(0, 1, 2, 1, 2, 1, 3),
		input(100, 0, 2, 1, 2, 1, 3),
		input(100, 1, 2, 0, 2, 1, 3),
		input(100, 1, 0, 1, 2, 1, 3),
		input(100, 1, 2, 1, 0, 1, 3),
	} {
		r, err := Reward(in)
		require.NoError(t, err)
		assert.Equal(t, 0, r.Sign())
	}
}

func TestShortcuts(t *testing.T) {
	tests := []struct {
		name string
		in   *Input
		want *big.Int
	}{
		{"alpha zero is the stake ratio", input(90, 1, 7, 1, 3, 0, 3), new(big.Int).Mul(big.NewInt(30), ether)},
		{"alpha one is the fee ratio", input(90, 1, 3, 5, 7, 3, 3), new(big.Int).Mul(big.NewInt(30), ether)},
		{"all fees and all stake", input(90, 7, 7, 3, 3, 1, 3), new(big.Int).Mul(big.NewInt(90), ether)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Reward(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want.String(), r.String())
		})
	}
}

func TestReward(t *testing.T) {
	tests := []struct {
		name string
		in   *Input
	}{
		{"all fees", input(100, 5, 5, 1, 4, 1, 3)},
		{"all stake", input(100, 1, 8, 4, 4, 1, 3)},
		{"fee ratio below stake ratio", input(100, 1, 3, 1, 2, 1, 3)},
		{"fee ratio above stake ratio", input(100, 2, 3, 1, 5, 1, 3)},
		{"equal ratios", input(100, 1, 4, 25, 100, 2, 5)},
		{"tiny stake", input(1000, 1, 2, 1, 1_000_000_000, 1, 3)},
		{"tiny fees", input(1000, 1, 1_000_000_000, 1, 2, 1, 3)},
		{"alpha near one", input(100, 3, 10, 1, 10, 99, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Reward(tt.in)
			require.NoError(t, err)
			assertClose(t, reference(tt.in), r)
			assert.True(t, r.Cmp(tt.in.TotalRewards) <= 0)
		})
	}
}

// rewards of all pools of an epoch never exceed the total
func TestSumNeverExceedsTotal(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 50; round++ {
		n := 1 + rng.IntN(8)
		fees := make([]*big.Int, n)
		stakes := make([]*big.Int, n)
		totalFees, totalStake := new(big.Int), new(big.Int)
		for i := range n {
			fees[i] = new(big.Int).Mul(big.NewInt(1+rng.Int64N(1e6)), big.NewInt(1+rng.Int64N(1e12)))
			stakes[i] = new(big.Int).Mul(big.NewInt(1+rng.Int64N(1e6)), big.NewInt(1+rng.Int64N(1e12)))
			totalFees.Add(totalFees, fees[i])
			totalStake.Add(totalStake, stakes[i])
		}
		den := uint32(1 + rng.IntN(10))
		num := uint32(rng.IntN(int(den) + 1))
		total := new(big.Int).Mul(big.NewInt(1+rng.Int64N(1e9)), ether)

		sum := new(big.Int)
		for i := range n {
			r, err := Reward(&Input{
				TotalRewards:     total,
				Fees:             fees[i],
				TotalFees:        totalFees,
				Stake:            stakes[i],
				TotalStake:       totalStake,
				AlphaNumerator:   num,
				AlphaDenominator: den,
			})
			require.NoError(t, err)
			sum.Add(sum, r)
		}
		assert.True(t, sum.Cmp(total) <= 0, "round %d: %s > %s", round, sum, total)
	}
}
