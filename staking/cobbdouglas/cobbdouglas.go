// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cobbdouglas computes pool rewards as
//
//	totalRewards * feeRatio^alpha * stakeRatio^(1-alpha)
//
// with alpha = alphaNumerator / alphaDenominator.
package cobbdouglas

import (
	"math/big"

	"github.com/vechain/stakeledger/fixedmath"
)

// Input holds the figures of one pool against the epoch totals.
type Input struct {
	TotalRewards     *big.Int
	Fees             *big.Int
	TotalFees        *big.Int
	Stake            *big.Int
	TotalStake       *big.Int
	AlphaNumerator   uint32
	AlphaDenominator uint32
}

// Reward returns the floored reward, never above TotalRewards.
func Reward(in *Input) (*big.Int, error) {
	for _, v := range []*big.Int{in.TotalRewards, in.Fees, in.TotalFees, in.Stake, in.TotalStake} {
		if v.Sign() == 0 {
			return new(big.Int), nil
		}
	}
	r, err := reward(in)
	if err != nil {
		return nil, err
	}
	if r.Cmp(in.TotalRewards) > 0 {
		return new(big.Int).Set(in.TotalRewards), nil
	}
	return r, nil
}

func reward(in *Input) (*big.Int, error) {
	num := new(big.Int).SetUint64(uint64(in.AlphaNumerator))
	den := new(big.Int).SetUint64(uint64(in.AlphaDenominator))

	// alpha at its bounds reduces to a plain ratio
	switch {
	case in.AlphaNumerator == 0:
		return mulDiv(in.TotalRewards, in.Stake, in.TotalStake), nil
	case in.AlphaNumerator == in.AlphaDenominator:
		return mulDiv(in.TotalRewards, in.Fees, in.TotalFees), nil
	}

	allFees := in.Fees.Cmp(in.TotalFees) == 0
	allStake := in.Stake.Cmp(in.TotalStake) == 0
	switch {
	case allFees && allStake:
		return new(big.Int).Set(in.TotalRewards), nil
	case allFees:
		// R * s^(1-alpha)
		return power(in.TotalRewards, in.Stake, in.TotalStake, new(big.Int).Sub(den, num), den)
	case allStake:
		// R * f^alpha
		return power(in.TotalRewards, in.Fees, in.TotalFees, num, den)
	}

	stakeRatio, err := fixedmath.FromFraction(in.Stake, in.TotalStake)
	if err != nil {
		return nil, err
	}
	// R * s * (f/s)^alpha, with the ratio inverted when above one so ln and
	// exp stay inside their domains
	feeByStake := new(big.Int).Mul(in.Fees, in.TotalStake)
	stakeByFee := new(big.Int).Mul(in.Stake, in.TotalFees)
	feeBelowStake := feeByStake.Cmp(stakeByFee) <= 0

	var n fixedmath.Fixed
	if feeBelowStake {
		n, err = fixedmath.FromFraction(feeByStake, stakeByFee)
	} else {
		n, err = fixedmath.FromFraction(stakeByFee, feeByStake)
	}
	if err != nil {
		return nil, err
	}
	if n, err = pow(n, num, den); err != nil {
		return nil, err
	}
	if feeBelowStake {
		n, err = stakeRatio.Mul(n)
	} else {
		n, err = stakeRatio.Div(n)
	}
	if err != nil {
		return nil, err
	}
	return n.MulInt(in.TotalRewards)
}

// power returns floor(total * (x/y)^(num/den)).
func power(total, x, y, num, den *big.Int) (*big.Int, error) {
	ratio, err := fixedmath.FromFraction(x, y)
	if err != nil {
		return nil, err
	}
	p, err := pow(ratio, num, den)
	if err != nil {
		return nil, err
	}
	return p.MulInt(total)
}

// pow returns x^(num/den) = exp(ln(x) * num/den) for 0 < x <= 1.
func pow(x fixedmath.Fixed, num, den *big.Int) (fixedmath.Fixed, error) {
	ln, err := x.Ln()
	if err != nil {
		return fixedmath.Fixed{}, err
	}
	alpha, err := fixedmath.FromFraction(num, den)
	if err != nil {
		return fixedmath.Fixed{}, err
	}
	e, err := ln.Mul(alpha)
	if err != nil {
		return fixedmath.Fixed{}, err
	}
	return e.Exp()
}

func mulDiv(a, b, c *big.Int) *big.Int {
	r := new(big.Int).Mul(a, b)
	return r.Quo(r, c)
}
