// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fixedmath implements signed fixed-point arithmetic with a bounded
// magnitude, plus ln and exp restricted to the ranges the reward formula uses.
//
// Values carry 50 decimal places (finer than a 127-bit binary fraction) and must
// stay strictly below 2^128 in magnitude; anything larger is an overflow.
package fixedmath

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	precision     int32 = 50
	workPrecision int32 = precision + 10
)

var (
	ErrOverflow       = errors.New("fixedmath: overflow")
	ErrDivisionByZero = errors.New("fixedmath: division by zero")
	ErrLnDomain       = errors.New("fixedmath: ln argument must be in (0, 1]")
	ErrExpDomain      = errors.New("fixedmath: exp argument must not be positive")
	ErrNegative       = errors.New("fixedmath: negative value cannot scale an unsigned integer")
)

var (
	maxMagnitude = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 128), 0)
	// exp of anything below this rounds to zero
	expMin = decimal.RequireFromString("-63.875")
	one    = decimal.New(1, 0)
	two    = decimal.New(2, 0)
	half   = decimal.New(5, -1)
)

// Fixed is a signed fixed-point number.
type Fixed struct {
	d decimal.Decimal
}

func check(d decimal.Decimal) (Fixed, error) {
	if d.Abs().Cmp(maxMagnitude) >= 0 {
		return Fixed{}, ErrOverflow
	}
	return Fixed{d.Truncate(precision)}, nil
}

// Zero returns 0.
func Zero() Fixed { return Fixed{decimal.Zero} }

// One returns 1.
func One() Fixed { return Fixed{one} }

// FromInt converts an integer.
func FromInt(n *big.Int) (Fixed, error) {
	return check(decimal.NewFromBigInt(n, 0))
}

// FromFraction returns n / d.
func FromFraction(n, d *big.Int) (Fixed, error) {
	if d.Sign() == 0 {
		return Fixed{}, ErrDivisionByZero
	}
	q := decimal.NewFromBigInt(n, 0).DivRound(decimal.NewFromBigInt(d, 0), workPrecision)
	return check(q)
}

// Add returns f + g.
func (f Fixed) Add(g Fixed) (Fixed, error) { return check(f.d.Add(g.d)) }

// Sub returns f - g.
func (f Fixed) Sub(g Fixed) (Fixed, error) { return check(f.d.Sub(g.d)) }

// Mul returns f * g.
func (f Fixed) Mul(g Fixed) (Fixed, error) { return check(f.d.Mul(g.d)) }

// Div returns f / g.
func (f Fixed) Div(g Fixed) (Fixed, error) {
	if g.d.IsZero() {
		return Fixed{}, ErrDivisionByZero
	}
	return check(f.d.DivRound(g.d, workPrecision))
}

// MulInt returns floor(f * n) for a non-negative f.
func (f Fixed) MulInt(n *big.Int) (*big.Int, error) {
	if f.d.Sign() < 0 {
		return nil, ErrNegative
	}
	return f.d.Mul(decimal.NewFromBigInt(n, 0)).Floor().BigInt(), nil
}

// Ln returns the natural logarithm of f, defined for 0 < f <= 1.
func (f Fixed) Ln() (Fixed, error) {
	if f.d.Sign() <= 0 || f.d.Cmp(one) > 0 {
		return Fixed{}, ErrLnDomain
	}
	if f.d.Equal(one) {
		return Zero(), nil
	}
	r, err := f.d.Ln(workPrecision)
	if err != nil {
		return Fixed{}, errors.Wrap(err, "fixedmath: ln")
	}
	return check(r)
}

// Exp returns e^f, defined for f <= 0. Results too small to represent are zero.
func (f Fixed) Exp() (Fixed, error) {
	if f.d.Sign() > 0 {
		return Fixed{}, ErrExpDomain
	}
	if f.d.IsZero() {
		return One(), nil
	}
	if f.d.Cmp(expMin) < 0 {
		return Zero(), nil
	}

	// e^-x = 1 / (e^(x/2^k))^(2^k), with x/2^k <= 1/2 so the series converges fast
	x := f.d.Neg()
	k := 0
	for x.Cmp(half) > 0 {
		x = x.DivRound(two, workPrecision)
		k++
	}
	r, err := x.ExpTaylor(workPrecision)
	if err != nil {
		return Fixed{}, errors.Wrap(err, "fixedmath: exp")
	}
	for range k {
		r = r.Mul(r).Round(workPrecision)
	}
	return check(one.DivRound(r, workPrecision))
}

// Cmp compares f and g.
func (f Fixed) Cmp(g Fixed) int { return f.d.Cmp(g.d) }

// Sign returns -1, 0 or 1.
func (f Fixed) Sign() int { return f.d.Sign() }

func (f Fixed) String() string { return f.d.String() }
