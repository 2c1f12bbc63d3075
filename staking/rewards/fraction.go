// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"fmt"
	"math/big"
)

// maxTerm bounds both terms of a stored fraction.
var maxTerm = new(big.Int).Lsh(big.NewInt(1), 127)

// Fraction is an unreduced non-negative rational. A zero denominator means unset.
type Fraction struct {
	Numerator   *big.Int
	Denominator *big.Int
}

// Zero is the set fraction 0/1.
func Zero() *Fraction {
	return &Fraction{Numerator: new(big.Int), Denominator: big.NewInt(1)}
}

// IsSet reports whether the denominator is non-zero.
func (f *Fraction) IsSet() bool {
	return f != nil && f.Denominator != nil && f.Denominator.Sign() != 0
}

func (f *Fraction) String() string {
	if !f.IsSet() {
		return "unset"
	}
	return fmt.Sprintf("%v/%v", f.Numerator, f.Denominator)
}

func terms(f *Fraction) (n, d *big.Int) {
	n, d = new(big.Int), new(big.Int)
	if f == nil {
		return
	}
	if f.Numerator != nil {
		n.Set(f.Numerator)
	}
	if f.Denominator != nil {
		d.Set(f.Denominator)
	}
	return
}

// AddFraction returns a + n/d by cross multiplication. A zero numerator on
// either side returns the other side unchanged.
func AddFraction(a *Fraction, n, d *big.Int) *Fraction {
	n1, d1 := terms(a)
	if n1.Sign() == 0 {
		return &Fraction{Numerator: new(big.Int).Set(n), Denominator: new(big.Int).Set(d)}
	}
	if n.Sign() == 0 {
		return &Fraction{Numerator: n1, Denominator: d1}
	}
	num := new(big.Int).Mul(n1, d)
	num.Add(num, new(big.Int).Mul(n, d1))
	return &Fraction{Numerator: num, Denominator: new(big.Int).Mul(d1, d)}
}

// Normalize divides both terms by the same factor so neither exceeds 2^127.
// The numerator is rounded down and the denominator up, so the result never
// exceeds f and rewards derived from it stay within what was added.
func Normalize(f *Fraction) *Fraction {
	n, d := terms(f)
	if n.Cmp(maxTerm) <= 0 && d.Cmp(maxTerm) <= 0 {
		return &Fraction{Numerator: n, Denominator: d}
	}
	base := n
	if d.Cmp(n) > 0 {
		base = d
	}
	scale := new(big.Int).Quo(base, maxTerm)
	scale.Add(scale, big.NewInt(1))
	n.Quo(n, scale)
	if d.Sign() > 0 {
		d.Sub(d, big.NewInt(1))
		d.Quo(d, scale)
		d.Add(d, big.NewInt(1))
	}
	return &Fraction{Numerator: n, Denominator: d}
}

// ScaleDifference returns floor(s * (a - b)), zero when the difference is
// negative. Unset fractions count as zero.
func ScaleDifference(a, b *Fraction, s *big.Int) *big.Int {
	if s.Sign() == 0 || !a.IsSet() {
		return new(big.Int)
	}
	n1, d1 := terms(a)
	if !b.IsSet() || b.Numerator.Sign() == 0 {
		r := new(big.Int).Mul(s, n1)
		return r.Quo(r, d1)
	}
	n2, d2 := terms(b)
	num := new(big.Int).Mul(n1, d2)
	num.Sub(num, new(big.Int).Mul(n2, d1))
	if num.Sign() <= 0 {
		return new(big.Int)
	}
	num.Mul(num, s)
	return num.Quo(num, new(big.Int).Mul(d1, d2))
}
