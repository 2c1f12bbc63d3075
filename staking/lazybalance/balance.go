// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lazybalance implements a balance that takes effect with a one epoch
// delay and synchronizes itself on first touch in a new epoch.
package lazybalance

import (
	"math/big"

	"github.com/vechain/stakeledger/staking/reverts"
)

// Balance holds the balance effective in CurrentEpoch and the balance that
// becomes effective from the following epoch on.
type Balance struct {
	CurrentEpoch        uint64
	CurrentEpochBalance *big.Int
	NextEpochBalance    *big.Int
}

// New returns an empty balance.
func New() *Balance {
	return &Balance{
		CurrentEpochBalance: new(big.Int),
		NextEpochBalance:    new(big.Int),
	}
}

// Copy returns a deep copy. Nil balances and nil fields copy as zero.
func (b *Balance) Copy() *Balance {
	c := New()
	if b == nil {
		return c
	}
	c.CurrentEpoch = b.CurrentEpoch
	if b.CurrentEpochBalance != nil {
		c.CurrentEpochBalance.Set(b.CurrentEpochBalance)
	}
	if b.NextEpochBalance != nil {
		c.NextEpochBalance.Set(b.NextEpochBalance)
	}
	return c
}

// Equal compares all three fields.
func (b *Balance) Equal(o *Balance) bool {
	x, y := b.Copy(), o.Copy()
	return x.CurrentEpoch == y.CurrentEpoch &&
		x.CurrentEpochBalance.Cmp(y.CurrentEpochBalance) == 0 &&
		x.NextEpochBalance.Cmp(y.NextEpochBalance) == 0
}

// LoadAt returns the balance as seen in epoch. If it was last stored in an
// earlier epoch the next balance has become current. Never moves backwards.
func LoadAt(b *Balance, epoch uint64) *Balance {
	c := b.Copy()
	if c.CurrentEpoch < epoch {
		c.CurrentEpoch = epoch
		c.CurrentEpochBalance.Set(c.NextEpochBalance)
	}
	return c
}

// IncreaseNext adds amount to the next epoch balance.
func IncreaseNext(b *Balance, epoch uint64, amount *big.Int) *Balance {
	c := LoadAt(b, epoch)
	c.NextEpochBalance.Add(c.NextEpochBalance, amount)
	return c
}

// DecreaseNext subtracts amount from the next epoch balance.
func DecreaseNext(b *Balance, epoch uint64, amount *big.Int) (*Balance, error) {
	c := LoadAt(b, epoch)
	if c.NextEpochBalance.Cmp(amount) < 0 {
		return nil, reverts.Newf(reverts.InsufficientBalance, "next epoch balance %s below %s", c.NextEpochBalance, amount)
	}
	c.NextEpochBalance.Sub(c.NextEpochBalance, amount)
	return c, nil
}

// IncreaseCurrentAndNext adds amount to both balances, effective immediately.
func IncreaseCurrentAndNext(b *Balance, epoch uint64, amount *big.Int) *Balance {
	c := LoadAt(b, epoch)
	c.CurrentEpochBalance.Add(c.CurrentEpochBalance, amount)
	c.NextEpochBalance.Add(c.NextEpochBalance, amount)
	return c
}

// DecreaseCurrentAndNext subtracts amount from both balances. It fails if
// amount exceeds either of them.
func DecreaseCurrentAndNext(b *Balance, epoch uint64, amount *big.Int) (*Balance, error) {
	c := LoadAt(b, epoch)
	available := c.CurrentEpochBalance
	if c.NextEpochBalance.Cmp(available) < 0 {
		available = c.NextEpochBalance
	}
	if available.Cmp(amount) < 0 {
		return nil, reverts.Newf(reverts.InsufficientBalance, "balance %s below %s", available, amount)
	}
	c.CurrentEpochBalance.Sub(c.CurrentEpochBalance, amount)
	c.NextEpochBalance.Sub(c.NextEpochBalance, amount)
	return c, nil
}

// MoveBetween moves amount of next epoch balance from one balance to another.
// sameSlot tells whether both refer to the same storage; then nothing happens,
// not even a load, and the inputs are returned as is.
func MoveBetween(from, to *Balance, sameSlot bool, epoch uint64, amount *big.Int) (*Balance, *Balance, error) {
	if sameSlot {
		return from, to, nil
	}
	newFrom, err := DecreaseNext(from, epoch, amount)
	if err != nil {
		return nil, nil, err
	}
	return newFrom, IncreaseNext(to, epoch, amount), nil
}
