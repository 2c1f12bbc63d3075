// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token keeps balances of a fungible token in state.
package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/storage"
)

var (
	slotBalances = storage.Slot("balances")
	slotSupply   = storage.Slot("total-supply")

	ErrInsufficientBalance = errors.New("token: insufficient balance")
	ErrNegativeAmount      = errors.New("token: negative amount")
)

// Ledger is a token living at its own address of the state.
type Ledger struct {
	balances *storage.Mapping[ids.Address, *big.Int]
	supply   *storage.Uint
}

func New(sctx *storage.Context) *Ledger {
	return &Ledger{
		balances: storage.NewMapping[ids.Address, *big.Int](sctx, slotBalances),
		supply:   storage.NewUint(sctx, slotSupply),
	}
}

func (l *Ledger) BalanceOf(addr ids.Address) (*big.Int, error) {
	b, err := l.balances.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return b, nil
}

func (l *Ledger) TotalSupply() (*big.Int, error) {
	return l.supply.Get()
}

// Mint creates amount new tokens owned by to.
func (l *Ledger) Mint(to ids.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	b, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := l.balances.Set(to, b.Add(b, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	return l.supply.Add(amount)
}

func (l *Ledger) Transfer(from, to ids.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fb, err := l.BalanceOf(from)
	if err != nil {
		return err
	}
	if fb.Cmp(amount) < 0 {
		return errors.Wrapf(ErrInsufficientBalance, "%v has %s, wants %s", from, fb, amount)
	}
	tb, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := l.balances.Set(from, fb.Sub(fb, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	if err := l.balances.Set(to, tb.Add(tb, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	return nil
}
