// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/ids"
)

// ErrUnderflow is returned when a counter would go below zero.
var ErrUnderflow = errors.New("storage: uint underflow")

// Uint is a non-negative big integer counter at a fixed position.
type Uint struct {
	raw *Raw[*big.Int]
}

func NewUint(context *Context, pos ids.Bytes32) *Uint {
	return &Uint{raw: NewRaw[*big.Int](context, pos)}
}

func (u *Uint) Get() (*big.Int, error) {
	return u.raw.Get()
}

func (u *Uint) Set(value *big.Int) error {
	if value.Sign() < 0 {
		return ErrUnderflow
	}
	return u.raw.Set(value)
}

func (u *Uint) Add(value *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(v.Add(v, value))
}

func (u *Uint) Sub(value *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	if v.Cmp(value) < 0 {
		return errors.Wrapf(ErrUnderflow, "%s - %s", v, value)
	}
	return u.Set(v.Sub(v, value))
}
