// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"sync"
	"time"

	"github.com/vechain/stakeledger/ids"
)

// Vault custodies staked tokens. A failed call fails the whole operation.
// Once in catastrophic failure mode a vault refuses deposits and partial
// withdrawals, and owners recover their tokens with WithdrawAllFrom.
type Vault interface {
	DepositFrom(owner ids.Address, amount *big.Int) error
	WithdrawFrom(owner ids.Address, amount *big.Int) error
	BalanceOf(owner ids.Address) (*big.Int, error)

	InCatastrophicFailure() (bool, error)
	EnterCatastrophicFailure() error
	WithdrawAllFrom(owner ids.Address) (*big.Int, error)
}

// RewardPayer holds the token rewards are paid in.
type RewardPayer interface {
	AvailableBalance() (*big.Int, error)
	Pay(to ids.Address, amount *big.Int) error
}

// FeeCollector is implemented by payers that take protocol fees in
// themselves. Payers without it are funded out of band.
type FeeCollector interface {
	Collect(from ids.Address, amount *big.Int) error
}

// Clock returns the current unix time in seconds.
type Clock interface {
	Now() uint64
}

// Authorizer decides who may change parameters and the exchange set.
type Authorizer interface {
	IsAuthorized(addr ids.Address) bool
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// AllowList authorizes a fixed set of addresses.
type AllowList struct {
	mu    sync.RWMutex
	addrs map[ids.Address]struct{}
}

func NewAllowList(addrs ...ids.Address) *AllowList {
	l := &AllowList{addrs: make(map[ids.Address]struct{}, len(addrs))}
	for _, a := range addrs {
		l.addrs[a] = struct{}{}
	}
	return l
}

func (l *AllowList) IsAuthorized(addr ids.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.addrs[addr]
	return ok
}

func (l *AllowList) Add(addr ids.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.addrs[addr] = struct{}{}
}

func (l *AllowList) Remove(addr ids.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.addrs, addr)
}
