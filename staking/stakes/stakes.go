// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/staking/lazybalance"
	"github.com/vechain/stakeledger/storage"
)

// Status of a stake position.
type Status uint8

const (
	Undelegated Status = iota
	Delegated
)

func (s Status) String() string {
	switch s {
	case Undelegated:
		return "undelegated"
	case Delegated:
		return "delegated"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

func (s Status) Bytes() []byte {
	return []byte{byte(s)}
}

// Info locates a stake position. Pool is only meaningful when delegated.
type Info struct {
	Status Status
	Pool   ids.PoolID
}

func (i Info) String() string {
	if i.Status == Delegated {
		return fmt.Sprintf("%v(%v)", i.Status, i.Pool)
	}
	return i.Status.String()
}

// Same reports whether both refer to the exact same position.
func (i Info) Same(o Info) bool {
	if i.Status != o.Status {
		return false
	}
	return i.Status != Delegated || i.Pool == o.Pool
}

type ownerKey struct {
	owner  ids.Address
	status Status
}

func (k ownerKey) Bytes() []byte {
	return append(k.owner.Bytes(), byte(k.status))
}

type delegatorKey struct {
	owner ids.Address
	pool  ids.PoolID
}

func (k delegatorKey) Bytes() []byte {
	return append(k.owner.Bytes(), k.pool.Bytes()...)
}

var (
	slotGlobal    = storage.Slot("stakes-global")
	slotOwner     = storage.Slot("stakes-owner")
	slotDelegator = storage.Slot("stakes-delegator")
	slotPoolTotal = storage.Slot("stakes-pool-total")
)

// Service keeps every stake balance of the ledger. All balances are lazy
// and are loaded at the epoch passed by the caller.
type Service struct {
	global    *storage.Mapping[Status, *lazybalance.Balance]
	owner     *storage.Mapping[ownerKey, *lazybalance.Balance]
	delegator *storage.Mapping[delegatorKey, *lazybalance.Balance]
	poolTotal *storage.Mapping[ids.PoolID, *lazybalance.Balance]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		global:    storage.NewMapping[Status, *lazybalance.Balance](sctx, slotGlobal),
		owner:     storage.NewMapping[ownerKey, *lazybalance.Balance](sctx, slotOwner),
		delegator: storage.NewMapping[delegatorKey, *lazybalance.Balance](sctx, slotDelegator),
		poolTotal: storage.NewMapping[ids.PoolID, *lazybalance.Balance](sctx, slotPoolTotal),
	}
}

func (s *Service) GlobalByStatus(status Status, epoch uint64) (*lazybalance.Balance, error) {
	b, err := s.global.Get(status)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get global stake")
	}
	return lazybalance.LoadAt(b, epoch), nil
}

func (s *Service) OwnerByStatus(owner ids.Address, status Status, epoch uint64) (*lazybalance.Balance, error) {
	b, err := s.owner.Get(ownerKey{owner, status})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get owner stake")
	}
	return lazybalance.LoadAt(b, epoch), nil
}

func (s *Service) DelegatedToPool(owner ids.Address, pool ids.PoolID, epoch uint64) (*lazybalance.Balance, error) {
	b, err := s.StoredDelegatedToPool(owner, pool)
	if err != nil {
		return nil, err
	}
	return lazybalance.LoadAt(b, epoch), nil
}

// StoredDelegatedToPool returns the balance as last written, not loaded.
func (s *Service) StoredDelegatedToPool(owner ids.Address, pool ids.PoolID) (*lazybalance.Balance, error) {
	b, err := s.delegator.Get(delegatorKey{owner, pool})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delegated stake")
	}
	return b, nil
}

func (s *Service) SetDelegatedToPool(owner ids.Address, pool ids.PoolID, b *lazybalance.Balance) error {
	if err := s.delegator.Set(delegatorKey{owner, pool}, b); err != nil {
		return errors.Wrap(err, "failed to set delegated stake")
	}
	return nil
}

func (s *Service) PoolTotal(pool ids.PoolID, epoch uint64) (*lazybalance.Balance, error) {
	b, err := s.poolTotal.Get(pool)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool stake")
	}
	return lazybalance.LoadAt(b, epoch), nil
}

// Stake credits undelegated stake, effective immediately.
func (s *Service) Stake(owner ids.Address, epoch uint64, amount *big.Int) error {
	fn := func(b *lazybalance.Balance) (*lazybalance.Balance, error) {
		return lazybalance.IncreaseCurrentAndNext(b, epoch, amount), nil
	}
	if err := update(s.owner, ownerKey{owner, Undelegated}, fn); err != nil {
		return err
	}
	return update(s.global, Undelegated, fn)
}

// Unstake removes undelegated stake, effective immediately.
func (s *Service) Unstake(owner ids.Address, epoch uint64, amount *big.Int) error {
	fn := func(b *lazybalance.Balance) (*lazybalance.Balance, error) {
		return lazybalance.DecreaseCurrentAndNext(b, epoch, amount)
	}
	if err := update(s.owner, ownerKey{owner, Undelegated}, fn); err != nil {
		return err
	}
	return update(s.global, Undelegated, fn)
}

// Move shifts next epoch stake of owner between two positions. Every new
// balance is computed first, then all decreased balances are written before
// any increased one. Balances shared by both positions, such as the
// delegated totals of a move between pools, are left untouched. Moving a
// position onto itself does nothing.
func (s *Service) Move(owner ids.Address, from, to Info, epoch uint64, amount *big.Int) error {
	var w writes
	if err := stageMove(&w, s.global, from.Status, to.Status, epoch, amount); err != nil {
		return err
	}
	if err := stageMove(&w, s.owner, ownerKey{owner, from.Status}, ownerKey{owner, to.Status}, epoch, amount); err != nil {
		return err
	}

	switch {
	case from.Status == Delegated && to.Status == Delegated:
		if err := stageMove(&w, s.delegator, delegatorKey{owner, from.Pool}, delegatorKey{owner, to.Pool}, epoch, amount); err != nil {
			return err
		}
		if err := stageMove(&w, s.poolTotal, from.Pool, to.Pool, epoch, amount); err != nil {
			return err
		}
	case from.Status == Delegated:
		decrease := func(b *lazybalance.Balance) (*lazybalance.Balance, error) {
			return lazybalance.DecreaseNext(b, epoch, amount)
		}
		if err := stageUpdate(&w.decreases, s.delegator, delegatorKey{owner, from.Pool}, decrease); err != nil {
			return err
		}
		if err := stageUpdate(&w.decreases, s.poolTotal, from.Pool, decrease); err != nil {
			return err
		}
	case to.Status == Delegated:
		increase := func(b *lazybalance.Balance) (*lazybalance.Balance, error) {
			return lazybalance.IncreaseNext(b, epoch, amount), nil
		}
		if err := stageUpdate(&w.increases, s.delegator, delegatorKey{owner, to.Pool}, increase); err != nil {
			return err
		}
		if err := stageUpdate(&w.increases, s.poolTotal, to.Pool, increase); err != nil {
			return err
		}
	}
	return w.apply()
}

type balanceFunc func(*lazybalance.Balance) (*lazybalance.Balance, error)

// writes holds the stores of a move until every new balance is known.
type writes struct {
	decreases []func() error
	increases []func() error
}

func (w *writes) apply() error {
	for _, set := range append(w.decreases, w.increases...) {
		if err := set(); err != nil {
			return err
		}
	}
	return nil
}

// stageMove computes the move between two keys of m. Equal keys share a slot
// and are neither loaded nor written.
func stageMove[K storage.Key](w *writes, m *storage.Mapping[K, *lazybalance.Balance], from, to K, epoch uint64, amount *big.Int) error {
	sameSlot := bytes.Equal(from.Bytes(), to.Bytes())
	var fb, tb *lazybalance.Balance
	if !sameSlot {
		var err error
		if fb, err = m.Get(from); err != nil {
			return errors.Wrap(err, "failed to get stake")
		}
		if tb, err = m.Get(to); err != nil {
			return errors.Wrap(err, "failed to get stake")
		}
	}
	nf, nt, err := lazybalance.MoveBetween(fb, tb, sameSlot, epoch, amount)
	if err != nil || sameSlot {
		return err
	}
	w.decreases = append(w.decreases, func() error { return set(m, from, nf) })
	w.increases = append(w.increases, func() error { return set(m, to, nt) })
	return nil
}

func stageUpdate[K storage.Key](list *[]func() error, m *storage.Mapping[K, *lazybalance.Balance], key K, fn balanceFunc) error {
	b, err := m.Get(key)
	if err != nil {
		return errors.Wrap(err, "failed to get stake")
	}
	nb, err := fn(b)
	if err != nil {
		return err
	}
	*list = append(*list, func() error { return set(m, key, nb) })
	return nil
}

func set[K storage.Key](m *storage.Mapping[K, *lazybalance.Balance], key K, b *lazybalance.Balance) error {
	if err := m.Set(key, b); err != nil {
		return errors.Wrap(err, "failed to set stake")
	}
	return nil
}

func update[K storage.Key](m *storage.Mapping[K, *lazybalance.Balance], key K, fn balanceFunc) error {
	b, err := m.Get(key)
	if err != nil {
		return errors.Wrap(err, "failed to get stake")
	}
	nb, err := fn(b)
	if err != nil {
		return err
	}
	return set(m, key, nb)
}
