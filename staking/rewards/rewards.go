// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/staking/reverts"
	"github.com/vechain/stakeledger/storage"
)

var (
	slotCumulative = storage.Slot("rewards-cumulative")
	slotMostRecent = storage.Slot("rewards-most-recent")
	slotPot        = storage.Slot("rewards-by-pool")
	slotReserved   = storage.Slot("rewards-reserved")
)

type epochKey struct {
	pool  ids.PoolID
	epoch uint64
}

func (k epochKey) Bytes() []byte {
	return binary.BigEndian.AppendUint64(k.pool.Bytes(), k.epoch)
}

// Service tracks, per pool, the cumulative member reward per unit of stake.
// Entries are only written in epochs where the value is needed, lookups
// fall back to at most two preceding epochs and then the most recent entry.
type Service struct {
	cumulative *storage.Mapping[epochKey, *Fraction]
	mostRecent *storage.Mapping[ids.PoolID, uint64]
	pot        *storage.Mapping[ids.PoolID, *big.Int]
	reserved   *storage.Uint
}

func New(sctx *storage.Context) *Service {
	return &Service{
		cumulative: storage.NewMapping[epochKey, *Fraction](sctx, slotCumulative),
		mostRecent: storage.NewMapping[ids.PoolID, uint64](sctx, slotMostRecent),
		pot:        storage.NewMapping[ids.PoolID, *big.Int](sctx, slotPot),
		reserved:   storage.NewUint(sctx, slotReserved),
	}
}

// StoredAt returns the entry stored exactly at epoch, possibly unset.
func (s *Service) StoredAt(pool ids.PoolID, epoch uint64) (*Fraction, error) {
	f, err := s.cumulative.Get(epochKey{pool, epoch})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get cumulative reward")
	}
	return f, nil
}

func (s *Service) MostRecentEpoch(pool ids.PoolID) (uint64, error) {
	e, err := s.mostRecent.Get(pool)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get most recent epoch")
	}
	return e, nil
}

func (s *Service) set(pool ids.PoolID, epoch uint64, f *Fraction) error {
	if err := s.cumulative.Set(epochKey{pool, epoch}, f); err != nil {
		return errors.Wrap(err, "failed to set cumulative reward")
	}
	if err := s.mostRecent.Set(pool, epoch); err != nil {
		return errors.Wrap(err, "failed to set most recent epoch")
	}
	return nil
}

// Add folds reward/stake into the running value and records it at epoch.
// Only the first call per pool and epoch has an effect.
func (s *Service) Add(pool ids.PoolID, reward, stake *big.Int, epoch uint64) error {
	current, err := s.StoredAt(pool, epoch)
	if err != nil {
		return err
	}
	if current.IsSet() {
		return nil
	}
	last, err := s.MostRecentEpoch(pool)
	if err != nil {
		return err
	}
	prev, err := s.StoredAt(pool, last)
	if err != nil {
		return err
	}
	next := Normalize(AddFraction(prev, reward, stake))
	if !next.IsSet() {
		next = Zero()
	}
	return s.set(pool, epoch, next)
}

// Update copies the most recent value to epoch unless epoch already has one.
func (s *Service) Update(pool ids.PoolID, epoch uint64) error {
	current, err := s.StoredAt(pool, epoch)
	if err != nil {
		return err
	}
	if current.IsSet() {
		return nil
	}
	last, err := s.MostRecentEpoch(pool)
	if err != nil {
		return err
	}
	prev, err := s.StoredAt(pool, last)
	if err != nil {
		return err
	}
	if !prev.IsSet() {
		prev = Zero()
	}
	return s.set(pool, epoch, prev)
}

// At returns the cumulative value in effect at epoch.
func (s *Service) At(pool ids.PoolID, epoch uint64) (*Fraction, error) {
	for back := uint64(0); back <= 2 && back <= epoch; back++ {
		f, err := s.StoredAt(pool, epoch-back)
		if err != nil {
			return nil, err
		}
		if f.IsSet() {
			return f, nil
		}
	}
	last, err := s.MostRecentEpoch(pool)
	if err != nil {
		return nil, err
	}
	if last < epoch {
		f, err := s.StoredAt(pool, last)
		if err != nil {
			return nil, err
		}
		if f.IsSet() {
			return f, nil
		}
	}
	return Zero(), nil
}

// MemberRewardOverInterval returns what stake earned in the pool over
// [begin, end).
func (s *Service) MemberRewardOverInterval(pool ids.PoolID, stake *big.Int, begin, end uint64) (*big.Int, error) {
	if begin > end {
		return nil, reverts.Newf(reverts.IntervalInvalid, "interval [%d, %d)", begin, end)
	}
	if stake.Sign() == 0 || begin == end {
		return new(big.Int), nil
	}
	b, err := s.At(pool, begin)
	if err != nil {
		return nil, err
	}
	e, err := s.At(pool, end)
	if err != nil {
		return nil, err
	}
	return ScaleDifference(e, b, stake), nil
}

// RewardsByPool is the pot of member rewards not yet withdrawn.
func (s *Service) RewardsByPool(pool ids.PoolID) (*big.Int, error) {
	v, err := s.pot.Get(pool)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool rewards")
	}
	return v, nil
}

// Reserved is the sum of every pot.
func (s *Service) Reserved() (*big.Int, error) {
	return s.reserved.Get()
}

func (s *Service) IncreasePoolRewards(pool ids.PoolID, amount *big.Int) error {
	v, err := s.RewardsByPool(pool)
	if err != nil {
		return err
	}
	if err := s.pot.Set(pool, v.Add(v, amount)); err != nil {
		return errors.Wrap(err, "failed to set pool rewards")
	}
	return s.reserved.Add(amount)
}

func (s *Service) DecreasePoolRewards(pool ids.PoolID, amount *big.Int) error {
	v, err := s.RewardsByPool(pool)
	if err != nil {
		return err
	}
	if v.Cmp(amount) < 0 {
		return reverts.Newf(reverts.InsufficientBalance, "pool %v rewards %s below %s", pool, v, amount)
	}
	if err := s.pot.Set(pool, v.Sub(v, amount)); err != nil {
		return errors.Wrap(err, "failed to set pool rewards")
	}
	return s.reserved.Sub(amount)
}
