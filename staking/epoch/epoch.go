// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epoch

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/staking/reverts"
	"github.com/vechain/stakeledger/storage"
)

// First is the epoch the ledger starts in.
const First = uint64(1)

var (
	slotCurrent   = storage.Slot("epoch-current")
	slotStartTime = storage.Slot("epoch-start-time")

	ErrAlreadyInitialized = errors.New("epoch: already initialized")
)

type Service struct {
	current   *storage.Raw[uint64]
	startTime *storage.Raw[uint64]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		current:   storage.NewRaw[uint64](sctx, slotCurrent),
		startTime: storage.NewRaw[uint64](sctx, slotStartTime),
	}
}

// Init starts the first epoch at startTime.
func (s *Service) Init(startTime uint64) error {
	cur, err := s.current.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get current epoch")
	}
	if cur != 0 {
		return ErrAlreadyInitialized
	}
	if err := s.current.Set(First); err != nil {
		return errors.Wrap(err, "failed to set current epoch")
	}
	if err := s.startTime.Set(startTime); err != nil {
		return errors.Wrap(err, "failed to set epoch start time")
	}
	return nil
}

// Current returns the current epoch, zero before Init.
func (s *Service) Current() (uint64, error) {
	cur, err := s.current.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get current epoch")
	}
	return cur, nil
}

func (s *Service) StartTime() (uint64, error) {
	t, err := s.startTime.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get epoch start time")
	}
	return t, nil
}

// EarliestEndTime is the first time the current epoch may end.
func (s *Service) EarliestEndTime(duration uint64) (uint64, error) {
	start, err := s.StartTime()
	if err != nil {
		return 0, err
	}
	return start + duration, nil
}

// Advance moves to the next epoch starting at now, which must not be before
// the earliest end time of the current one.
func (s *Service) Advance(now, duration uint64) (uint64, error) {
	end, err := s.EarliestEndTime(duration)
	if err != nil {
		return 0, err
	}
	if now < end {
		return 0, reverts.Newf(reverts.BlockTimestampTooLow, "epoch ends at %d, now %d", end, now)
	}
	cur, err := s.Current()
	if err != nil {
		return 0, err
	}
	cur++
	if err := s.current.Set(cur); err != nil {
		return 0, errors.Wrap(err, "failed to set current epoch")
	}
	if err := s.startTime.Set(now); err != nil {
		return 0, errors.Wrap(err, "failed to set epoch start time")
	}
	return cur, nil
}
