// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/staking/params"
	"github.com/vechain/stakeledger/staking/reverts"
	"github.com/vechain/stakeledger/storage"
)

var (
	slotPools      = storage.Slot("pools")
	slotMakers     = storage.Slot("pools-makers")
	slotLastPoolID = storage.Slot("pools-last-id")
)

// Pool is a staking pool run by Operator, who keeps OperatorShare parts per
// million of every reward.
type Pool struct {
	Operator      ids.Address
	OperatorShare uint32
}

type Service struct {
	pools      *storage.Mapping[ids.PoolID, *Pool]
	makers     *storage.Mapping[ids.Address, ids.PoolID]
	lastPoolID *storage.Raw[uint64]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		pools:      storage.NewMapping[ids.PoolID, *Pool](sctx, slotPools),
		makers:     storage.NewMapping[ids.Address, ids.PoolID](sctx, slotMakers),
		lastPoolID: storage.NewRaw[uint64](sctx, slotLastPoolID),
	}
}

// Create allocates the next pool id for operator.
func (s *Service) Create(operator ids.Address, operatorShare uint32) (ids.PoolID, error) {
	if operatorShare > params.PPMDenominator {
		return 0, reverts.Newf(reverts.OperatorShareError, "operator share %d above %d", operatorShare, params.PPMDenominator)
	}
	last, err := s.LastPoolID()
	if err != nil {
		return 0, err
	}
	if last == ids.MaxPoolID {
		return 0, reverts.New(reverts.PoolIDOverflow, "pool id counter exhausted")
	}
	id := last + 1
	if err := s.lastPoolID.Set(uint64(id)); err != nil {
		return 0, errors.Wrap(err, "failed to set last pool id")
	}
	if err := s.pools.Set(id, &Pool{Operator: operator, OperatorShare: operatorShare}); err != nil {
		return 0, errors.Wrap(err, "failed to set pool")
	}
	return id, nil
}

func (s *Service) LastPoolID() (ids.PoolID, error) {
	last, err := s.lastPoolID.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get last pool id")
	}
	return ids.PoolID(last), nil
}

// Exists reports whether id was allocated.
func (s *Service) Exists(id ids.PoolID) (bool, error) {
	if id.IsNil() {
		return false, nil
	}
	last, err := s.LastPoolID()
	if err != nil {
		return false, err
	}
	return id <= last, nil
}

// Get returns the pool or an InvalidPool revert.
func (s *Service) Get(id ids.PoolID) (*Pool, error) {
	exists, err := s.Exists(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, reverts.Newf(reverts.InvalidPool, "pool %v does not exist", id)
	}
	p, err := s.pools.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	return p, nil
}

// DecreaseOperatorShare lowers the operator share. Only the operator may
// call it and the share never increases. Returns the previous share.
func (s *Service) DecreaseOperatorShare(caller ids.Address, id ids.PoolID, share uint32) (uint32, error) {
	p, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	if p.Operator != caller {
		return 0, reverts.Newf(reverts.OnlyCallableByPoolOperator, "%v is not the operator of pool %v", caller, id)
	}
	if share > params.PPMDenominator {
		return 0, reverts.Newf(reverts.OperatorShareError, "operator share %d above %d", share, params.PPMDenominator)
	}
	if share > p.OperatorShare {
		return 0, reverts.Newf(reverts.OperatorShareError, "operator share %d above current %d", share, p.OperatorShare)
	}
	prev := p.OperatorShare
	p.OperatorShare = share
	if err := s.pools.Set(id, p); err != nil {
		return 0, errors.Wrap(err, "failed to set pool")
	}
	return prev, nil
}

// SetMakerPool binds maker to id, the nil pool unbinds it.
func (s *Service) SetMakerPool(maker ids.Address, id ids.PoolID) error {
	if err := s.makers.Set(maker, id); err != nil {
		return errors.Wrap(err, "failed to set maker pool")
	}
	return nil
}

func (s *Service) PoolIDByMaker(maker ids.Address) (ids.PoolID, error) {
	id, err := s.makers.Get(maker)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get maker pool")
	}
	return id, nil
}
