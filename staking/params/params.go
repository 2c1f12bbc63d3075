// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/staking/reverts"
	"github.com/vechain/stakeledger/storage"
)

const (
	// PPMDenominator is 100% in parts per million.
	PPMDenominator = 1_000_000

	Day                  = uint64(24 * 60 * 60)
	MinEpochDuration     = 5 * Day
	MaxEpochDuration     = 30 * Day
	MinMinimumPoolStake  = 2
	DefaultEpochDuration = 10 * Day
	DefaultStakeWeight   = 900_000
)

var (
	slotParams    = storage.Slot("params")
	slotParamsSet = storage.Slot("params-set")

	// 100 tokens with 18 decimals
	DefaultMinimumPoolStake = new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))
)

// Params are the tunable staking parameters.
type Params struct {
	EpochDurationInSeconds      uint64
	RewardDelegatedStakeWeight  uint32
	MinimumPoolStake            *big.Int
	CobbDouglasAlphaNumerator   uint32
	CobbDouglasAlphaDenominator uint32
}

// Default returns the parameters in effect until the first update.
func Default() *Params {
	return &Params{
		EpochDurationInSeconds:      DefaultEpochDuration,
		RewardDelegatedStakeWeight:  DefaultStakeWeight,
		MinimumPoolStake:            new(big.Int).Set(DefaultMinimumPoolStake),
		CobbDouglasAlphaNumerator:   1,
		CobbDouglasAlphaDenominator: 3,
	}
}

func (p *Params) Copy() *Params {
	c := *p
	if p.MinimumPoolStake != nil {
		c.MinimumPoolStake = new(big.Int).Set(p.MinimumPoolStake)
	}
	return &c
}

// Validate checks every field against its bound.
func (p *Params) Validate() error {
	if p.EpochDurationInSeconds < MinEpochDuration || p.EpochDurationInSeconds > MaxEpochDuration {
		return reverts.Newf(reverts.InvalidParamValue, "epoch duration %d out of [%d, %d]", p.EpochDurationInSeconds, MinEpochDuration, MaxEpochDuration)
	}
	if p.RewardDelegatedStakeWeight > PPMDenominator {
		return reverts.Newf(reverts.InvalidParamValue, "delegated stake weight %d above %d", p.RewardDelegatedStakeWeight, PPMDenominator)
	}
	if p.MinimumPoolStake == nil || p.MinimumPoolStake.Cmp(big.NewInt(MinMinimumPoolStake)) < 0 {
		return reverts.Newf(reverts.InvalidParamValue, "minimum pool stake %v below %d", p.MinimumPoolStake, MinMinimumPoolStake)
	}
	if p.CobbDouglasAlphaDenominator == 0 || p.CobbDouglasAlphaNumerator > p.CobbDouglasAlphaDenominator {
		return reverts.Newf(reverts.InvalidParamValue, "cobb-douglas alpha %d/%d", p.CobbDouglasAlphaNumerator, p.CobbDouglasAlphaDenominator)
	}
	return nil
}

type Service struct {
	params *storage.Raw[*Params]
	set    *storage.Raw[bool]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		params: storage.NewRaw[*Params](sctx, slotParams),
		set:    storage.NewRaw[bool](sctx, slotParamsSet),
	}
}

// Get returns the stored parameters, or the defaults if never set.
func (s *Service) Get() (*Params, error) {
	set, err := s.set.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get params flag")
	}
	if !set {
		return Default(), nil
	}
	p, err := s.params.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get params")
	}
	return p, nil
}

// Set validates and stores p as a whole.
func (s *Service) Set(p *Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.params.Set(p); err != nil {
		return errors.Wrap(err, "failed to set params")
	}
	return s.set.Set(true)
}
