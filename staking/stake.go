// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/staking/lazybalance"
	"github.com/vechain/stakeledger/staking/stakes"
)

//
// Getters - no state change
//

// GlobalStakeByStatus returns the protocol wide stake with status.
func (s *Staking) GlobalStakeByStatus(status stakes.Status) (b *lazybalance.Balance, err error) {
	err = s.view(func() error {
		cur, err := s.currentEpoch()
		if err != nil {
			return err
		}
		b, err = s.stakeService.GlobalByStatus(status, cur)
		return err
	})
	return
}

// OwnerStakeByStatus returns the stake of owner with status.
func (s *Staking) OwnerStakeByStatus(owner ids.Address, status stakes.Status) (b *lazybalance.Balance, err error) {
	err = s.view(func() error {
		cur, err := s.currentEpoch()
		if err != nil {
			return err
		}
		b, err = s.stakeService.OwnerByStatus(owner, status, cur)
		return err
	})
	return
}

// TotalStake returns what owner holds in the vault.
func (s *Staking) TotalStake(owner ids.Address) (amount *big.Int, err error) {
	err = s.view(func() error {
		amount, err = s.vault.BalanceOf(owner)
		return err
	})
	return
}

func (s *Staking) StakeDelegatedToPoolByOwner(owner ids.Address, pool ids.PoolID) (b *lazybalance.Balance, err error) {
	err = s.view(func() error {
		cur, err := s.currentEpoch()
		if err != nil {
			return err
		}
		b, err = s.stakeService.DelegatedToPool(owner, pool, cur)
		return err
	})
	return
}

func (s *Staking) TotalStakeDelegatedToPool(pool ids.PoolID) (b *lazybalance.Balance, err error) {
	err = s.view(func() error {
		cur, err := s.currentEpoch()
		if err != nil {
			return err
		}
		b, err = s.stakeService.PoolTotal(pool, cur)
		return err
	})
	return
}

//
// Setters - state change
//

// Stake deposits amount from owner into the vault as undelegated stake,
// effective immediately.
func (s *Staking) Stake(owner ids.Address, amount *big.Int) error {
	logger.Debug("staking", "owner", owner, "amount", amount)
	if err := checkAmount(amount); err != nil {
		return err
	}

	err := s.execute("stake", func() error {
		cur, err := s.currentEpoch()
		if err != nil {
			return err
		}
		if err := s.vault.DepositFrom(owner, amount); err != nil {
			return err
		}
		if err := s.stakeService.Stake(owner, cur, amount); err != nil {
			return err
		}
		s.emit(StakeEvent{Staker: owner, Amount: new(big.Int).Set(amount)})
		return nil
	})
	if err != nil {
		logger.Info("stake failed", "owner", owner, "error", err)
		return err
	}

	logger.Info("staked", "owner", owner, "amount", amount)
	return nil
}

// Unstake returns undelegated stake to owner. Only stake that is
// undelegated in both the current and the next epoch can leave.
func (s *Staking) Unstake(owner ids.Address, amount *big.Int) error {
	logger.Debug("unstaking", "owner", owner, "amount", amount)
	if err := checkAmount(amount); err != nil {
		return err
	}

	err := s.execute("unstake", func() error {
		cur, err := s.currentEpoch()
		if err != nil {
			return err
		}
		if err := s.stakeService.Unstake(owner, cur, amount); err != nil {
			return err
		}
		if err := s.vault.WithdrawFrom(owner, amount); err != nil {
			return err
		}
		s.emit(UnstakeEvent{Staker: owner, Amount: new(big.Int).Set(amount)})
		return nil
	})
	if err != nil {
		logger.Info("unstake failed", "owner", owner, "error", err)
		return err
	}

	logger.Info("unstaked", "owner", owner, "amount", amount)
	return nil
}

// MoveStake moves amount of owner's stake from one position to another,
// effective from the next epoch. Rewards of the pools involved are settled
// first, against the stake held before the move.
func (s *Staking) MoveStake(owner ids.Address, from, to stakes.Info, amount *big.Int) error {
	logger.Debug("moving stake", "owner", owner, "from", from, "to", to, "amount", amount)

	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.Sign() == 0 || from.Same(to) {
		return nil
	}

	err := s.execute("move_stake", func() error {
		cur, err := s.currentEpoch()
		if err != nil {
			return err
		}
		for _, info := range []stakes.Info{from, to} {
			if info.Status != stakes.Delegated {
				continue
			}
			if _, err := s.poolService.Get(info.Pool); err != nil {
				return err
			}
		}

		if from.Status == stakes.Delegated {
			if _, err := s.withdrawAndSync(owner, from.Pool, cur); err != nil {
				return err
			}
		}
		if to.Status == stakes.Delegated && (from.Status != stakes.Delegated || from.Pool != to.Pool) {
			if _, err := s.withdrawAndSync(owner, to.Pool, cur); err != nil {
				return err
			}
		}

		if err := s.stakeService.Move(owner, from, to, cur, amount); err != nil {
			return err
		}
		s.emit(MoveStakeEvent{
			Staker:     owner,
			Amount:     new(big.Int).Set(amount),
			FromStatus: from.Status,
			FromPool:   from.Pool,
			ToStatus:   to.Status,
			ToPool:     to.Pool,
		})
		return nil
	})
	if err != nil {
		logger.Info("move stake failed", "owner", owner, "error", err)
		return err
	}

	logger.Info("moved stake", "owner", owner, "from", from, "to", to, "amount", amount)
	return nil
}

// InCatastrophicFailure reports whether the vault has been frozen.
func (s *Staking) InCatastrophicFailure() (on bool, err error) {
	err = s.view(func() error {
		on, err = s.vault.InCatastrophicFailure()
		return err
	})
	return
}

// EnterCatastrophicFailure freezes the vault. Stake and Unstake fail from
// then on and stakers can only recover their tokens with WithdrawAllFrom.
// It can be entered only once.
func (s *Staking) EnterCatastrophicFailure(caller ids.Address) error {
	logger.Debug("entering catastrophic failure", "caller", caller)
	err := s.execute("enter_catastrophic_failure", func() error {
		if err := s.assertAuthorized(caller); err != nil {
			return err
		}
		if err := s.vault.EnterCatastrophicFailure(); err != nil {
			return err
		}
		s.emit(CatastrophicFailureEvent{Sender: caller})
		return nil
	})
	if err != nil {
		logger.Info("enter catastrophic failure failed", "caller", caller, "error", err)
		return err
	}
	logger.Warn("in catastrophic failure mode", "caller", caller)
	return nil
}

// WithdrawAllFrom sends owner everything the vault holds for them. Anyone
// may trigger it, but only in catastrophic failure mode. Stake balances are
// left as they are.
func (s *Staking) WithdrawAllFrom(owner ids.Address) (amount *big.Int, err error) {
	logger.Debug("withdrawing all", "owner", owner)
	err = s.execute("withdraw_all", func() error {
		amount, err = s.vault.WithdrawAllFrom(owner)
		if err != nil {
			return err
		}
		s.emit(WithdrawAllEvent{Staker: owner, Amount: new(big.Int).Set(amount)})
		return nil
	})
	if err != nil {
		logger.Info("withdraw all failed", "owner", owner, "error", err)
		return nil, err
	}
	logger.Info("withdrawn all", "owner", owner, "amount", amount)
	return amount, nil
}
