// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vault provides token custody for staked tokens and the pot
// rewards are paid from, both on top of token ledgers in the same state
// as the staking engine so a reverted operation reverts their transfers too.
package vault

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/staking/reverts"
	"github.com/vechain/stakeledger/storage"
	"github.com/vechain/stakeledger/token"
)

var (
	logger = log.WithContext("pkg", "vault")

	slotDeposits = storage.Slot("deposits")
	slotFailure  = storage.Slot("catastrophic-failure")
)

// Vault holds staked tokens at its own address and books them per owner.
type Vault struct {
	token    *token.Ledger
	address  ids.Address
	deposits *storage.Mapping[ids.Address, *big.Int]
	failure  *storage.Raw[bool]
}

// New creates a vault custodying tokens of ledger at sctx's address.
func New(sctx *storage.Context, ledger *token.Ledger) *Vault {
	return &Vault{
		token:    ledger,
		address:  sctx.Address(),
		deposits: storage.NewMapping[ids.Address, *big.Int](sctx, slotDeposits),
		failure:  storage.NewRaw[bool](sctx, slotFailure),
	}
}

func (v *Vault) Address() ids.Address {
	return v.address
}

func (v *Vault) BalanceOf(owner ids.Address) (*big.Int, error) {
	b, err := v.deposits.Get(owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get deposit")
	}
	return b, nil
}

// InCatastrophicFailure reports whether the vault has been frozen.
func (v *Vault) InCatastrophicFailure() (bool, error) {
	on, err := v.failure.Get()
	if err != nil {
		return false, errors.Wrap(err, "failed to get failure mode")
	}
	return on, nil
}

// EnterCatastrophicFailure freezes the vault for good. Deposits and partial
// withdrawals fail from then on and owners can only take out everything
// they hold with WithdrawAllFrom. Callers authorize the switch.
func (v *Vault) EnterCatastrophicFailure() error {
	if err := v.assertNotInCatastrophicFailure(); err != nil {
		return err
	}
	if err := v.failure.Set(true); err != nil {
		return errors.Wrap(err, "failed to set failure mode")
	}
	logger.Warn("entered catastrophic failure mode", "vault", v.address)
	return nil
}

// WithdrawAllFrom releases everything owner holds. Only allowed once the
// vault is in catastrophic failure mode.
func (v *Vault) WithdrawAllFrom(owner ids.Address) (*big.Int, error) {
	on, err := v.InCatastrophicFailure()
	if err != nil {
		return nil, err
	}
	if !on {
		return nil, reverts.New(reverts.OnlyCallableIfInCatastrophicFailure, "vault is operating normally")
	}
	b, err := v.BalanceOf(owner)
	if err != nil {
		return nil, err
	}
	if err := v.withdraw(owner, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (v *Vault) assertNotInCatastrophicFailure() error {
	on, err := v.InCatastrophicFailure()
	if err != nil {
		return err
	}
	if on {
		return reverts.New(reverts.OnlyCallableIfNotInCatastrophicFailure, "vault is in catastrophic failure mode")
	}
	return nil
}

// DepositFrom pulls amount tokens from owner into custody.
func (v *Vault) DepositFrom(owner ids.Address, amount *big.Int) error {
	if err := v.assertNotInCatastrophicFailure(); err != nil {
		return err
	}
	if err := v.token.Transfer(owner, v.address, amount); err != nil {
		return err
	}
	b, err := v.BalanceOf(owner)
	if err != nil {
		return err
	}
	if err := v.deposits.Set(owner, b.Add(b, amount)); err != nil {
		return errors.Wrap(err, "failed to set deposit")
	}
	logger.Trace("deposited", "owner", owner, "amount", amount)
	return nil
}

// WithdrawFrom releases amount tokens back to owner.
func (v *Vault) WithdrawFrom(owner ids.Address, amount *big.Int) error {
	if err := v.assertNotInCatastrophicFailure(); err != nil {
		return err
	}
	return v.withdraw(owner, amount)
}

func (v *Vault) withdraw(owner ids.Address, amount *big.Int) error {
	b, err := v.BalanceOf(owner)
	if err != nil {
		return err
	}
	if b.Cmp(amount) < 0 {
		return reverts.Newf(reverts.InsufficientBalance, "vault holds %s for %v, wants %s", b, owner, amount)
	}
	if err := v.deposits.Set(owner, new(big.Int).Sub(b, amount)); err != nil {
		return errors.Wrap(err, "failed to set deposit")
	}
	if err := v.token.Transfer(v.address, owner, amount); err != nil {
		return err
	}
	logger.Trace("withdrawn", "owner", owner, "amount", amount)
	return nil
}

// Payer pays rewards out of the reward token balance of its address and
// collects protocol fees into it.
type Payer struct {
	token   *token.Ledger
	address ids.Address
}

func NewPayer(address ids.Address, ledger *token.Ledger) *Payer {
	return &Payer{token: ledger, address: address}
}

func (p *Payer) Address() ids.Address {
	return p.address
}

func (p *Payer) AvailableBalance() (*big.Int, error) {
	return p.token.BalanceOf(p.address)
}

func (p *Payer) Pay(to ids.Address, amount *big.Int) error {
	if err := p.token.Transfer(p.address, to, amount); err != nil {
		return errors.Wrap(err, "reward payment")
	}
	return nil
}

func (p *Payer) Collect(from ids.Address, amount *big.Int) error {
	if err := p.token.Transfer(from, p.address, amount); err != nil {
		return errors.Wrap(err, "fee collection")
	}
	return nil
}
