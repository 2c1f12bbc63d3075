// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/staking"
	"github.com/vechain/stakeledger/staking/params"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/storage"
	"github.com/vechain/stakeledger/token"
	"github.com/vechain/stakeledger/vault"
)

var (
	// Address holds the id of the genesis a store was built from.
	Address = ids.NamedAddress("genesis")

	slotID = storage.Slot("genesis-id")

	// ErrAlreadyBuilt is returned when building into a store that has a genesis.
	ErrAlreadyBuilt = errors.New("genesis: already built")
)

// Target is the ledger a genesis is built into. All parts must share State.
type Target struct {
	State       *state.State
	Staking     *staking.Staking
	StakeToken  *token.Ledger
	RewardToken *token.Ledger
	Payer       *vault.Payer
}

// Builder helper to build the initial ledger state.
type Builder struct {
	timestamp uint64
	executor  ids.Address
	params    *params.Params
	exchanges []ids.Address
	allocs    []alloc
	fund      *big.Int
}

type alloc struct {
	Address ids.Address
	Stake   *big.Int
	Rewards *big.Int
}

// Timestamp set the start time of the first epoch.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// Executor set the authorized address that applies params and exchanges.
func (b *Builder) Executor(addr ids.Address) *Builder {
	b.executor = addr
	return b
}

// Params set the initial staking params.
func (b *Builder) Params(p *params.Params) *Builder {
	b.params = p.Copy()
	return b
}

// Exchange register an exchange.
func (b *Builder) Exchange(addr ids.Address) *Builder {
	b.exchanges = append(b.exchanges, addr)
	return b
}

// Alloc mint stake and reward tokens to addr. Nil amounts are skipped.
func (b *Builder) Alloc(addr ids.Address, stake, rewards *big.Int) *Builder {
	b.allocs = append(b.allocs, alloc{addr, stake, rewards})
	return b
}

// Fund mint reward tokens straight to the reward payer.
func (b *Builder) Fund(amount *big.Int) *Builder {
	b.fund = amount
	return b
}

// ComputeID compute genesis ID.
func (b *Builder) ComputeID() (ids.Bytes32, error) {
	data, err := rlp.EncodeToBytes(&struct {
		Timestamp uint64
		Executor  ids.Address
		Params    *params.Params
		Exchanges []ids.Address
		Allocs    []alloc
		Fund      *big.Int
	}{b.timestamp, b.executor, b.params, b.exchanges, b.allocs, b.fund})
	if err != nil {
		return ids.Bytes32{}, errors.Wrap(err, "encode genesis")
	}
	return ids.Blake2b(data), nil
}

// Build applies the genesis to an empty ledger. Each step commits on its
// own, so a failed build leaves the store unusable.
func (b *Builder) Build(t *Target) error {
	id, err := b.ComputeID()
	if err != nil {
		return err
	}
	stored, err := StoredID(t.State)
	if err != nil {
		return err
	}
	if !stored.IsZero() {
		return ErrAlreadyBuilt
	}
	if b.params != nil {
		if err := b.params.Validate(); err != nil {
			return err
		}
	}

	if err := t.Staking.Init(b.timestamp); err != nil {
		return errors.Wrap(err, "init staking")
	}
	for _, a := range b.allocs {
		if err := mint(t.StakeToken, a.Address, a.Stake); err != nil {
			return errors.Wrapf(err, "alloc stake to %v", a.Address)
		}
		if err := mint(t.RewardToken, a.Address, a.Rewards); err != nil {
			return errors.Wrapf(err, "alloc rewards to %v", a.Address)
		}
	}
	if err := mint(t.RewardToken, t.Payer.Address(), b.fund); err != nil {
		return errors.Wrap(err, "fund reward payer")
	}
	if b.params != nil {
		if err := t.Staking.SetParams(b.executor, b.params); err != nil {
			return errors.Wrap(err, "set params")
		}
	}
	for _, ex := range b.exchanges {
		if err := t.Staking.AddExchangeAddress(b.executor, ex); err != nil {
			return errors.Wrapf(err, "add exchange %v", ex)
		}
	}

	if err := storage.NewRaw[ids.Bytes32](storage.NewContext(Address, t.State), slotID).Set(id); err != nil {
		return errors.Wrap(err, "set genesis id")
	}
	return t.State.Commit()
}

// StoredID returns the id of the genesis st was built from, zero if none.
func StoredID(st *state.State) (ids.Bytes32, error) {
	id, err := storage.NewRaw[ids.Bytes32](storage.NewContext(Address, st), slotID).Get()
	if err != nil {
		return ids.Bytes32{}, errors.Wrap(err, "get genesis id")
	}
	return id, nil
}

func mint(l *token.Ledger, to ids.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	return l.Mint(to, amount)
}
