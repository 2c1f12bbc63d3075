// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/config"
)

// NewCustom create genesis from a deployment config. The first authorized
// address executes the admin steps.
func NewCustom(cfg *config.Config) (*Genesis, error) {
	gen := cfg.Genesis
	if len(gen.Authorized) == 0 {
		return nil, errors.New("at least one authorized address")
	}
	p, err := cfg.Params()
	if err != nil {
		return nil, err
	}

	builder := new(Builder).
		Timestamp(gen.LaunchTime).
		Executor(gen.Authorized[0]).
		Params(p).
		Fund(gen.RewardFund)
	for _, ex := range gen.Exchanges {
		builder.Exchange(ex)
	}
	for _, a := range gen.Accounts {
		builder.Alloc(a.Address, a.Stake, a.Rewards)
	}
	return newGenesis(builder, "custom", gen.Authorized)
}
