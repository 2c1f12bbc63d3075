// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/vechain/stakeledger/ids"
)

// Genesis to build the initial ledger state.
type Genesis struct {
	builder    *Builder
	id         ids.Bytes32
	name       string
	authorized []ids.Address
}

func newGenesis(builder *Builder, name string, authorized []ids.Address) (*Genesis, error) {
	id, err := builder.ComputeID()
	if err != nil {
		return nil, err
	}
	return &Genesis{builder, id, name, authorized}, nil
}

// Build applies the genesis to t.
func (g *Genesis) Build(t *Target) error {
	return g.builder.Build(t)
}

// ID returns genesis ID.
func (g *Genesis) ID() ids.Bytes32 {
	return g.id
}

// Name returns network name.
func (g *Genesis) Name() string {
	return g.name
}

// Authorized returns the addresses allowed to run admin operations.
func (g *Genesis) Authorized() []ids.Address {
	return append([]ids.Address(nil), g.authorized...)
}
