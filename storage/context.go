// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed slots (values, counters, mappings) laid out
// over the ledger state under an owner address, similar to contract storage.
package storage

import (
	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/state"
)

// Context binds slots to an owner namespace within a state.
type Context struct {
	address ids.Address
	state   *state.State
}

func NewContext(address ids.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() ids.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// Slot names a storage position.
func Slot(name string) ids.Bytes32 {
	return ids.BytesToBytes32([]byte(name))
}
