// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/vechain/stakeledger/ids"
)

type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction, similar to the mapping in Solidity.
// Values live at blake2b(key, basePos).
type Mapping[K Key, V any] struct {
	context *Context
	basePos ids.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos ids.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

// Position returns the storage position of the key. Two keys share a
// position only if they denote the same entry.
func (m *Mapping[K, V]) Position(key K) ids.Bytes32 {
	return ids.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get returns the value for key, or the zero value (allocated for pointers) if unset.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = decode(m.context, m.Position(key), &value)
	return
}

// Set stores the value for key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	return encode(m.context, m.Position(key), value)
}

// Delete clears the entry for key.
func (m *Mapping[K, V]) Delete(key K) {
	erase(m.context, m.Position(key))
}

// Exists reports whether an entry was stored for key.
func (m *Mapping[K, V]) Exists(key K) (bool, error) {
	raw, err := m.context.state.GetRawStorage(m.context.address, m.Position(key))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}
