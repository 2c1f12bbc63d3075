// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakeledger/ids"
)

// Raw stores a single rlp encoded value at a fixed position.
type Raw[V any] struct {
	context *Context
	pos     ids.Bytes32
}

func NewRaw[V any](context *Context, pos ids.Bytes32) *Raw[V] {
	return &Raw[V]{context: context, pos: pos}
}

// Get returns the stored value. Missing values decode as the zero value, with
// pointer types allocated so callers never see nil.
func (r *Raw[V]) Get() (value V, err error) {
	err = decode(r.context, r.pos, &value)
	return
}

// Set stores the value.
func (r *Raw[V]) Set(value V) error {
	return encode(r.context, r.pos, value)
}

func decode[V any](ctx *Context, pos ids.Bytes32, value *V) error {
	return ctx.state.DecodeStorage(ctx.address, pos, func(raw []byte) error {
		if t := reflect.TypeOf(*value); t != nil && t.Kind() == reflect.Ptr {
			*value = reflect.New(t.Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, value)
	})
}

func encode[V any](ctx *Context, pos ids.Bytes32, value V) error {
	return ctx.state.EncodeStorage(ctx.address, pos, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

func erase(ctx *Context, pos ids.Bytes32) {
	ctx.state.SetRawStorage(ctx.address, pos, nil)
}
