// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ids

import (
	"encoding/binary"
	"strconv"
)

// PoolID identifies a staking pool. Pools are numbered from 1, zero is the nil pool.
type PoolID uint64

// NilPoolID is the zero pool, used by makers to leave a pool.
const NilPoolID PoolID = 0

// MaxPoolID is the largest pool id the counter can allocate.
const MaxPoolID PoolID = ^PoolID(0)

// IsNil returns if the id refers to no pool.
func (p PoolID) IsNil() bool {
	return p == NilPoolID
}

// Bytes returns the big-endian form of the id, used as storage key.
func (p PoolID) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(p))
	return b[:]
}

func (p PoolID) String() string {
	return "#" + strconv.FormatUint(uint64(p), 10)
}
