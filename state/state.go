// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakeledger/cache"
	"github.com/vechain/stakeledger/ids"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/stackedmap"
)

// DefaultCacheSize is the number of committed slots kept decoded in memory.
const DefaultCacheSize = 65536

const storageBucket = kv.Bucket("s")

var logger = log.WithContext("pkg", "state")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr ids.Address
	key  ids.Bytes32
}

func (k storageKey) bytes() []byte {
	return append(append(make([]byte, 0, ids.AddressLength+32), k.addr[:]...), k.key[:]...)
}

// State is the ledger's storage: raw values addressed by (owner, slot), journaled
// in memory between commits so any operation can be rolled back as a whole.
type State struct {
	store kv.Store
	cache *cache.LRU[storageKey, rlp.RawValue]
	sm    *stackedmap.StackedMap[storageKey, rlp.RawValue]
}

// New create state object backed by the given store.
func New(store kv.Store, cacheSize int) (*State, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	c, err := cache.NewLRU[storageKey, rlp.RawValue]("state", cacheSize)
	if err != nil {
		return nil, err
	}
	s := &State{
		store: storageBucket.NewStore(store),
		cache: c,
	}
	s.reset()
	return s, nil
}

func (s *State) reset() {
	s.sm = stackedmap.New[storageKey, rlp.RawValue](s.committedGetter)
	s.sm.Push()
}

// committedGetter implements stackedmap.MapGetter.
func (s *State) committedGetter(key storageKey) (rlp.RawValue, bool, error) {
	v, err := s.cache.GetOrLoad(key, func(key storageKey) (rlp.RawValue, error) {
		raw, err := s.store.Get(key.bytes())
		if err != nil {
			if s.store.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// GetRawStorage returns storage value in rlp raw for given address and key.
// Absent values are returned as empty.
func (s *State) GetRawStorage(addr ids.Address, key ids.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw. An empty value deletes the slot.
func (s *State) SetRawStorage(addr ids.Address, key ids.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by end will be absorbed by State instance.
func (s *State) EncodeStorage(addr ids.Address, key ids.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr ids.Address, key ids.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Dirty returns the number of journaled writes not yet committed.
func (s *State) Dirty() int {
	return len(s.sm.Journal())
}

// Commit writes every journaled change to the store in a single batch and
// starts a fresh journal.
func (s *State) Commit() error {
	journal := s.sm.Journal()
	if len(journal) == 0 {
		s.reset()
		return nil
	}

	// last write wins, applied in first-write order
	var (
		order  []storageKey
		latest = make(map[storageKey]rlp.RawValue, len(journal))
	)
	for _, entry := range journal {
		if _, ok := latest[entry.Key]; !ok {
			order = append(order, entry.Key)
		}
		latest[entry.Key] = entry.Value
	}

	batch := s.store.NewBatch()
	for _, key := range order {
		val := latest[key]
		var err error
		if len(val) == 0 {
			err = batch.Delete(key.bytes())
		} else {
			err = batch.Put(key.bytes(), bytes.Clone(val))
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}

	for _, key := range order {
		s.cache.Add(key, latest[key])
	}
	logger.Trace("state committed", "slots", len(order))
	s.reset()
	return nil
}
