// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Getter defines methods to read kv.
type Getter interface {
	// Get returns an error if key not found. It can be checked via IsNotFound.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Putter defines methods to write kv.
type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// Batch collects puts and applies them atomically on Write.
type Batch interface {
	Putter
	Len() int
	Write() error
}

// Store defines the full functionality of kv store.
type Store interface {
	Getter
	Putter

	NewBatch() Batch
}

// StoreCloser is a store backed by resources that must be released.
type StoreCloser interface {
	Store
	Close() error
}
