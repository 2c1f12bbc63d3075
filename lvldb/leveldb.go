// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb is the goleveldb backed kv.Store holding the ledger state.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/metrics"
)

var _ kv.StoreCloser = (*LevelDB)(nil)

const (
	minCacheSize      = 16 // MiB
	minOpenFilesCache = 16
)

var (
	metricBatchOps    = metrics.LazyLoadHistogram("lvldb_batch_ops", []int64{1, 4, 16, 64, 256, 1024, 4096})
	metricBatchWrites = metrics.LazyLoadCounterVec("lvldb_batch_writes_count", []string{"result"})
)

// Options tunes the database. Sizes below the minimums are raised to them.
type Options struct {
	CacheSize              int  `yaml:"cache-size"`
	OpenFilesCacheCapacity int  `yaml:"open-files-cache"`
	NoSync                 bool `yaml:"no-sync"`
}

func (o Options) leveldb() *opt.Options {
	cache := max(o.CacheSize, minCacheSize)
	return &opt.Options{
		OpenFilesCacheCapacity: max(o.OpenFilesCacheCapacity, minOpenFilesCache),
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		// two write buffers are alive while a memtable is compacted
		WriteBuffer: cache / 4 * opt.MiB,
		Filter:      filter.NewBloomFilter(10),
	}
}

// LevelDB stores ledger state. Each committed operation arrives as one batch.
type LevelDB struct {
	db       *leveldb.DB
	batchOpt *opt.WriteOptions
}

// New opens the database at path, creating it if missing.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open leveldb storage")
	}
	return open(stg, opts)
}

// NewMem returns a database held in memory, used by tests and dry runs.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{NoSync: true})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	db, err := leveldb.Open(stg, opts.leveldb())
	if err != nil {
		stg.Close()
		return nil, errors.Wrap(err, "failed to open leveldb")
	}
	return &LevelDB{
		db:       db,
		batchOpt: &opt.WriteOptions{Sync: !opts.NoSync},
	}, nil
}

func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

// Get fails with an error satisfying IsNotFound for missing keys.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, nil)
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, nil)
}

// Close releases the database. Later calls fail.
func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

// NewBatch starts a batch. Unless NoSync is set it is written with fsync.
func (ldb *LevelDB) NewBatch() kv.Batch {
	return &batch{ldb: ldb, b: new(leveldb.Batch)}
}

type batch struct {
	ldb *LevelDB
	b   *leveldb.Batch
}

func (b *batch) Put(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) Len() int {
	return b.b.Len()
}

func (b *batch) Write() error {
	metricBatchOps().Observe(int64(b.b.Len()))
	if err := b.ldb.db.Write(b.b, b.ldb.batchOpt); err != nil {
		metricBatchWrites().AddWithLabel(1, map[string]string{"result": "failure"})
		return errors.Wrap(err, "failed to write batch")
	}
	metricBatchWrites().AddWithLabel(1, map[string]string{"result": "success"})
	return nil
}
