// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cache keeps recently read committed values decoded in memory.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"github.com/vechain/stakeledger/metrics"
)

var metricLookups = metrics.LazyLoadCounterVec("cache_lookups_count", []string{"cache", "result"})

// LRU is a typed, named wrapper around golang-lru counting hits and misses.
type LRU[K comparable, V any] struct {
	name      string
	c         *lru.Cache
	hit, miss atomic.Int64
}

// NewLRU fails unless size > 0. name labels the lookup metrics.
func NewLRU[K comparable, V any](name string, size int) (*LRU[K, V], error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{name: name, c: c}, nil
}

func (l *LRU[K, V]) Get(key K) (v V, ok bool) {
	if cached, found := l.c.Get(key); found {
		return cached.(V), true
	}
	return v, false
}

func (l *LRU[K, V]) Add(key K, value V) {
	l.c.Add(key, value)
}

func (l *LRU[K, V]) Len() int {
	return l.c.Len()
}

// GetOrLoad returns the cached value, or loads and caches it. Failed loads
// are not cached.
func (l *LRU[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := l.Get(key); ok {
		l.hit.Add(1)
		metricLookups().AddWithLabel(1, map[string]string{"cache": l.name, "result": "hit"})
		return v, nil
	}
	l.miss.Add(1)
	metricLookups().AddWithLabel(1, map[string]string{"cache": l.name, "result": "miss"})
	v, err := load(key)
	if err != nil {
		var zero V
		return zero, err
	}
	l.c.Add(key, v)
	return v, nil
}

// Stats returns the hits and misses seen by GetOrLoad.
func (l *LRU[K, V]) Stats() (hit, miss int64) {
	return l.hit.Load(), l.miss.Load()
}
