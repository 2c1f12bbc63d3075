// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDB(t *testing.T) {
	persistent, err := New(filepath.Join(t.TempDir(), "ledger"), Options{CacheSize: 16, OpenFilesCacheCapacity: 16, NoSync: true})
	require.NoError(t, err)
	defer persistent.Close()

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()

	for _, db := range []*LevelDB{persistent, mem} {
		require.NoError(t, db.Put([]byte("123"), []byte("456")))

		v, err := db.Get([]byte("123"))
		require.NoError(t, err)
		assert.Equal(t, []byte("456"), v)

		_, err = db.Get([]byte("abc"))
		assert.True(t, db.IsNotFound(err))

		has, err := db.Has([]byte("123"))
		require.NoError(t, err)
		assert.True(t, has)

		require.NoError(t, db.Delete([]byte("123")))
		_, err = db.Get([]byte("123"))
		assert.True(t, db.IsNotFound(err))

		batch := db.NewBatch()
		require.NoError(t, batch.Put([]byte("a"), []byte("1")))
		require.NoError(t, batch.Delete([]byte("b")))
		assert.Equal(t, 2, batch.Len())
		require.NoError(t, batch.Write())

		v, err = db.Get([]byte("a"))
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), v)
	}
}

func TestOptionsMinimums(t *testing.T) {
	o := Options{}.leveldb()
	assert.Equal(t, minOpenFilesCache, o.OpenFilesCacheCapacity)
	assert.Equal(t, minCacheSize/2*1024*1024, o.BlockCacheCapacity)

	o = Options{CacheSize: 256, OpenFilesCacheCapacity: 64}.leveldb()
	assert.Equal(t, 64, o.OpenFilesCacheCapacity)
	assert.Equal(t, 64*1024*1024, o.WriteBuffer)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger")
	db, err := New(path, Options{})
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("epoch"), []byte{1}))
	require.NoError(t, db.Close())

	db, err = New(path, Options{})
	require.NoError(t, err)
	defer db.Close()
	v, err := db.Get([]byte("epoch"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, v)
}
