package memcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sapling-scm/filestore/core"
)

func TestStoreGetSetRoundTrip(t *testing.T) {
	s := New(0)
	k := core.Key{Path: "a"}
	require.NoError(t, s.AddMcData(core.McData{Key: k, Content: []byte("x")}))

	results, err := s.GetDataIter([]core.Key{k})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Found)
	assert.Equal(t, []byte("x"), results[0].Data.Content)
}

func TestStoreMissReportsNotFound(t *testing.T) {
	s := New(0)
	results, err := s.GetDataIter([]core.Key{{Path: "missing"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Found)
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	s := New(2)
	k1, k2, k3 := core.Key{Path: "1"}, core.Key{Path: "2"}, core.Key{Path: "3"}

	require.NoError(t, s.AddMcData(core.McData{Key: k1}))
	require.NoError(t, s.AddMcData(core.McData{Key: k2}))
	_, _ = s.GetDataIter([]core.Key{k1}) // touch k1, making k2 the LRU entry
	require.NoError(t, s.AddMcData(core.McData{Key: k3}))

	results, err := s.GetDataIter([]core.Key{k1, k2, k3})
	require.NoError(t, err)
	assert.True(t, results[0].Found)
	assert.False(t, results[1].Found)
	assert.True(t, results[2].Found)
	assert.Equal(t, 2, s.Len())
}
