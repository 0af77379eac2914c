package legacystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sapling-scm/filestore/core"
)

func TestStorePutGetRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	k := core.Key{Path: "a", Hgid: core.HgId{1}}
	sk := core.StoreKeyFromKey(k)
	require.NoError(t, s.Put(sk, []byte("content"), core.Metadata{Flags: 3}))

	content, ok, err := s.Get(sk)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("content"), content)

	meta, ok, err := s.GetMeta(sk)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(3), meta.Flags)
}

func TestStoreMissingIsNotFound(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, ok, err := s.Get(core.StoreKeyFromKey(core.Key{Path: "missing"}))
	require.NoError(t, err)
	assert.False(t, ok)
}
