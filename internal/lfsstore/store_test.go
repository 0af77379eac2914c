package lfsstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sapling-scm/filestore/core"
)

func TestStorePointerOnlyThenBlob(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	sha := core.Sha256{1, 2, 3}
	require.NoError(t, s.AddPointer(core.LfsPointersEntry{Sha256: sha, Size: 42}))

	entry, ok, err := s.FetchAvailable(core.StoreKeyFromContent(sha, nil))
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, entry.HasBlob)
	assert.Equal(t, uint64(42), entry.Pointer.Size)

	require.NoError(t, s.AddBlob(sha, []byte("blob-bytes")))
	entry, ok, err = s.FetchAvailable(core.StoreKeyFromContent(sha, nil))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, entry.HasBlob)
	assert.Equal(t, []byte("blob-bytes"), entry.Blob)
}

func TestStoreMissingIsNotFound(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, ok, err := s.FetchAvailable(core.StoreKeyFromContent(core.Sha256{9}, nil))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDigestFormatsAsOCIDigest(t *testing.T) {
	sha := core.Sha256{0xde, 0xad, 0xbe, 0xef}
	d := Digest(sha)
	assert.Equal(t, "sha256", string(d.Algorithm()))
}
