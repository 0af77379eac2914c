package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIlogLazyFileStripsCopyHeader(t *testing.T) {
	from := Key{Path: "a", Hgid: HgId{1}}
	header := buildCopyHeader(&from)
	raw := append(append([]byte{}, header...), []byte("payload")...)

	lf := NewIlogLazyFile(LogEntry{Content: raw})

	hgContent, err := lf.HgContent()
	require.NoError(t, err)
	assert.Equal(t, raw, hgContent)

	fileContent, err := lf.FileContent()
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), fileContent)
}

func TestIlogLazyFileNoHeaderIsPassthrough(t *testing.T) {
	lf := NewIlogLazyFile(LogEntry{Content: []byte("plain")})
	fileContent, err := lf.FileContent()
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), fileContent)
}

func TestIlogLazyFileIndexedLogCacheEntryRestampsKey(t *testing.T) {
	lf := NewIlogLazyFile(LogEntry{Key: Key{Path: "orig"}, Content: []byte("c")})
	requested := Key{Path: "requested"}
	entry, ok := lf.IndexedLogCacheEntry(requested)
	require.True(t, ok)
	assert.Equal(t, requested, entry.Key)
	assert.Equal(t, []byte("c"), entry.Content)
}

func TestLFSLazyFileMetadataSynthesizesSize(t *testing.T) {
	lf := NewLFSLazyFile(LfsPointersEntry{Sha256: Sha256{1}, Size: 2048}, nil, false)
	meta, err := lf.Metadata()
	require.NoError(t, err)
	require.NotNil(t, meta.Size)
	assert.Equal(t, uint64(2048), *meta.Size)
	assert.False(t, meta.IsLFS())
}

func TestLFSLazyFileFileContentErrorsWithoutBlob(t *testing.T) {
	lf := NewLFSLazyFile(LfsPointersEntry{Sha256: Sha256{1}}, nil, false)
	_, err := lf.FileContent()
	assert.Error(t, err)
}

func TestLFSLazyFileFileContentVerbatimWithBlob(t *testing.T) {
	lf := NewLFSLazyFile(LfsPointersEntry{Sha256: Sha256{1}}, []byte("blob"), true)
	content, err := lf.FileContent()
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), content)
}

func TestLFSLazyFileProjectsToNone(t *testing.T) {
	lf := NewLFSLazyFile(LfsPointersEntry{}, []byte("x"), true)
	_, ok := lf.IndexedLogCacheEntry(Key{})
	assert.False(t, ok)
}

func TestLegacyLazyFileProjectsToNone(t *testing.T) {
	lf := NewLegacyLazyFile([]byte("x"), Metadata{})
	_, ok := lf.IndexedLogCacheEntry(Key{})
	assert.False(t, ok)
}

func TestComputeAuxDataUsesPointerForLFS(t *testing.T) {
	sha := Sha256{9, 9, 9}
	lf := NewLFSLazyFile(LfsPointersEntry{Sha256: sha}, nil, false)
	aux, err := lf.ComputeAuxData()
	require.NoError(t, err)
	assert.Equal(t, sha, aux.ContentSha256)
}

func TestComputeAuxDataHashesContentForNonLFS(t *testing.T) {
	lf := NewIlogLazyFile(LogEntry{Content: []byte("hello")})
	aux, err := lf.ComputeAuxData()
	require.NoError(t, err)
	want := computeAuxData([]byte("hello"))
	assert.Equal(t, want.ContentSha256, aux.ContentSha256)
}
