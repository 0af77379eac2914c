package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory store test doubles ---

type fakeIlogStore struct {
	mu      sync.RWMutex
	entries map[Key]LogEntry
}

func newFakeIlogStore() *fakeIlogStore { return &fakeIlogStore{entries: make(map[Key]LogEntry)} }

func (s *fakeIlogStore) GetRawEntry(k Key) (LogEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[k]
	return e, ok, nil
}
// PutEntry takes no lock of its own: the write-back pass already holds
// Lock() across its PutEntry calls, as with ilog.Store.
func (s *fakeIlogStore) PutEntry(e LogEntry) error {
	s.entries[e.Key] = e
	return nil
}
func (s *fakeIlogStore) FlushLog() error { return nil }
func (s *fakeIlogStore) RLock() func()   { s.mu.RLock(); return s.mu.RUnlock }
func (s *fakeIlogStore) Lock() func()    { s.mu.Lock(); return s.mu.Unlock }

type fakeLfsStore struct {
	mu       sync.Mutex
	blobs    map[Sha256][]byte
	pointers map[Sha256]LfsPointersEntry
}

func newFakeLfsStore() *fakeLfsStore {
	return &fakeLfsStore{blobs: make(map[Sha256][]byte), pointers: make(map[Sha256]LfsPointersEntry)}
}

func (s *fakeLfsStore) FetchAvailable(key StoreKey) (LfsStoreEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ptr, havePtr := s.pointers[key.ContentID]
	blob, haveBlob := s.blobs[key.ContentID]
	if !havePtr && !haveBlob {
		return LfsStoreEntry{}, false, nil
	}
	if !havePtr {
		ptr = LfsPointersEntry{Sha256: key.ContentID, Size: uint64(len(blob))}
	}
	return LfsStoreEntry{Pointer: ptr, Blob: blob, HasBlob: haveBlob}, true, nil
}
func (s *fakeLfsStore) AddBlob(sha Sha256, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[sha] = data
	return nil
}
func (s *fakeLfsStore) AddPointer(e LfsPointersEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointers[e.Sha256] = e
	return nil
}
func (s *fakeLfsStore) Flush() error { return nil }

type fakeMemcacheStore struct {
	mu   sync.Mutex
	data map[Key]McData
}

func newFakeMemcacheStore() *fakeMemcacheStore {
	return &fakeMemcacheStore{data: make(map[Key]McData)}
}
func (s *fakeMemcacheStore) GetDataIter(keys []Key) ([]McDataResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]McDataResult, 0, len(keys))
	for _, k := range keys {
		d, ok := s.data[k]
		out = append(out, McDataResult{Key: k, Data: d, Found: ok})
	}
	return out, nil
}
func (s *fakeMemcacheStore) AddMcData(d McData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[d.Key] = d
	return nil
}

type fakeRemoteAPIStore struct {
	files map[Key]FileEntry
}

func (s *fakeRemoteAPIStore) FilesBlocking(_ context.Context, keys []Key) ([]FileEntry, error) {
	var out []FileEntry
	for _, k := range keys {
		if f, ok := s.files[k]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

type fakeRemoteLFSStore struct {
	blobs map[Sha256][]byte
}

func (s *fakeRemoteLFSStore) BatchFetch(_ context.Context, pairs []Sha256SizePair, cb func(Sha256, []byte) error) error {
	for _, p := range pairs {
		if b, ok := s.blobs[p.Sha256]; ok {
			if err := cb(p.Sha256, b); err != nil {
				return err
			}
		}
	}
	return nil
}

type fakeLegacyStore struct {
	content map[Key][]byte
	meta    map[Key]Metadata
}

func (s *fakeLegacyStore) Get(sk StoreKey) ([]byte, bool, error) {
	if sk.Origin == nil {
		return nil, false, nil
	}
	b, ok := s.content[*sk.Origin]
	return b, ok, nil
}
func (s *fakeLegacyStore) GetMeta(sk StoreKey) (Metadata, bool, error) {
	if sk.Origin == nil {
		return Metadata{}, false, nil
	}
	m, ok := s.meta[*sk.Origin]
	return m, ok, nil
}
func (s *fakeLegacyStore) Prefetch([]StoreKey) error { return nil }

// --- end-to-end scenarios from the testable-properties list ---

func TestFetchPureLocalHit(t *testing.T) {
	ilogLocal := newFakeIlogStore()
	k := Key{Path: "a", Hgid: HgId{1}}
	require.NoError(t, ilogLocal.PutEntry(LogEntry{Key: k, Content: make([]byte, 10)}))

	result := Fetch(context.Background(), Stores{IlogLocal: ilogLocal}, Options{ExtStoredPolicy: ExtStoredUse}, []Key{k}, AttrContent)

	require.Empty(t, result.Incomplete)
	sf, ok := result.Complete[k]
	require.True(t, ok)
	assert.Equal(t, AttrContent, sf.Attrs())
}

func TestFetchAuxDerivedAndPromoted(t *testing.T) {
	ilogLocal := newFakeIlogStore()
	auxLocal := newFakeIlogStore()
	k := Key{Path: "a", Hgid: HgId{1}}
	content := []byte("0123456789")
	require.NoError(t, ilogLocal.PutEntry(LogEntry{Key: k, Content: content}))

	result := Fetch(context.Background(), Stores{IlogLocal: ilogLocal, AuxLocal: auxLocal},
		Options{ExtStoredPolicy: ExtStoredUse, ComputeAuxData: true}, []Key{k}, AttrContent.Union(AttrAuxData))

	require.Empty(t, result.Incomplete)
	sf := result.Complete[k]
	aux, ok := sf.AuxData()
	require.True(t, ok)
	assert.Equal(t, computeAuxData(content).ContentSha256, aux.ContentSha256)

	entry, ok, err := auxLocal.GetRawEntry(k)
	require.NoError(t, err)
	require.True(t, ok)
	decoded, err := decodeAuxData(entry.Content)
	require.NoError(t, err)
	assert.Equal(t, aux.ContentSha256, decoded.ContentSha256)
}

func TestFetchRemoteAPIThenCachePromotion(t *testing.T) {
	k := Key{Path: "a", Hgid: HgId{1}}
	remote := &fakeRemoteAPIStore{files: map[Key]FileEntry{k: {Key: k, Content: make([]byte, 50)}}}
	ilogCache := newFakeIlogStore()
	memcache := newFakeMemcacheStore()

	result := Fetch(context.Background(), Stores{RemoteAPI: remote, IlogCache: ilogCache, Memcache: memcache},
		Options{ExtStoredPolicy: ExtStoredUse, CacheToLocalCache: true, CacheToMemcache: true}, []Key{k}, AttrContent)

	require.Empty(t, result.Incomplete)
	_, ok := result.Complete[k]
	require.True(t, ok)

	_, ok, _ = ilogCache.GetRawEntry(k)
	assert.True(t, ok)
	_, ok = memcache.data[k]
	assert.True(t, ok)
}

func TestFetchLFSPathReplacesInMemoryWithStoreBacked(t *testing.T) {
	k := Key{Path: "a", Hgid: HgId{1}}
	sha := Sha256{0xaa}

	ilogCache := newFakeIlogStore()
	pointerText := "sha256 " + sha.String() + "\nsize 2048\n"
	require.NoError(t, ilogCache.PutEntry(LogEntry{Key: k, Content: []byte(pointerText), Metadata: Metadata{Flags: flagLFS}}))

	lfsCache := newFakeLfsStore()
	remoteLFS := &fakeRemoteLFSStore{blobs: map[Sha256][]byte{sha: make([]byte, 2048)}}

	result := Fetch(context.Background(), Stores{IlogCache: ilogCache, LfsCache: lfsCache, RemoteLFS: remoteLFS},
		Options{ExtStoredPolicy: ExtStoredUse}, []Key{k}, AttrContent)

	require.Empty(t, result.Incomplete)
	_, ok := result.Complete[k]
	require.True(t, ok)

	_, haveBlob := lfsCache.blobs[sha]
	assert.True(t, haveBlob)
}

func TestFetchPartialFailure(t *testing.T) {
	k1 := Key{Path: "a", Hgid: HgId{1}}
	k2 := Key{Path: "b", Hgid: HgId{2}}

	ilogCache := newFakeIlogStore()
	require.NoError(t, ilogCache.PutEntry(LogEntry{Key: k1, Content: []byte("x")}))

	result := Fetch(context.Background(), Stores{IlogCache: ilogCache}, Options{ExtStoredPolicy: ExtStoredUse}, []Key{k1, k2}, AttrContent)

	assert.Len(t, result.Complete, 1)
	_, ok := result.Complete[k1]
	assert.True(t, ok)

	require.Len(t, result.Incomplete, 1)
	errs, ok := result.Incomplete[k2]
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestFetchEveryKeyInExactlyOneBucket(t *testing.T) {
	k1 := Key{Path: "a", Hgid: HgId{1}}
	k2 := Key{Path: "b", Hgid: HgId{2}}
	ilogCache := newFakeIlogStore()
	require.NoError(t, ilogCache.PutEntry(LogEntry{Key: k1, Content: []byte("x")}))

	result := Fetch(context.Background(), Stores{IlogCache: ilogCache}, Options{ExtStoredPolicy: ExtStoredUse}, []Key{k1, k2}, AttrContent)

	for _, k := range []Key{k1, k2} {
		_, inComplete := result.Complete[k]
		_, inIncomplete := result.Incomplete[k]
		assert.True(t, inComplete != inIncomplete, "key %v must be in exactly one bucket", k)
	}
}

func TestFetchCompleteHasRequestedAttrsOnly(t *testing.T) {
	k := Key{Path: "a", Hgid: HgId{1}}
	ilogLocal := newFakeIlogStore()
	require.NoError(t, ilogLocal.PutEntry(LogEntry{Key: k, Content: []byte("x")}))

	result := Fetch(context.Background(), Stores{IlogLocal: ilogLocal}, Options{ExtStoredPolicy: ExtStoredUse, ComputeAuxData: true}, []Key{k}, AttrContent)

	sf := result.Complete[k]
	assert.True(t, sf.Attrs().Has(AttrContent))
	assert.Equal(t, AttrContent, sf.Attrs())
}
