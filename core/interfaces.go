package core

import "context"

// InlineLogStore is the contract required of an append-only, on-disk,
// key→blob log — used for both the content tiers (ilog-local, ilog-cache)
// and, under the AuxLogStore alias, the aux-data tiers (aux-local,
// aux-cache).
type InlineLogStore interface {
	GetRawEntry(key Key) (LogEntry, bool, error)
	PutEntry(entry LogEntry) error
	FlushLog() error
	// RLock acquires a read lock for one store invocation and returns the
	// function that releases it.
	RLock() func()
	// Lock acquires a write lock held across a whole write-back promotion
	// pass (or a whole batch write) and returns the function that releases
	// it.
	Lock() func()
}

// AuxLogStore is an InlineLogStore specialized to store FileAuxData
// records; the wire shape is identical, only the payload's meaning
// differs.
type AuxLogStore = InlineLogStore

// LfsStoreEntry is what a large-file store returns for a content-addressed
// lookup: the pointer record, and the blob bytes if already resident.
type LfsStoreEntry struct {
	Pointer LfsPointersEntry
	Blob    []byte
	HasBlob bool
}

// LargeFileStore is the contract required of a content-addressed large-file
// (LFS) store.
type LargeFileStore interface {
	FetchAvailable(key StoreKey) (LfsStoreEntry, bool, error)
	AddBlob(sha Sha256, data []byte) error
	AddPointer(entry LfsPointersEntry) error
	Flush() error
}

// McData is a single memcache record.
type McData struct {
	Key     Key
	Content []byte
	Meta    Metadata
}

// McDataResult pairs a requested key with its lookup outcome.
type McDataResult struct {
	Key   Key
	Data  McData
	Found bool
	Err   error
}

// MemcacheStore is the contract required of the process-external shared
// cache tier.
type MemcacheStore interface {
	GetDataIter(keys []Key) ([]McDataResult, error)
	AddMcData(data McData) error
}

// FileEntry is a single file as returned by the remote content API.
type FileEntry struct {
	Key     Key
	Content []byte
	Meta    Metadata
}

// RemoteAPIStore is the contract required of the network source of
// authoritative file content.
type RemoteAPIStore interface {
	FilesBlocking(ctx context.Context, keys []Key) ([]FileEntry, error)
}

// Sha256SizePair is one entry of a remote-LFS batch-fetch request.
type Sha256SizePair struct {
	Sha256 Sha256
	Size   uint64
}

// RemoteLFSStore is the contract required of the network source of
// large-file blobs. The callback may be invoked concurrently from multiple
// worker goroutines and must be safe for parallel invocation.
type RemoteLFSStore interface {
	BatchFetch(ctx context.Context, pairs []Sha256SizePair, cb func(Sha256, []byte) error) error
}

// LegacyStore is the contract required of the pre-existing tiered store
// used as a fallback of last resort.
type LegacyStore interface {
	Get(key StoreKey) ([]byte, bool, error)
	GetMeta(key StoreKey) (Metadata, bool, error)
	Prefetch(keys []StoreKey) error
}
