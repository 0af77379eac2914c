package core

import (
	"context"
	"log/slog"
)

// Stores is the full set of store handles a fetch may consult. A nil field
// means that tier is unconfigured and is skipped.
type Stores struct {
	AuxCache, AuxLocal   AuxLogStore
	IlogCache, IlogLocal InlineLogStore
	LfsCache, LfsLocal   LargeFileStore
	Memcache             MemcacheStore
	RemoteAPI            RemoteAPIStore
	RemoteLFS            RemoteLFSStore
	Legacy               LegacyStore
}

// Options carries the fetch-behavior configuration enumerated in the
// external interfaces: the extstored policy, the aux-data derivation gate,
// the write-back promotion gates, and the logger. The LFS size threshold is
// not here: it only affects the write path and lives on the facade.
type Options struct {
	ExtStoredPolicy   ExtStoredPolicy
	ComputeAuxData    bool
	CacheToLocalCache bool
	CacheToMemcache   bool
	Logger            *slog.Logger
}

// Fetch drives a single fetch of keys for attrs against stores, in the
// fixed order: aux-cache, aux-local, ilog-cache, ilog-local, lfs-cache,
// lfs-local, memcache, remote-API, remote-LFS, legacy-store, derivation,
// write-back. A store absent from stores is skipped.
func Fetch(ctx context.Context, stores Stores, opts Options, keys []Key, attrs FileAttributes) *FileStoreFetch {
	fs := NewFetchState(keys, attrs, opts.ExtStoredPolicy, opts.ComputeAuxData, opts.Logger)

	_ = fs.fetchAuxIndexedLog(stores.AuxCache, ScopeCache)
	_ = fs.fetchAuxIndexedLog(stores.AuxLocal, ScopeLocal)
	_ = fs.fetchIndexedLog(stores.IlogCache, ScopeCache)
	_ = fs.fetchIndexedLog(stores.IlogLocal, ScopeLocal)
	_ = fs.fetchLFS(stores.LfsCache, ScopeCache)
	_ = fs.fetchLFS(stores.LfsLocal, ScopeLocal)
	_ = fs.fetchMemcache(stores.Memcache)
	_ = fs.fetchRemoteAPI(ctx, stores.RemoteAPI)
	_ = fs.fetchRemoteLFS(ctx, stores.RemoteLFS, stores.LfsCache, stores.LfsLocal)
	_ = fs.fetchLegacy(stores.Legacy)

	fs.deriveComputable()

	var ilogCacheForWriteback InlineLogStore
	if opts.CacheToLocalCache {
		ilogCacheForWriteback = stores.IlogCache
	}
	var memcacheForWriteback MemcacheStore
	if opts.CacheToMemcache {
		memcacheForWriteback = stores.Memcache
	}
	fs.writeToCache(ilogCacheForWriteback, memcacheForWriteback, stores.AuxCache, stores.AuxLocal)

	return fs.finish()
}

// finish combines the accumulated errors with a sentinel entry for every
// still-pending key, then masks every completed StoreFile to request_attrs.
// A key that eventually reached all requested attributes has its
// accumulated errors discarded — a later source made it whole.
func (fs *FetchState) finish() *FileStoreFetch {
	complete := make(map[Key]StoreFile, len(fs.found))
	for k, sf := range fs.found {
		if _, stillPending := fs.pending[k]; stillPending {
			continue
		}
		complete[k] = sf.Mask(fs.requestAttrs)
	}

	incomplete := make(map[Key][]error, len(fs.pending))
	for k := range fs.pending {
		incomplete[k] = fs.errs.keyed[k]
	}

	return &FileStoreFetch{
		Complete:    complete,
		Incomplete:  incomplete,
		OtherErrors: fs.errs.other,
	}
}
