package filestore

import (
	"log/slog"

	"github.com/sapling-scm/filestore/core"
)

// Option configures a FileStore at construction.
type Option func(*FileStore)

// WithExtStoredPolicy overrides the default (Use) extstored handling.
func WithExtStoredPolicy(p core.ExtStoredPolicy) Option {
	return func(fs *FileStore) { fs.extstoredPolicy = p }
}

// WithLFSThreshold sets the byte size above which WriteBatch routes an
// entry's content to lfs-local instead of ilog-local. Leaving this unset
// disables LFS write-routing entirely.
func WithLFSThreshold(bytes uint64) Option {
	return func(fs *FileStore) { fs.lfsThresholdBytes = &bytes }
}

// WithComputeAuxData toggles aux-data derivation when a fetch's requested
// attributes include aux-data but no source supplied it directly.
func WithComputeAuxData(enabled bool) Option {
	return func(fs *FileStore) { fs.computeAuxData = enabled }
}

// WithCacheToLocalCache toggles promotion of cache-resolved content into
// ilog-cache after a fetch.
func WithCacheToLocalCache(enabled bool) Option {
	return func(fs *FileStore) { fs.cacheToLocalCache = enabled }
}

// WithCacheToMemcache toggles promotion of newly resolved content into the
// memcache tier after a fetch.
func WithCacheToMemcache(enabled bool) Option {
	return func(fs *FileStore) { fs.cacheToMemcache = enabled }
}

// WithIndexedLogLocal configures the ilog-local content tier.
func WithIndexedLogLocal(store core.InlineLogStore) Option {
	return func(fs *FileStore) { fs.stores.IlogLocal = store }
}

// WithIndexedLogCache configures the ilog-cache content tier.
func WithIndexedLogCache(store core.InlineLogStore) Option {
	return func(fs *FileStore) { fs.stores.IlogCache = store }
}

// WithAuxLocal configures the aux-local tier.
func WithAuxLocal(store core.AuxLogStore) Option {
	return func(fs *FileStore) { fs.stores.AuxLocal = store }
}

// WithAuxCache configures the aux-cache tier.
func WithAuxCache(store core.AuxLogStore) Option {
	return func(fs *FileStore) { fs.stores.AuxCache = store }
}

// WithLFSLocal configures the lfs-local tier.
func WithLFSLocal(store core.LargeFileStore) Option {
	return func(fs *FileStore) { fs.stores.LfsLocal = store }
}

// WithLFSCache configures the lfs-cache tier.
func WithLFSCache(store core.LargeFileStore) Option {
	return func(fs *FileStore) { fs.stores.LfsCache = store }
}

// WithMemcache configures the shared memcache tier.
func WithMemcache(store core.MemcacheStore) Option {
	return func(fs *FileStore) { fs.stores.Memcache = store }
}

// WithRemoteAPI configures the remote content API tier.
func WithRemoteAPI(store core.RemoteAPIStore) Option {
	return func(fs *FileStore) { fs.stores.RemoteAPI = store }
}

// WithRemoteLFS configures the remote large-file transport.
func WithRemoteLFS(store core.RemoteLFSStore) Option {
	return func(fs *FileStore) { fs.stores.RemoteLFS = store }
}

// WithLegacyStore configures the legacy fallback tier.
func WithLegacyStore(store core.LegacyStore) Option {
	return func(fs *FileStore) { fs.stores.Legacy = store }
}

// WithLogger overrides the ambient logger, defaulting to a discard handler.
func WithLogger(logger *slog.Logger) Option {
	return func(fs *FileStore) { fs.logger = logger }
}
