// Package filestore adapts the tiered fetch engine in core to the
// store-interface contracts callers expect: get-content, get-meta, blob,
// content-metadata, prefetch, get-missing, add, write-batch, flush,
// refresh, and upload. It mirrors the teacher's pattern of a thin root
// type wrapping an inner engine package, built with functional options.
package filestore

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"

	"github.com/sapling-scm/filestore/core"
)

// FileStore is the public facade over the fetch engine.
type FileStore struct {
	stores            core.Stores
	extstoredPolicy   core.ExtStoredPolicy
	computeAuxData    bool
	cacheToLocalCache bool
	cacheToMemcache   bool
	lfsThresholdBytes *uint64
	logger            *slog.Logger
}

// New builds a FileStore. Defaults: extstored policy Use, aux-data
// derivation on, both cache-promotion gates on, LFS routing disabled
// (lfs_threshold_bytes unset) until WithLFSThreshold is given.
func New(opts ...Option) *FileStore {
	fs := &FileStore{
		extstoredPolicy:   core.ExtStoredUse,
		computeAuxData:    true,
		cacheToLocalCache: true,
		cacheToMemcache:   true,
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

func (fs *FileStore) log() *slog.Logger {
	if fs.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return fs.logger
}

func (fs *FileStore) coreOptions() core.Options {
	return core.Options{
		ExtStoredPolicy:   fs.extstoredPolicy,
		ComputeAuxData:    fs.computeAuxData,
		CacheToLocalCache: fs.cacheToLocalCache,
		CacheToMemcache:   fs.cacheToMemcache,
		Logger:            fs.logger,
	}
}

func (fs *FileStore) fetchOne(ctx context.Context, k core.Key) (core.StoreFile, bool) {
	result := core.Fetch(ctx, fs.stores, fs.coreOptions(), []core.Key{k}, core.AttrContent)
	sf, ok := result.Complete[k]
	return sf, ok
}

// GetContent returns key's hg_content (header-preserving) bytes.
func (fs *FileStore) GetContent(ctx context.Context, key core.Key) ([]byte, bool, error) {
	sf, ok := fs.fetchOne(ctx, key)
	if !ok {
		return nil, false, nil
	}
	lf, ok := sf.ContentFile()
	if !ok {
		return nil, false, nil
	}
	b, err := lf.HgContent()
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// GetMeta returns key's resolved metadata.
func (fs *FileStore) GetMeta(ctx context.Context, key core.Key) (core.Metadata, bool, error) {
	sf, ok := fs.fetchOne(ctx, key)
	if !ok {
		return core.Metadata{}, false, nil
	}
	lf, ok := sf.ContentFile()
	if !ok {
		return core.Metadata{}, false, nil
	}
	m, err := lf.Metadata()
	if err != nil {
		return core.Metadata{}, false, err
	}
	return m, true, nil
}

// Blob returns key's file_content (header-stripped) bytes.
func (fs *FileStore) Blob(ctx context.Context, key core.Key) ([]byte, bool, error) {
	sf, ok := fs.fetchOne(ctx, key)
	if !ok {
		return nil, false, nil
	}
	lf, ok := sf.ContentFile()
	if !ok {
		return nil, false, nil
	}
	b, err := lf.FileContent()
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// ContentMetadata returns key's large-file pointer descriptor. It succeeds
// only when the resolution is an LFS variant; otherwise not-found.
func (fs *FileStore) ContentMetadata(ctx context.Context, key core.Key) (core.LfsPointersEntry, bool, error) {
	sf, ok := fs.fetchOne(ctx, key)
	if !ok {
		return core.LfsPointersEntry{}, false, nil
	}
	lf, ok := sf.ContentFile()
	if !ok {
		return core.LfsPointersEntry{}, false, nil
	}
	ptr, ok := lf.LFSPointer()
	if !ok {
		return core.LfsPointersEntry{}, false, nil
	}
	return ptr, true, nil
}

// Prefetch fetches content for keys in batch, returning the keys that did
// not complete.
func (fs *FileStore) Prefetch(ctx context.Context, keys []core.Key) ([]core.Key, error) {
	result := core.Fetch(ctx, fs.stores, fs.coreOptions(), keys, core.AttrContent)
	return result.MissingKeys(), nil
}

// GetMissing is Prefetch run against a local-only clone (remote and
// memcache tiers suppressed).
func (fs *FileStore) GetMissing(ctx context.Context, keys []core.Key) ([]core.Key, error) {
	return fs.Local().Prefetch(ctx, keys)
}

// Local produces a facade identical to fs except that memcache, remote-API,
// remote-LFS, and legacy-store are cleared.
func (fs *FileStore) Local() *FileStore {
	clone := *fs
	clone.stores.Memcache = nil
	clone.stores.RemoteAPI = nil
	clone.stores.RemoteLFS = nil
	clone.stores.Legacy = nil
	return &clone
}

// Delta is a write-path input: full content for Key, optionally based on a
// prior revision. Only base-less deltas are accepted.
type Delta struct {
	Key     core.Key
	Content []byte
	Base    *core.Key
}

// Add accepts a full delta (no base) and forwards it to WriteBatch.
func (fs *FileStore) Add(delta Delta, meta core.Metadata) error {
	if delta.Base != nil {
		return fmt.Errorf("filestore: add only accepts deltas with no base")
	}
	return fs.WriteBatch([]WriteEntry{{Key: delta.Key, Content: delta.Content, Metadata: meta}})
}

// WriteEntry is one record submitted to WriteBatch.
type WriteEntry struct {
	Key      core.Key
	Content  []byte
	Metadata core.Metadata
}

func (fs *FileStore) routesToLFS(e WriteEntry) bool {
	return fs.lfsThresholdBytes != nil && uint64(len(e.Content)) > *fs.lfsThresholdBytes
}

// WriteBatch rejects pointer-flagged entries and routes each remaining
// entry to lfs-local (when its size exceeds lfs_threshold_bytes) or
// ilog-local otherwise. Entries are validated before anything is written,
// so a rejected batch writes nothing.
func (fs *FileStore) WriteBatch(entries []WriteEntry) error {
	for _, e := range entries {
		if e.Metadata.IsLFS() {
			return core.ErrPointerFlaggedWrite
		}
		if fs.routesToLFS(e) {
			if fs.stores.LfsLocal == nil {
				return core.ErrNoApplicableStore
			}
		} else if fs.stores.IlogLocal == nil {
			return core.ErrNoApplicableStore
		}
	}

	if fs.stores.IlogLocal != nil {
		release := fs.stores.IlogLocal.Lock()
		defer release()
	}

	for _, e := range entries {
		if fs.routesToLFS(e) {
			sha := core.Sha256(sha256.Sum256(e.Content))
			if err := fs.stores.LfsLocal.AddBlob(sha, e.Content); err != nil {
				return fmt.Errorf("filestore: write-batch add blob %s: %w", e.Key, err)
			}
			ptr := core.LfsPointersEntry{Sha256: sha, Size: uint64(len(e.Content))}
			if err := fs.stores.LfsLocal.AddPointer(ptr); err != nil {
				return fmt.Errorf("filestore: write-batch add pointer %s: %w", e.Key, err)
			}
			continue
		}
		if err := fs.stores.IlogLocal.PutEntry(core.LogEntry{Key: e.Key, Content: e.Content, Metadata: e.Metadata}); err != nil {
			return fmt.Errorf("filestore: write-batch put entry %s: %w", e.Key, err)
		}
	}
	return nil
}

// Flush flushes every configured log-backed store in turn. Individual
// failures are suppressed (for control flow) but logged at Debug.
func (fs *FileStore) Flush() error {
	type flusher struct {
		name string
		fn   func() error
	}
	var flushers []flusher
	if fs.stores.IlogLocal != nil {
		flushers = append(flushers, flusher{"ilog-local", fs.stores.IlogLocal.FlushLog})
	}
	if fs.stores.IlogCache != nil {
		flushers = append(flushers, flusher{"ilog-cache", fs.stores.IlogCache.FlushLog})
	}
	if fs.stores.AuxLocal != nil {
		flushers = append(flushers, flusher{"aux-local", fs.stores.AuxLocal.FlushLog})
	}
	if fs.stores.AuxCache != nil {
		flushers = append(flushers, flusher{"aux-cache", fs.stores.AuxCache.FlushLog})
	}
	if fs.stores.LfsLocal != nil {
		flushers = append(flushers, flusher{"lfs-local", fs.stores.LfsLocal.Flush})
	}
	if fs.stores.LfsCache != nil {
		flushers = append(flushers, flusher{"lfs-cache", fs.stores.LfsCache.Flush})
	}
	for _, f := range flushers {
		if err := f.fn(); err != nil {
			fs.log().Debug("flush failed", "store", f.name, "error", err)
		}
	}
	return nil
}

// Close flushes every configured store, standing in for the teardown
// contract a destructor would otherwise provide.
func (fs *FileStore) Close() error {
	return fs.Flush()
}

// Refresh is a no-op, required by the facade contract.
func (fs *FileStore) Refresh() error { return nil }

// Upload is not supported by the core engine.
func (fs *FileStore) Upload(context.Context, []core.Key) error {
	return core.ErrUploadUnsupported
}
