package core

import (
	"context"
	"fmt"
)

// fetchRemoteLFS gathers {sha256,size} pairs from the pointers discovered
// so far, invokes the remote large-file transport, routes each returned
// blob to lfsCache or lfsLocal according to the pointer-origin table, and
// then re-runs fetchLFS against the cache tier and then the local tier to
// re-ingest the freshly written blobs as store-backed (rather than
// in-memory) values.
func (fs *FetchState) fetchRemoteLFS(ctx context.Context, transport RemoteLFSStore, lfsCache, lfsLocal LargeFileStore) error {
	if transport == nil {
		return nil
	}

	shaToPointer := make(map[Sha256]LfsPointersEntry, len(fs.lfsPointers))
	for _, ptr := range fs.lfsPointers {
		shaToPointer[ptr.Sha256] = ptr
	}
	if len(shaToPointer) == 0 {
		return nil
	}
	pairs := make([]Sha256SizePair, 0, len(shaToPointer))
	for sha, ptr := range shaToPointer {
		pairs = append(pairs, Sha256SizePair{Sha256: sha, Size: ptr.Size})
	}

	cb := func(sha Sha256, data []byte) error {
		scope, ok := fs.pointerOrigin.lookup(sha)
		if !ok {
			return ErrNoPointerOrigin
		}
		target := lfsLocal
		if scope == ScopeCache {
			target = lfsCache
		}
		if target == nil {
			return fmt.Errorf("core: no lfs store configured for scope %s", scope)
		}
		if err := target.AddBlob(sha, data); err != nil {
			return err
		}
		if ptr, ok := shaToPointer[sha]; ok {
			return target.AddPointer(ptr)
		}
		return nil
	}

	if err := transport.BatchFetch(ctx, pairs, cb); err != nil {
		fs.addOtherError(fmt.Errorf("remote lfs batch: %w", err))
	}

	// Re-ingest regardless of remote errors: a partial batch may still have
	// written some blobs, and a prior call may have already populated the
	// cache/local tiers for keys that still have pointers pending.
	if err := fs.fetchLFS(lfsCache, ScopeCache); err != nil {
		return err
	}
	return fs.fetchLFS(lfsLocal, ScopeLocal)
}
