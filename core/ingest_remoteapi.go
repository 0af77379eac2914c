package core

import (
	"context"
	"fmt"
)

// fetchRemoteAPI consults the remote content API for every pending key that
// has no discovered large-file pointer, at ScopeCache (remote content is
// always a cache-scoped tier).
func (fs *FetchState) fetchRemoteAPI(ctx context.Context, store RemoteAPIStore) error {
	if store == nil {
		return nil
	}
	keys := fs.pendingNonLFS(AttrContent)
	if len(keys) == 0 {
		return nil
	}
	entries, err := store.FilesBlocking(ctx, keys)
	if err != nil {
		fs.addOtherError(fmt.Errorf("remote api batch: %w", err))
		return nil
	}
	for _, e := range entries {
		fs.foundRemoteAPI(e)
	}
	return nil
}

// foundRemoteAPI applies the ingest rule for a single remote-API record: if
// flagged as a pointer, convert and record it; else insert a
// content-bearing LazyFile and enqueue the key for cache promotion.
func (fs *FetchState) foundRemoteAPI(e FileEntry) {
	if e.Meta.IsLFS() {
		if ptr, ok := lfsPointerFromMetadata(e.Content, e.Meta); ok {
			fs.foundPointer(e.Key, ptr, ScopeCache)
		}
		return
	}
	fs.foundAttributes(e.Key, storeFileWithContent(NewRemoteAPILazyFile(e.Key, e.Content, e.Meta)), ScopeCache)
	fs.foundInRemoteAPI[e.Key] = struct{}{}
}
