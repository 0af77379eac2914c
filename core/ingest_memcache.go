package core

import "fmt"

// fetchMemcache consults the memcache tier for every pending key that has
// no discovered large-file pointer, at ScopeCache (memcache is always a
// cache-scoped tier).
func (fs *FetchState) fetchMemcache(store MemcacheStore) error {
	if store == nil {
		return nil
	}
	keys := fs.pendingNonLFS(AttrContent)
	if len(keys) == 0 {
		return nil
	}
	results, err := store.GetDataIter(keys)
	if err != nil {
		fs.addOtherError(fmt.Errorf("memcache batch: %w", err))
		return nil
	}
	for _, r := range results {
		if r.Err != nil {
			fs.addKeyedError(r.Key, fmt.Errorf("memcache get %s: %w", r.Key, r.Err))
			continue
		}
		if !r.Found {
			continue
		}
		fs.foundMemcache(r.Key, r.Data)
	}
	return nil
}

// foundMemcache applies the ingest rule for a single memcache record: if
// flagged as a pointer, convert and record it; else insert a
// content-bearing LazyFile and enqueue the key for ilog-cache promotion.
func (fs *FetchState) foundMemcache(k Key, data McData) {
	if data.Meta.IsLFS() {
		if ptr, ok := lfsPointerFromMetadata(data.Content, data.Meta); ok {
			fs.foundPointer(k, ptr, ScopeCache)
		}
		return
	}
	fs.foundAttributes(k, storeFileWithContent(NewMemcacheLazyFile(k, data.Content, data.Meta)), ScopeCache)
	fs.foundInMemcache[k] = struct{}{}
}
