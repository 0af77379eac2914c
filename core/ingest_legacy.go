package core

import "fmt"

// fetchLegacy consults the legacy fallback store: prefetch, then per-key
// get+get_meta. Both must succeed for a key to be merged in — a get
// without a matching get_meta (or vice versa) is treated as not-found, not
// an error. Records flagged as pointers are skipped: the legacy store has
// already exhausted its remotes at this point.
func (fs *FetchState) fetchLegacy(store LegacyStore) error {
	if store == nil {
		return nil
	}
	storeKeys := fs.pendingStoreKey(AttrContent)
	if len(storeKeys) == 0 {
		return nil
	}
	if err := store.Prefetch(storeKeys); err != nil {
		fs.addOtherError(fmt.Errorf("legacy prefetch: %w", err))
	}

	for _, sk := range storeKeys {
		content, ok, err := store.Get(sk)
		if err != nil {
			fs.reportStoreKeyErr(sk, fmt.Errorf("legacy get %v: %w", sk, err))
			continue
		}
		if !ok {
			continue
		}
		meta, ok, err := store.GetMeta(sk)
		if err != nil {
			fs.reportStoreKeyErr(sk, fmt.Errorf("legacy get meta %v: %w", sk, err))
			continue
		}
		if !ok {
			continue
		}
		if meta.IsLFS() {
			continue
		}
		if sk.Origin == nil {
			continue
		}
		fs.foundAttributes(*sk.Origin, storeFileWithContent(NewLegacyLazyFile(content, meta)), ScopeLocal)
	}
	return nil
}
