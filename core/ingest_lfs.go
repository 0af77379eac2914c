package core

import "fmt"

// fetchLFS consults a large-file store (lfs-local or lfs-cache) for every
// key with a known pointer, at the given scope.
func (fs *FetchState) fetchLFS(store LargeFileStore, scope StoreScope) error {
	if store == nil {
		return nil
	}
	for _, sk := range fs.pendingLFSStoreKeys() {
		entry, ok, err := store.FetchAvailable(sk)
		if err != nil {
			fs.reportStoreKeyErr(sk, fmt.Errorf("lfs fetch %v: %w", sk, err))
			continue
		}
		if !ok {
			continue
		}
		fs.foundLFS(sk, entry, scope)
	}
	return nil
}

// pendingLFSStoreKeys returns the content-addressed store keys for pending
// keys that already carry a discovered pointer.
func (fs *FetchState) pendingLFSStoreKeys() []StoreKey {
	out := make([]StoreKey, 0, len(fs.lfsPointers))
	for k := range fs.pending {
		ptr, ok := fs.lfsPointers[k]
		if !ok {
			continue
		}
		kk := k
		out = append(out, StoreKeyFromContent(ptr.Sha256, &kk))
	}
	return out
}

// foundLFS applies the ingest rule for a large-file store result: a blob
// (PointerAndBlob) merges content; a pointer alone (PointerOnly) just
// records the pointer's origin.
func (fs *FetchState) foundLFS(sk StoreKey, entry LfsStoreEntry, scope StoreScope) {
	if sk.Origin == nil {
		return
	}
	k := *sk.Origin
	if entry.HasBlob {
		fs.foundAttributes(k, storeFileWithContent(NewLFSLazyFile(entry.Pointer, entry.Blob, true)), scope)
		return
	}
	fs.foundPointer(k, entry.Pointer, scope)
}

func (fs *FetchState) reportStoreKeyErr(sk StoreKey, err error) {
	if sk.Origin != nil {
		fs.addKeyedError(*sk.Origin, err)
		return
	}
	fs.addOtherError(err)
}
