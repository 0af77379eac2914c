package core

import "fmt"

// fetchIndexedLog ingests content entries from an inline-log store
// (ilog-local or ilog-cache) at the given scope. Entries flagged as
// large-file pointers are parsed (policy Use) or dropped (policy Ignore);
// everything else is ingested as content.
func (fs *FetchState) fetchIndexedLog(store InlineLogStore, scope StoreScope) error {
	if store == nil {
		return nil
	}
	release := store.RLock()
	defer release()

	for _, k := range fs.pendingNonLFS(AttrContent) {
		entry, ok, err := store.GetRawEntry(k)
		if err != nil {
			fs.addKeyedError(k, fmt.Errorf("indexed log get %s: %w", k, err))
			continue
		}
		if !ok {
			continue
		}
		fs.foundIndexedLog(k, entry, scope)
	}
	return nil
}

// foundIndexedLog applies the ingest rule for a single entry already read
// from an inline-log store.
func (fs *FetchState) foundIndexedLog(k Key, entry LogEntry, scope StoreScope) {
	if entry.Metadata.IsLFS() {
		switch fs.extstoredPolicy {
		case ExtStoredUse:
			if ptr, ok := lfsPointerFromMetadata(entry.Content, entry.Metadata); ok {
				fs.foundPointer(k, ptr, scope)
			}
		case ExtStoredIgnore:
			// Drop silently.
		}
		return
	}
	fs.foundAttributes(k, storeFileWithContent(NewIlogLazyFile(entry)), scope)
}

// fetchAuxIndexedLog ingests aux-data entries from an aux log (aux-local or
// aux-cache) at the given scope.
func (fs *FetchState) fetchAuxIndexedLog(store AuxLogStore, scope StoreScope) error {
	if store == nil {
		return nil
	}
	release := store.RLock()
	defer release()

	for _, k := range fs.pendingFor(AttrAuxData) {
		entry, ok, err := store.GetRawEntry(k)
		if err != nil {
			fs.addKeyedError(k, fmt.Errorf("aux log get %s: %w", k, err))
			continue
		}
		if !ok {
			continue
		}
		fs.foundAuxIndexedLog(k, entry, scope)
	}
	return nil
}

// foundAuxIndexedLog deserializes an aux-data record and merges it as an
// aux_data-only StoreFile.
func (fs *FetchState) foundAuxIndexedLog(k Key, entry LogEntry, scope StoreScope) {
	aux, err := decodeAuxData(entry.Content)
	if err != nil {
		fs.addKeyedError(k, fmt.Errorf("aux log decode %s: %w", k, err))
		return
	}
	fs.foundAttributes(k, storeFileWithAuxData(aux), scope)
}
