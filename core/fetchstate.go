package core

import "log/slog"

// FetchState is the per-request working set the orchestrator threads
// through every store invocation, the derivation pass, and the write-back
// pass. It is single-owner: only the orchestrator goroutine touches it,
// except for the pointer-origin table, which is also written by the
// remote-LFS transport's worker callbacks.
type FetchState struct {
	pending      map[Key]struct{}
	requestAttrs FileAttributes

	found       map[Key]StoreFile
	lfsPointers map[Key]LfsPointersEntry

	pointerOrigin *pointerOrigin
	keyOrigin     *keyOrigin

	errs *fetchErrors

	foundInMemcache   map[Key]struct{}
	foundInRemoteAPI  map[Key]struct{}
	computedAuxData   map[Key]StoreScope

	extstoredPolicy ExtStoredPolicy
	computeAuxData  bool

	logger *slog.Logger
}

// NewFetchState builds the initial working set for a fetch over keys,
// requesting attrs.
func NewFetchState(keys []Key, attrs FileAttributes, extstoredPolicy ExtStoredPolicy, computeAuxData bool, logger *slog.Logger) *FetchState {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pending := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		pending[k] = struct{}{}
	}
	return &FetchState{
		pending:          pending,
		requestAttrs:     attrs,
		found:            make(map[Key]StoreFile),
		lfsPointers:      make(map[Key]LfsPointersEntry),
		pointerOrigin:    newPointerOrigin(),
		keyOrigin:        newKeyOrigin(),
		errs:             newFetchErrors(),
		foundInMemcache:  make(map[Key]struct{}),
		foundInRemoteAPI: make(map[Key]struct{}),
		computedAuxData:  make(map[Key]StoreScope),
		extstoredPolicy:  extstoredPolicy,
		computeAuxData:   computeAuxData,
		logger:           logger,
	}
}

// closure applies with_computable when aux derivation is enabled, identity
// otherwise — per the original's pending() branching on compute_aux_data
// before applying the closure.
func (fs *FetchState) closure(a FileAttributes) FileAttributes {
	if fs.computeAuxData {
		return a.WithComputable()
	}
	return a
}

// isPendingFor implements the progress predicate: a key is pending w.r.t.
// fetchable attributes F iff ((request_attrs ∖ C(A)) ∩ C(F)).any(), where A
// is the attributes currently present for the key.
func (fs *FetchState) isPendingFor(k Key, fetchable FileAttributes) bool {
	if _, ok := fs.pending[k]; !ok {
		return false
	}
	present := AttrNone
	if sf, ok := fs.found[k]; ok {
		present = sf.Attrs()
	}
	missing := fs.requestAttrs.Difference(fs.closure(present))
	return missing.Intersect(fs.closure(fetchable)).Any()
}

// pendingAll returns every key still pending for any requested attribute.
func (fs *FetchState) pendingAll() []Key {
	return fs.pendingFor(attrAll)
}

// pendingFor returns pending keys restricted to those a store offering
// fetchable attributes could still advance.
func (fs *FetchState) pendingFor(fetchable FileAttributes) []Key {
	out := make([]Key, 0, len(fs.pending))
	for k := range fs.pending {
		if fs.isPendingFor(k, fetchable) {
			out = append(out, k)
		}
	}
	return out
}

// pendingNonLFS returns pending keys for fetchable attributes, excluding
// keys for which a large-file pointer has already been discovered (they'll
// be resolved through the LFS path instead).
func (fs *FetchState) pendingNonLFS(fetchable FileAttributes) []Key {
	out := make([]Key, 0, len(fs.pending))
	for _, k := range fs.pendingFor(fetchable) {
		if _, hasPointer := fs.lfsPointers[k]; !hasPointer {
			out = append(out, k)
		}
	}
	return out
}

// pendingStoreKey returns pending keys for fetchable attributes in
// content-addressed form when a pointer is known, else by hgid.
func (fs *FetchState) pendingStoreKey(fetchable FileAttributes) []StoreKey {
	keys := fs.pendingFor(fetchable)
	out := make([]StoreKey, 0, len(keys))
	for _, k := range keys {
		kk := k
		if ptr, ok := fs.lfsPointers[k]; ok {
			out = append(out, StoreKeyFromContent(ptr.Sha256, &kk))
		} else {
			out = append(out, StoreKeyFromKey(kk))
		}
	}
	return out
}

// foundAttributes merges a newly discovered StoreFile for k, recording its
// origin and marking k complete once all requested attributes are present.
// New fields win over old: sf.Merge(existing), not the reverse — this lets
// a later mmap-backed value replace an in-memory one.
func (fs *FetchState) foundAttributes(k Key, sf StoreFile, origin StoreScope) {
	fs.keyOrigin.set(k, origin)
	merged := sf
	if existing, ok := fs.found[k]; ok {
		merged = sf.Merge(existing)
	}
	fs.found[k] = merged
	if merged.Attrs().Has(fs.requestAttrs) {
		fs.markComplete(k)
	}
}

// markComplete removes k from the pending set, and, if it carried a
// large-file pointer, removes the pointer and its pointer-origin entry too.
func (fs *FetchState) markComplete(k Key) {
	delete(fs.pending, k)
	if ptr, ok := fs.lfsPointers[k]; ok {
		delete(fs.lfsPointers, k)
		fs.pointerOrigin.remove(ptr.Sha256)
	}
}

// foundPointer records a newly discovered large-file pointer for k at the
// given scope.
func (fs *FetchState) foundPointer(k Key, entry LfsPointersEntry, scope StoreScope) {
	fs.lfsPointers[k] = entry
	fs.pointerOrigin.found(entry.Sha256, scope)
}

func (fs *FetchState) addKeyedError(k Key, err error) {
	fs.errs.addKeyed(k, err)
}

func (fs *FetchState) addOtherError(err error) {
	fs.errs.addOther(err)
}

func (fs *FetchState) log() *slog.Logger {
	return fs.logger
}
