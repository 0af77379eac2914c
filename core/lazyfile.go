package core

import "fmt"

// copyHeaderMarker delimits an hg-style copy-from header: a leading and
// trailing "\x01\n" wrapping a small metadata block. file_content strips
// this header where present; hg_content preserves (or, for large-file
// variants, rebuilds) it.
const copyHeaderMarker = "\x01\n"

func stripCopyHeader(raw []byte) []byte {
	if len(raw) < 2*len(copyHeaderMarker) || string(raw[:len(copyHeaderMarker)]) != copyHeaderMarker {
		return raw
	}
	rest := raw[len(copyHeaderMarker):]
	for i := 0; i+len(copyHeaderMarker) <= len(rest); i++ {
		if string(rest[i:i+len(copyHeaderMarker)]) == copyHeaderMarker {
			return rest[i+len(copyHeaderMarker):]
		}
	}
	return raw
}

func buildCopyHeader(from *Key) []byte {
	if from == nil {
		return nil
	}
	body := fmt.Sprintf("copy: %s\ncopyrev: %s\n", from.Path, from.Hgid)
	return []byte(copyHeaderMarker + body + copyHeaderMarker)
}

// lazyFileImpl is the tagged union's internal interface; dispatching on the
// concrete type per accessor preserves the invariant that only the
// originating variant's codec ever runs.
type lazyFileImpl interface {
	isLazyFile()
	HgID() HgId
	FileContent() ([]byte, error)
	HgContent() ([]byte, error)
	Metadata() (Metadata, error)
	AuxData() (FileAuxData, error)
	// IndexedLogCacheEntry projects to a writable inline-log entry, with
	// the key re-stamped to requested. Large-file and legacy variants
	// return ok=false: they cache elsewhere, or not at all.
	IndexedLogCacheEntry(requested Key) (LogEntry, bool)
}

// LazyFile is a tagged value carrying an as-yet-unresolved handle to file
// bytes originating from one of five sources. Decoding is deferred until a
// consumer calls one of the accessor methods.
type LazyFile struct {
	impl lazyFileImpl
}

func (lf LazyFile) HgID() HgId                   { return lf.impl.HgID() }
func (lf LazyFile) FileContent() ([]byte, error) { return lf.impl.FileContent() }
func (lf LazyFile) HgContent() ([]byte, error)    { return lf.impl.HgContent() }
func (lf LazyFile) Metadata() (Metadata, error)   { return lf.impl.Metadata() }
func (lf LazyFile) AuxData() (FileAuxData, error) { return lf.impl.AuxData() }
func (lf LazyFile) IndexedLogCacheEntry(requested Key) (LogEntry, bool) {
	return lf.impl.IndexedLogCacheEntry(requested)
}

// LFSPointer exposes the large-file pointer backing this file, if this
// resolution came from the LFS tier.
func (lf LazyFile) LFSPointer() (LfsPointersEntry, bool) {
	if lfs, ok := lf.impl.(*lfsLazyFile); ok {
		return lfs.pointer, true
	}
	return LfsPointersEntry{}, false
}

// ComputeAuxData derives aux-data for this file without re-reading content
// when possible: for LFS variants, the pointer's SHA-256 is already known.
func (lf LazyFile) ComputeAuxData() (FileAuxData, error) {
	if lfs, ok := lf.impl.(*lfsLazyFile); ok {
		return FileAuxData{ContentSha256: lfs.pointer.Sha256}, nil
	}
	content, err := lf.FileContent()
	if err != nil {
		return FileAuxData{}, err
	}
	return computeAuxData(content), nil
}

// --- inline-log variant ---

type ilogLazyFile struct {
	entry LogEntry
}

// NewIlogLazyFile wraps a raw inline-log content entry.
func NewIlogLazyFile(entry LogEntry) LazyFile {
	return LazyFile{impl: &ilogLazyFile{entry: entry}}
}

func (f *ilogLazyFile) isLazyFile()          {}
func (f *ilogLazyFile) HgID() HgId           { return f.entry.Key.Hgid }
func (f *ilogLazyFile) FileContent() ([]byte, error) {
	return stripCopyHeader(f.entry.Content), nil
}
func (f *ilogLazyFile) HgContent() ([]byte, error) { return f.entry.Content, nil }
func (f *ilogLazyFile) Metadata() (Metadata, error) { return f.entry.Metadata, nil }
func (f *ilogLazyFile) AuxData() (FileAuxData, error) {
	return computeAuxData(stripCopyHeader(f.entry.Content)), nil
}
func (f *ilogLazyFile) IndexedLogCacheEntry(requested Key) (LogEntry, bool) {
	return LogEntry{Key: requested, Content: f.entry.Content, Metadata: f.entry.Metadata}, true
}

// --- large-file (LFS) variant ---

type lfsLazyFile struct {
	pointer LfsPointersEntry
	blob    []byte
	hasBlob bool
}

// NewLFSLazyFile wraps a large-file pointer, optionally accompanied by its
// blob bytes (PointerAndBlob vs PointerOnly ingest).
func NewLFSLazyFile(pointer LfsPointersEntry, blob []byte, hasBlob bool) LazyFile {
	return LazyFile{impl: &lfsLazyFile{pointer: pointer, blob: blob, hasBlob: hasBlob}}
}

func (f *lfsLazyFile) isLazyFile() {}
func (f *lfsLazyFile) HgID() HgId  { return HgId{} }
func (f *lfsLazyFile) FileContent() ([]byte, error) {
	if !f.hasBlob {
		return nil, fmt.Errorf("core: lfs blob for %s not resolved", f.pointer.Sha256)
	}
	return f.blob, nil
}
func (f *lfsLazyFile) HgContent() ([]byte, error) {
	content, err := f.FileContent()
	if err != nil {
		return nil, err
	}
	if header := buildCopyHeader(f.pointer.Copyfrom); header != nil {
		return append(append([]byte{}, header...), content...), nil
	}
	return content, nil
}
func (f *lfsLazyFile) Metadata() (Metadata, error) {
	size := f.pointer.Size
	return Metadata{Size: &size}, nil
}
func (f *lfsLazyFile) AuxData() (FileAuxData, error) {
	return FileAuxData{ContentSha256: f.pointer.Sha256}, nil
}
func (f *lfsLazyFile) IndexedLogCacheEntry(Key) (LogEntry, bool) {
	return LogEntry{}, false
}

// --- memcache variant ---

type memcacheLazyFile struct {
	key     Key
	content []byte
	meta    Metadata
}

// NewMemcacheLazyFile wraps a memcache payload; the key is authoritative.
func NewMemcacheLazyFile(key Key, content []byte, meta Metadata) LazyFile {
	return LazyFile{impl: &memcacheLazyFile{key: key, content: content, meta: meta}}
}

func (f *memcacheLazyFile) isLazyFile()             {}
func (f *memcacheLazyFile) HgID() HgId              { return f.key.Hgid }
func (f *memcacheLazyFile) FileContent() ([]byte, error) {
	return stripCopyHeader(f.content), nil
}
func (f *memcacheLazyFile) HgContent() ([]byte, error)  { return f.content, nil }
func (f *memcacheLazyFile) Metadata() (Metadata, error) { return f.meta, nil }
func (f *memcacheLazyFile) AuxData() (FileAuxData, error) {
	return computeAuxData(stripCopyHeader(f.content)), nil
}
func (f *memcacheLazyFile) IndexedLogCacheEntry(requested Key) (LogEntry, bool) {
	return LogEntry{Key: requested, Content: f.content, Metadata: f.meta}, true
}

// --- remote content API variant ---

type remoteAPILazyFile struct {
	key     Key
	content []byte
	meta    Metadata
}

// NewRemoteAPILazyFile wraps a remote content API payload.
func NewRemoteAPILazyFile(key Key, content []byte, meta Metadata) LazyFile {
	return LazyFile{impl: &remoteAPILazyFile{key: key, content: content, meta: meta}}
}

func (f *remoteAPILazyFile) isLazyFile()             {}
func (f *remoteAPILazyFile) HgID() HgId              { return f.key.Hgid }
func (f *remoteAPILazyFile) FileContent() ([]byte, error) {
	return stripCopyHeader(f.content), nil
}
func (f *remoteAPILazyFile) HgContent() ([]byte, error)  { return f.content, nil }
func (f *remoteAPILazyFile) Metadata() (Metadata, error) { return f.meta, nil }
func (f *remoteAPILazyFile) AuxData() (FileAuxData, error) {
	return computeAuxData(stripCopyHeader(f.content)), nil
}
func (f *remoteAPILazyFile) IndexedLogCacheEntry(requested Key) (LogEntry, bool) {
	return LogEntry{Key: requested, Content: f.content, Metadata: f.meta}, true
}

// --- legacy-store variant ---

type legacyLazyFile struct {
	content []byte
	meta    Metadata
}

// NewLegacyLazyFile wraps a legacy-store blob+metadata pair.
func NewLegacyLazyFile(content []byte, meta Metadata) LazyFile {
	return LazyFile{impl: &legacyLazyFile{content: content, meta: meta}}
}

func (f *legacyLazyFile) isLazyFile()             {}
func (f *legacyLazyFile) HgID() HgId              { return HgId{} }
func (f *legacyLazyFile) FileContent() ([]byte, error) {
	return stripCopyHeader(f.content), nil
}
func (f *legacyLazyFile) HgContent() ([]byte, error)  { return f.content, nil }
func (f *legacyLazyFile) Metadata() (Metadata, error) { return f.meta, nil }
func (f *legacyLazyFile) AuxData() (FileAuxData, error) {
	return computeAuxData(stripCopyHeader(f.content)), nil
}
func (f *legacyLazyFile) IndexedLogCacheEntry(Key) (LogEntry, bool) {
	return LogEntry{}, false
}
