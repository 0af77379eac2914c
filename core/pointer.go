package core

import (
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
)

// LfsPointersEntry is a parsed large-file pointer: at minimum a SHA-256 and
// a declared size. Copyfrom is carried through so an hg-style copy header
// can be rebuilt when a large-file variant is asked for hg_content.
type LfsPointersEntry struct {
	Sha256   Sha256
	Size     uint64
	Copyfrom *Key
}

// lfsPointerFromMetadata converts a metadata-flagged entry's raw bytes into
// a pointer record. It fails (ok=false) when the bytes aren't a valid
// pointer record, mirroring the conversions that "exist only when the
// source's metadata flags it as a pointer."
func lfsPointerFromMetadata(raw []byte, meta Metadata) (LfsPointersEntry, bool) {
	if !meta.IsLFS() {
		return LfsPointersEntry{}, false
	}
	return parseLfsPointerText(raw)
}

// parseLfsPointerText parses the small line-oriented pointer record format
// ("sha256 <hex>\nsize <n>\n", one key per line) used by the inline-log,
// memcache, and remote-API ingest paths.
func parseLfsPointerText(raw []byte) (LfsPointersEntry, bool) {
	var entry LfsPointersEntry
	var gotSha, gotSize bool
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		switch fields[0] {
		case "sha256":
			decoded, err := hex.DecodeString(fields[1])
			if err != nil || len(decoded) != len(entry.Sha256) {
				return LfsPointersEntry{}, false
			}
			copy(entry.Sha256[:], decoded)
			gotSha = true
		case "size":
			n, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return LfsPointersEntry{}, false
			}
			entry.Size = n
			gotSize = true
		}
	}
	if !gotSha || !gotSize {
		return LfsPointersEntry{}, false
	}
	return entry, true
}

// pointerOrigin is the shared table SHA-256 → scope that the orchestrator
// thread and the remote-LFS transport's worker callbacks both touch. Write
// policy: a Cache observation overwrites any prior entry; a Local
// observation is inserted only if no entry exists yet. This is the only
// fetch-state field reachable from the remote-LFS callback, so it alone
// needs a lock.
type pointerOrigin struct {
	mu sync.RWMutex
	m  map[Sha256]StoreScope
}

func newPointerOrigin() *pointerOrigin {
	return &pointerOrigin{m: make(map[Sha256]StoreScope)}
}

// found records an observation of sha at scope, applying the
// cache-overwrites / local-only-if-absent policy.
func (p *pointerOrigin) found(sha Sha256, scope StoreScope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if scope == ScopeCache {
		p.m[sha] = ScopeCache
		return
	}
	if _, ok := p.m[sha]; !ok {
		p.m[sha] = ScopeLocal
	}
}

// lookup returns the recorded scope for sha, if any.
func (p *pointerOrigin) lookup(sha Sha256) (StoreScope, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.m[sha]
	return s, ok
}

// remove deletes sha's entry, used when a key carrying that pointer
// completes.
func (p *pointerOrigin) remove(sha Sha256) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, sha)
}

// keyOrigin records, per key, the scope where its data was satisfied,
// defaulting to Cache if unknown. It is touched only by the orchestrator
// thread, so it needs no lock.
type keyOrigin struct {
	m map[Key]StoreScope
}

func newKeyOrigin() *keyOrigin {
	return &keyOrigin{m: make(map[Key]StoreScope)}
}

func (k *keyOrigin) set(key Key, scope StoreScope) {
	k.m[key] = scope
}

func (k *keyOrigin) get(key Key) StoreScope {
	if s, ok := k.m[key]; ok {
		return s
	}
	return ScopeCache
}
