// Package core implements the tiered content-addressed file fetch engine:
// the fetch state machine, the attribute algebra, and the fixed-order
// orchestrator that drives a fetch across the configured store tiers.
package core

import (
	"fmt"

	"github.com/opencontainers/go-digest"
)

// HgId is a Mercurial/Sapling-style content node id.
type HgId [20]byte

func (h HgId) String() string {
	return fmt.Sprintf("%x", [20]byte(h))
}

// Sha256 is a content hash used to address large-file blobs.
type Sha256 [32]byte

func (s Sha256) String() string {
	return fmt.Sprintf("%x", [32]byte(s))
}

// Digest formats the hash as an OCI content digest for interop with the
// remote-API and remote-LFS clients, which speak in digest.Digest strings.
func (s Sha256) Digest() digest.Digest {
	return digest.NewDigestFromBytes(digest.SHA256, s[:])
}

// Key identifies a file blob by path and content node id. Equality and
// hashing are on the pair; it is comparable, so it is usable directly as a
// map key.
type Key struct {
	Path string
	Hgid HgId
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%s", k.Path, k.Hgid)
}

// StoreScope tags which tier a piece of data belongs to, or should be
// written to.
type StoreScope uint8

const (
	// ScopeCache is the broader, shared tier.
	ScopeCache StoreScope = iota
	// ScopeLocal is the narrower, user-owned tier.
	ScopeLocal
)

func (s StoreScope) String() string {
	if s == ScopeLocal {
		return "local"
	}
	return "cache"
}

// ExtStoredPolicy controls whether entries flagged as large-file pointers in
// inline-log stores are followed into large-file resolution.
type ExtStoredPolicy uint8

const (
	// ExtStoredUse follows pointer-flagged entries into large-file resolution.
	ExtStoredUse ExtStoredPolicy = iota
	// ExtStoredIgnore drops pointer-flagged entries silently.
	ExtStoredIgnore
)

// Metadata describes a resolved file's size and flags.
type Metadata struct {
	Size  *uint64
	Flags uint16
}

// flagLFS marks a Metadata record as describing a large-file pointer rather
// than inline content.
const flagLFS uint16 = 1 << 0

// IsLFS reports whether this metadata describes a large-file pointer.
func (m Metadata) IsLFS() bool {
	return m.Flags&flagLFS != 0
}

// StoreKey is the content-addressed form exchanged with stores once a
// large-file pointer is known: a SHA-256 plus the originating Key, when
// known.
type StoreKey struct {
	ContentID Sha256
	Origin    *Key
}

// StoreKeyFromKey builds the hgid-only form of a store key (no pointer
// known yet); its ContentID is zero, so HasPointer reports false.
func StoreKeyFromKey(k Key) StoreKey {
	return StoreKey{Origin: &k}
}

// StoreKeyFromContent builds the content-addressed form of a store key.
func StoreKeyFromContent(sha Sha256, origin *Key) StoreKey {
	return StoreKey{ContentID: sha, Origin: origin}
}

// HasPointer reports whether this key carries a content address (as opposed
// to being hgid-only).
func (sk StoreKey) HasPointer() bool {
	return sk.ContentID != Sha256{}
}

// LogEntry is a raw record read from or written to an inline-log store: a
// key plus its bytes and metadata. Both content entries (ilog-local/cache)
// and aux-data entries (aux-local/cache) use this shape; aux-data entries
// carry a serialized FileAuxData in Content.
type LogEntry struct {
	Key      Key
	Content  []byte
	Metadata Metadata
}
