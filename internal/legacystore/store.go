// Package legacystore implements the fallback of last resort: a simple
// content-by-hash disk store with no sharding, standing in for "a
// pre-existing tiered store" that predates the rest of the stack.
package legacystore

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sapling-scm/filestore/core"
)

// Store is a disk-backed LegacyStore implementation.
type Store struct {
	dir string
}

// New opens (creating if necessary) a Store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("legacystore: create root %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func identity(sk core.StoreKey) string {
	if sk.HasPointer() {
		return "content-" + sk.ContentID.String()
	}
	if sk.Origin != nil {
		return "key-" + sk.Origin.Path + "-" + sk.Origin.Hgid.String()
	}
	return "unknown"
}

func (s *Store) contentPath(sk core.StoreKey) string {
	sum := sha256.Sum256([]byte(identity(sk)))
	return filepath.Join(s.dir, fmt.Sprintf("%x", sum))
}

func (s *Store) metaPath(sk core.StoreKey) string {
	return s.contentPath(sk) + ".meta"
}

// Get returns the raw content for sk, if present.
func (s *Store) Get(sk core.StoreKey) ([]byte, bool, error) {
	raw, err := os.ReadFile(s.contentPath(sk))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("legacystore: read content: %w", err)
	}
	return raw, true, nil
}

// GetMeta returns the metadata for sk, if present.
func (s *Store) GetMeta(sk core.StoreKey) (core.Metadata, bool, error) {
	raw, err := os.ReadFile(s.metaPath(sk))
	if err != nil {
		if os.IsNotExist(err) {
			return core.Metadata{}, false, nil
		}
		return core.Metadata{}, false, fmt.Errorf("legacystore: read meta: %w", err)
	}
	if len(raw) < 2 {
		return core.Metadata{}, false, fmt.Errorf("legacystore: truncated meta record")
	}
	flags := binary.LittleEndian.Uint16(raw[:2])
	return core.Metadata{Flags: flags}, true, nil
}

// Put writes content and metadata flags for sk, used by tests and by any
// component seeding the legacy tier. Metadata.Size is not stored, so
// GetMeta always returns a nil Size.
func (s *Store) Put(sk core.StoreKey, content []byte, meta core.Metadata) error {
	if err := os.WriteFile(s.contentPath(sk), content, 0o644); err != nil {
		return fmt.Errorf("legacystore: write content: %w", err)
	}
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], meta.Flags)
	if err := os.WriteFile(s.metaPath(sk), buf[:], 0o644); err != nil {
		return fmt.Errorf("legacystore: write meta: %w", err)
	}
	return nil
}

// Prefetch is a no-op: this fallback store has no network tier of its own
// to warm from; everything it knows about is already on local disk.
func (s *Store) Prefetch([]core.StoreKey) error { return nil }
