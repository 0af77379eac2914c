// Package lfsstore implements a content-addressed (SHA-256) large-file
// blob store with a JSON pointer side-table, sharded by hex prefix and
// written atomically via temp-file rename — the same disk-cache shape the
// inline-log store uses, specialized to content addressing.
package lfsstore

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"

	"github.com/sapling-scm/filestore/core"
)

const shardPrefixLen = 2

// Store is a disk-backed LargeFileStore implementation.
type Store struct {
	blobDir, pointerDir string
	mu                  sync.Mutex
}

// New opens (creating if necessary) a Store rooted at dir.
func New(dir string) (*Store, error) {
	s := &Store{
		blobDir:    filepath.Join(dir, "blobs"),
		pointerDir: filepath.Join(dir, "pointers"),
	}
	for _, d := range []string{s.blobDir, s.pointerDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("lfsstore: create %s: %w", d, err)
		}
	}
	return s, nil
}

func shardedPath(root string, sha core.Sha256) string {
	hexName := hex.EncodeToString(sha[:])
	return filepath.Join(root, hexName[:shardPrefixLen], hexName[shardPrefixLen:])
}

// FetchAvailable returns the pointer and, if resident, the blob for a
// content-addressed key. A pointer-only entry (PointerOnly) has
// HasBlob=false; a key with neither is reported not-found.
func (s *Store) FetchAvailable(key core.StoreKey) (core.LfsStoreEntry, bool, error) {
	ptr, havePointer, err := s.readPointer(key.ContentID)
	if err != nil {
		return core.LfsStoreEntry{}, false, err
	}
	blob, haveBlob, err := s.readBlob(key.ContentID)
	if err != nil {
		return core.LfsStoreEntry{}, false, err
	}
	if !havePointer && !haveBlob {
		return core.LfsStoreEntry{}, false, nil
	}
	if !havePointer {
		ptr = core.LfsPointersEntry{Sha256: key.ContentID, Size: uint64(len(blob))}
	}
	return core.LfsStoreEntry{Pointer: ptr, Blob: blob, HasBlob: haveBlob}, true, nil
}

// AddBlob writes a blob atomically, content-addressed by sha.
func (s *Store) AddBlob(sha core.Sha256, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return atomicWrite(shardedPath(s.blobDir, sha), data)
}

// pointerRecord is the JSON side-table shape — the engine's one need for a
// structured on-disk record, following the same plain-JSON choice the
// original makes for its analogous aux-data records.
type pointerRecord struct {
	Sha256   string  `json:"sha256"`
	Size     uint64  `json:"size"`
	Copyfrom *string `json:"copyfrom,omitempty"`
}

// AddPointer writes a pointer record atomically.
func (s *Store) AddPointer(entry core.LfsPointersEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := pointerRecord{Sha256: entry.Sha256.String(), Size: entry.Size}
	if entry.Copyfrom != nil {
		p := entry.Copyfrom.String()
		rec.Copyfrom = &p
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("lfsstore: encode pointer %s: %w", entry.Sha256, err)
	}
	return atomicWrite(shardedPath(s.pointerDir, entry.Sha256), raw)
}

// Flush is a no-op: every write above is already durable on return.
func (s *Store) Flush() error { return nil }

// Digest formats sha as an OCI content digest, for callers that speak in
// digest.Digest strings; it is the same value as sha.Digest().
func Digest(sha core.Sha256) digest.Digest {
	return sha.Digest()
}

func (s *Store) readBlob(sha core.Sha256) ([]byte, bool, error) {
	raw, err := os.ReadFile(shardedPath(s.blobDir, sha))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("lfsstore: read blob %s: %w", sha, err)
	}
	return raw, true, nil
}

func (s *Store) readPointer(sha core.Sha256) (core.LfsPointersEntry, bool, error) {
	raw, err := os.ReadFile(shardedPath(s.pointerDir, sha))
	if err != nil {
		if os.IsNotExist(err) {
			return core.LfsPointersEntry{}, false, nil
		}
		return core.LfsPointersEntry{}, false, fmt.Errorf("lfsstore: read pointer %s: %w", sha, err)
	}
	var rec pointerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return core.LfsPointersEntry{}, false, fmt.Errorf("lfsstore: decode pointer %s: %w", sha, err)
	}
	var sha256 core.Sha256
	decoded, err := hex.DecodeString(rec.Sha256)
	if err != nil || len(decoded) != len(sha256) {
		return core.LfsPointersEntry{}, false, fmt.Errorf("lfsstore: invalid pointer sha256 for %s", sha)
	}
	copy(sha256[:], decoded)
	entry := core.LfsPointersEntry{Sha256: sha256, Size: rec.Size}
	if rec.Copyfrom != nil {
		// AddPointer writes Copyfrom as Key.String(): "<path>@<hgid hex>".
		at := strings.LastIndex(*rec.Copyfrom, "@")
		hgid, err := hex.DecodeString((*rec.Copyfrom)[at+1:])
		var from core.Key
		if at < 0 || err != nil || len(hgid) != len(from.Hgid) {
			return core.LfsPointersEntry{}, false, fmt.Errorf("lfsstore: invalid pointer copyfrom for %s", sha)
		}
		from.Path = (*rec.Copyfrom)[:at]
		copy(from.Hgid[:], hgid)
		entry.Copyfrom = &from
	}
	return entry, true, nil
}

func atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("lfsstore: mkdir for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("lfsstore: create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("lfsstore: write temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("lfsstore: close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("lfsstore: rename into place for %s: %w", path, err)
	}
	return nil
}
