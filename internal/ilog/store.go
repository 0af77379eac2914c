// Package ilog implements a disk-backed, sharded key→blob store: one file
// per key, replaced atomically on each write. It backs both the inline-log tiers (ilog-local/ilog-cache, storing
// file content entries) and the aux-data tiers (aux-local/aux-cache,
// storing serialized aux-data records) — the wire shape is identical,
// only the payload's meaning differs between the two uses.
package ilog

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/sapling-scm/filestore/core"
)

// shardPrefixLen matches the teacher's disk cache sharding depth: two hex
// characters per directory level keeps any one directory's fan-out modest
// without a deep tree for a store of this size.
const shardPrefixLen = 2

// compressThreshold is the payload size above which entries are stored
// zstd-compressed; small entries aren't worth the encoder overhead.
const compressThreshold = 4 << 10

const (
	flagCompressed byte = 1 << 0
)

// Store is a disk-backed InlineLogStore/AuxLogStore implementation.
type Store struct {
	dir string
	mu  sync.RWMutex

	encoders sync.Pool
	decoders sync.Pool
}

// New opens (creating if necessary) a Store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ilog: create root %s: %w", dir, err)
	}
	s := &Store{dir: dir}
	s.encoders.New = func() any {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			panic(err) // zstd.NewWriter with nil writer never fails on valid options
		}
		return enc
	}
	s.decoders.New = func() any {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			panic(err)
		}
		return dec
	}
	return s, nil
}

func (s *Store) path(k core.Key) string {
	sum := sha256.Sum256([]byte(k.Path + "\x00" + string(k.Hgid[:])))
	hexName := fmt.Sprintf("%x", sum)
	return filepath.Join(s.dir, hexName[:shardPrefixLen], hexName[shardPrefixLen:])
}

// RLock acquires the store's read lock for the duration of one store
// invocation (ingest).
func (s *Store) RLock() func() {
	s.mu.RLock()
	return s.mu.RUnlock
}

// Lock acquires the store's write lock, held across a whole write-back
// promotion pass or a whole batch write.
func (s *Store) Lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// GetRawEntry reads the entry for k, if present.
func (s *Store) GetRawEntry(k core.Key) (core.LogEntry, bool, error) {
	raw, err := os.ReadFile(s.path(k))
	if err != nil {
		if os.IsNotExist(err) {
			return core.LogEntry{}, false, nil
		}
		return core.LogEntry{}, false, fmt.Errorf("ilog: read %s: %w", k, err)
	}
	entry, err := s.decode(k, raw)
	if err != nil {
		return core.LogEntry{}, false, err
	}
	return entry, true, nil
}

// PutEntry writes the entry for its key, creating shard directories as
// needed and writing atomically via a temp-file rename, matching the
// teacher's disk-cache write path.
func (s *Store) PutEntry(entry core.LogEntry) error {
	path := s.path(entry.Key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ilog: mkdir for %s: %w", entry.Key, err)
	}
	raw, err := s.encode(entry)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("ilog: create temp for %s: %w", entry.Key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("ilog: write temp for %s: %w", entry.Key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ilog: close temp for %s: %w", entry.Key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ilog: rename into place for %s: %w", entry.Key, err)
	}
	return nil
}

// FlushLog is a no-op: every PutEntry is already durable on return.
func (s *Store) FlushLog() error { return nil }

func (s *Store) encode(entry core.LogEntry) ([]byte, error) {
	payload := entry.Content
	compressed := false
	if len(payload) > compressThreshold {
		enc := s.encoders.Get().(*zstd.Encoder)
		defer s.encoders.Put(enc)
		payload = enc.EncodeAll(entry.Content, nil)
		compressed = true
	}

	var buf bytes.Buffer
	var flags byte
	if compressed {
		flags |= flagCompressed
	}
	buf.WriteByte(flags)
	var metaFlags [2]byte
	binary.LittleEndian.PutUint16(metaFlags[:], entry.Metadata.Flags)
	buf.Write(metaFlags[:])
	if entry.Metadata.Size != nil {
		buf.WriteByte(1)
		var sz [8]byte
		binary.LittleEndian.PutUint64(sz[:], *entry.Metadata.Size)
		buf.Write(sz[:])
	} else {
		buf.WriteByte(0)
	}
	buf.Write(payload)
	return buf.Bytes(), nil
}

func (s *Store) decode(k core.Key, raw []byte) (core.LogEntry, error) {
	if len(raw) < 1+2+1 {
		return core.LogEntry{}, fmt.Errorf("ilog: truncated entry for %s", k)
	}
	flags := raw[0]
	metaFlags := binary.LittleEndian.Uint16(raw[1:3])
	hasSize := raw[3] == 1
	off := 4
	var size *uint64
	if hasSize {
		if len(raw) < off+8 {
			return core.LogEntry{}, fmt.Errorf("ilog: truncated size for %s", k)
		}
		v := binary.LittleEndian.Uint64(raw[off : off+8])
		size = &v
		off += 8
	}
	payload := raw[off:]
	if flags&flagCompressed != 0 {
		dec := s.decoders.Get().(*zstd.Decoder)
		defer s.decoders.Put(dec)
		decoded, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return core.LogEntry{}, fmt.Errorf("ilog: decompress %s: %w", k, err)
		}
		payload = decoded
	}
	return core.LogEntry{
		Key:      k,
		Content:  payload,
		Metadata: core.Metadata{Size: size, Flags: metaFlags},
	}, nil
}
