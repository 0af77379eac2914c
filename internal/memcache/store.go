// Package memcache implements the in-process stand-in for the
// process-external memcache tier: a bounded LRU keyed by Key. The pack
// shows no third-party LRU import anywhere, so this hand-rolls one with
// container/list rather than reaching past the corpus for a dependency.
package memcache

import (
	"container/list"
	"sync"

	"github.com/sapling-scm/filestore/core"
)

// defaultCapacity bounds the number of entries retained when a caller
// doesn't specify one.
const defaultCapacity = 10000

type entry struct {
	key  core.Key
	data core.McData
}

// Store is a bounded in-process LRU implementing core.MemcacheStore.
type Store struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[core.Key]*list.Element
}

// New returns a Store bounded to capacity entries. A non-positive capacity
// uses defaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Store{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[core.Key]*list.Element),
	}
}

// GetDataIter looks up each key, moving hits to the front of the
// recency list.
func (s *Store) GetDataIter(keys []core.Key) ([]core.McDataResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.McDataResult, 0, len(keys))
	for _, k := range keys {
		el, ok := s.items[k]
		if !ok {
			out = append(out, core.McDataResult{Key: k, Found: false})
			continue
		}
		s.ll.MoveToFront(el)
		out = append(out, core.McDataResult{Key: k, Data: el.Value.(*entry).data, Found: true})
	}
	return out, nil
}

// AddMcData inserts or refreshes a record, evicting the least-recently-used
// entry if the store is over capacity.
func (s *Store) AddMcData(data core.McData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[data.Key]; ok {
		el.Value.(*entry).data = data
		s.ll.MoveToFront(el)
		return nil
	}

	el := s.ll.PushFront(&entry{key: data.Key, data: data})
	s.items[data.Key] = el

	for s.ll.Len() > s.capacity {
		oldest := s.ll.Back()
		if oldest == nil {
			break
		}
		s.ll.Remove(oldest)
		delete(s.items, oldest.Value.(*entry).key)
	}
	return nil
}

// Len returns the current number of resident entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}
