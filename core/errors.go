package core

import "errors"

// ErrNoPointerOrigin is returned by the remote-LFS callback when it
// receives a SHA-256 with no recorded pointer-origin entry — a fatal
// protocol violation, since every pointer offered to the transport must
// have been recorded first.
var ErrNoPointerOrigin = errors.New("core: remote lfs blob has no pointer origin")

// ErrPointerFlaggedWrite is returned by the batch-write path when an entry
// is flagged as a large-file pointer; writing pointer records directly via
// the batch-write path is out of scope for this engine.
var ErrPointerFlaggedWrite = errors.New("core: write-batch rejects pointer-flagged entries")

// ErrNoApplicableStore is returned by the batch-write path when no store is
// configured that could accept the entry.
var ErrNoApplicableStore = errors.New("core: write-batch has no applicable store configured")

// ErrUploadUnsupported is returned by Upload: the interface exists but is
// unimplemented in the core.
var ErrUploadUnsupported = errors.New("core: upload is not supported")

// fetchErrors accumulates per-key and unattributed errors over the course
// of a fetch.
type fetchErrors struct {
	keyed map[Key][]error
	other []error
}

func newFetchErrors() *fetchErrors {
	return &fetchErrors{keyed: make(map[Key][]error)}
}

func (e *fetchErrors) addKeyed(k Key, err error) {
	e.keyed[k] = append(e.keyed[k], err)
}

func (e *fetchErrors) addOther(err error) {
	e.other = append(e.other, err)
}

// FileStoreFetch is the result record returned by a fetch: keys that
// completed, keys that didn't (with their accumulated error list, possibly
// empty), and errors not attributable to a single key.
type FileStoreFetch struct {
	Complete    map[Key]StoreFile
	Incomplete  map[Key][]error
	OtherErrors []error
}

// IsComplete reports whether every requested key resolved fully.
func (r FileStoreFetch) IsComplete() bool {
	return len(r.Incomplete) == 0
}

// MissingKeys returns the keys that did not complete, in no particular order.
func (r FileStoreFetch) MissingKeys() []Key {
	keys := make([]Key, 0, len(r.Incomplete))
	for k := range r.Incomplete {
		keys = append(keys, k)
	}
	return keys
}
