package index

import "sync/atomic"

// Holder owns the process-wide index snapshot. Reads are lock-free; a reload
// builds a complete replacement index and swaps it in atomically, so
// in-flight queries keep reading the snapshot they started with and no
// reader ever observes a half-built index.
type Holder struct {
	cur atomic.Value // holds holderEntry
}

// atomic.Value needs a consistent concrete type across stores.
type holderEntry struct {
	searcher Searcher
}

// NewHolder creates a holder seeded with the initial index.
func NewHolder(s Searcher) *Holder {
	h := &Holder{}
	h.cur.Store(holderEntry{searcher: s})
	return h
}

// Load returns the current index snapshot.
func (h *Holder) Load() Searcher {
	return h.cur.Load().(holderEntry).searcher
}

// Swap replaces the current snapshot with a fully built successor.
func (h *Holder) Swap(s Searcher) {
	h.cur.Store(holderEntry{searcher: s})
}
