package budget

import "sync"

// handle is one bookkeeping entry for an accepted task. It is created by
// the Admission Gate under the critical section and removed by whichever
// of the Worker Runner's completion callback or the Reaper observes Done
// first; both removal paths are safe to call more than once.
type handle struct {
	id     uint64
	cancel func()

	mu   sync.Mutex
	done bool
}

// markDone flips the done flag exactly once and reports whether this call
// was the one that flipped it.
func (h *handle) markDone() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return false
	}
	h.done = true
	return true
}

func (h *handle) isDone() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

// liveSet tracks the bounded collection of live task handles, keyed by id.
// Every exported method is safe for concurrent use; insert is the one
// method that must only be called while the Gate's critical section is
// already held, since it is also how the Gate enforces the limit.
type liveSet struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[uint64]*handle
}

func newLiveSet() *liveSet {
	return &liveSet{entries: make(map[uint64]*handle)}
}

// insert assigns a fresh id and stores h. Caller must hold the Gate's
// critical section.
func (s *liveSet) insert(h *handle) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	h.id = id
	s.entries[id] = h
	return id
}

// remove deletes the entry for id if present. Idempotent.
func (s *liveSet) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// size returns the current live count.
func (s *liveSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// snapshot returns a consistent point-in-time slice of the live handles.
// Callers must not mutate the returned handles' bookkeeping directly.
func (s *liveSet) snapshot() []*handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*handle, 0, len(s.entries))
	for _, h := range s.entries {
		out = append(out, h)
	}
	return out
}

// cancelAll invokes cancel on every live handle without waiting for them
// to finish.
func (s *liveSet) cancelAll() {
	for _, h := range s.snapshot() {
		h.cancel()
	}
}
