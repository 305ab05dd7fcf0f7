package realtime

import (
	"log"
	"sync"

	"github.com/ValentinKt/clean-up-crew/internal/types"
)

// Reconciler is the single authoritative holder of the previous and current
// snapshot for one event at a time. Snapshots are replaced wholesale, never
// field-patched, and every application runs the differ against the snapshot
// it displaces.
//
// Concurrent fetches resolve by issuance order, not completion order: each
// fetch reserves a sequence number with BeginFetch, and a result whose
// sequence is older than one already applied is discarded. This prevents a
// slow stale read from clobbering a fresher one.
type Reconciler struct {
	log      *log.Logger
	viewerId string

	mu       sync.Mutex
	previous *types.Event
	current  *types.Event
	issued   uint64
	applied  uint64
}

func NewReconciler(logger *log.Logger, viewerId string) *Reconciler {
	return &Reconciler{
		log:      logger,
		viewerId: viewerId,
	}
}

// BeginFetch reserves the next fetch sequence number. Call it before
// issuing the fetch whose result will be handed to ApplySnapshot.
func (r *Reconciler) BeginFetch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued++
	return r.issued
}

// ApplySnapshot installs snap as the current snapshot and returns the
// semantic changes relative to the snapshot it replaced.
//
// No changes are reported when there is no prior snapshot, or when the
// prior snapshot belongs to a different event: both cases are a fresh load,
// not a diff. A snapshot from a fetch issued before an already-applied one
// is discarded entirely.
func (r *Reconciler) ApplySnapshot(seq uint64, snap *types.Event) []Change {
	if snap == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if seq <= r.applied {
		r.log.Printf("discarding stale snapshot for event %q (fetch %d, newest applied %d)", snap.Id, seq, r.applied)
		return nil
	}
	r.applied = seq

	if r.current == nil || r.current.Id != snap.Id {
		r.previous = snap
		r.current = snap
		return nil
	}

	changes := Diff(r.current, snap, r.viewerId)
	r.previous = r.current
	r.current = snap
	return changes
}

// Current returns the authoritative snapshot, or nil before the first fetch.
func (r *Reconciler) Current() *types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Reset drops both slots, e.g. when the watched event changes. The next
// ApplySnapshot is treated as a first observation.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.previous = nil
	r.current = nil
}
