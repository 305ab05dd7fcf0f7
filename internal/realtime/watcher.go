package realtime

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ValentinKt/clean-up-crew/internal/notify"
	"github.com/ValentinKt/clean-up-crew/internal/types"
)

// Watcher keeps a client's view of one event consistent under push-delivered
// updates. It owns at most one live backend subscription at a time; every
// change notification triggers a full re-fetch of the canonical snapshot,
// which the reconciler turns into semantic changes, which in turn become
// user-facing notifications.
//
// Per-notification re-fetches are coalesced: a notification arriving while a
// re-fetch is running schedules exactly one more, so a burst of row changes
// costs at most two round trips.
type Watcher struct {
	log      *log.Logger
	backend  Backend
	notifier *notify.Center
	viewer   types.User
	rec      *Reconciler

	mu         sync.Mutex
	eventId    string
	sub        Subscription
	subscribed bool
	kick       chan struct{}
	done       chan struct{}
	closed     bool
}

func NewWatcher(logger *log.Logger, backend Backend, notifier *notify.Center, viewer types.User) *Watcher {
	w := &Watcher{
		log:      logger,
		backend:  backend,
		notifier: notifier,
		viewer:   viewer,
		rec:      NewReconciler(logger, viewer.Id),
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	go w.run()
	return w
}

// Watch points the watcher at eventId, tearing down any prior subscription
// before opening the new one so no handle leaks and no two subscriptions
// overlap. A transport failure while subscribing is non-fatal: it is logged,
// IsSubscribed reports false, and the last known snapshot stays visible.
func (w *Watcher) Watch(ctx context.Context, eventId string) error {
	if eventId == "" {
		return fmt.Errorf("event id cannot be empty")
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return fmt.Errorf("watcher is closed")
	}

	if w.sub != nil {
		if err := w.sub.Unsubscribe(); err != nil {
			w.log.Printf("unsubscribe event %q: %v", w.eventId, err)
		}
		w.sub = nil
		w.subscribed = false
	}
	if w.eventId != eventId {
		// navigating away discards the old event's snapshot; the next
		// applied snapshot is a first observation, not a diff
		w.rec.Reset()
	}
	w.eventId = eventId
	w.mu.Unlock()

	sub, err := w.backend.SubscribeEventChanges(ctx, eventId, w.scheduleRefresh)
	if err != nil {
		w.log.Printf("subscribe event %q: %v", eventId, err)
	} else {
		w.mu.Lock()
		// the watch target may have moved while we were subscribing
		if w.eventId == eventId && !w.closed {
			w.sub = sub
			w.subscribed = true
			w.mu.Unlock()
		} else {
			w.mu.Unlock()
			if err := sub.Unsubscribe(); err != nil {
				w.log.Printf("unsubscribe event %q: %v", eventId, err)
			}
		}
	}

	// initial load, regardless of subscription state
	w.scheduleRefresh()
	return nil
}

// Snapshot returns the current authoritative snapshot, or nil before the
// first successful fetch.
func (w *Watcher) Snapshot() *types.Event {
	return w.rec.Current()
}

func (w *Watcher) IsSubscribed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.subscribed
}

// Close tears down the subscription and stops the refresh loop. It is
// idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	sub := w.sub
	w.sub = nil
	w.subscribed = false
	w.mu.Unlock()

	close(w.done)

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			return fmt.Errorf("unsubscribe: %w", err)
		}
	}
	return nil
}

// scheduleRefresh carries no event id on purpose: the refresh loop resolves
// the currently watched event when it runs, so a kick queued before a
// Watch switch still services the new target.
func (w *Watcher) scheduleRefresh() {
	select {
	case w.kick <- struct{}{}:
	default:
		// a refresh is already pending, it will pick up this change
	}
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.kick:
			w.refresh()
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) refresh() {
	w.mu.Lock()
	eventId := w.eventId
	stopped := w.closed
	w.mu.Unlock()
	if stopped || eventId == "" {
		return
	}

	seq := w.rec.BeginFetch()

	snap, err := w.backend.FetchEventById(context.Background(), eventId)
	if err != nil {
		// keep showing the previous snapshot rather than a blank view
		w.log.Printf("fetch event %q: %v", eventId, err)
		return
	}
	if snap == nil {
		w.log.Printf("event %q no longer exists", eventId)
		return
	}

	// a fetch captured for a since-closed subscription must not touch the
	// snapshot of the now-current event
	w.mu.Lock()
	active := w.eventId
	closed := w.closed
	w.mu.Unlock()
	if closed || active != eventId {
		w.log.Printf("dropping fetch result for event %q, watcher moved to %q", eventId, active)
		return
	}

	for _, change := range w.rec.ApplySnapshot(seq, snap) {
		w.announce(snap, change)
	}
}

func (w *Watcher) announce(event *types.Event, change Change) {
	switch change.Kind {
	case ChangeStatus:
		w.notifier.Add(notify.SeverityInfo, "Status Updated",
			fmt.Sprintf("The event %q is now %s.", event.Title, change.Status))
	case ChangeParticipantJoined:
		w.notifier.Add(notify.SeverityInfo, "New Participant!",
			fmt.Sprintf("%s has joined the event.", change.User.Name))
	case ChangeParticipantLeft:
		w.notifier.Add(notify.SeverityWarning, "Participant Left",
			fmt.Sprintf("%s has left the event.", change.User.Name))
	case ChangeNewChatMessage:
		w.notifier.Add(notify.SeverityInfo,
			fmt.Sprintf("New Message from %s", change.Message.User.Name),
			preview(change.Message.Message))
	}
}

const previewLen = 50

func preview(msg string) string {
	if len(msg) > previewLen {
		return msg[:previewLen] + "..."
	}
	return msg
}
