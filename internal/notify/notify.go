package notify

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/teris-io/shortid"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a transient user-facing message. Duplicates are fine: two
// users joining in the same reconciliation cycle produce two separate
// notifications rather than a coalesced one.
type Notification struct {
	Id       string   `json:"id"`
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
}

const defaultTTL = 5 * time.Second

// Center is the application-wide notification queue. It is created once at
// application root and passed down explicitly; any component may push to it
// through Add. Each notification auto-expires after a fixed delay.
type Center struct {
	log *log.Logger
	ttl time.Duration

	mu            sync.Mutex
	notifications []Notification
	timers        map[string]*time.Timer
	listener      func([]Notification)
	closed        bool
}

func NewCenter(logger *log.Logger) *Center {
	return &Center{
		log:    logger,
		ttl:    defaultTTL,
		timers: make(map[string]*time.Timer),
	}
}

// OnChange registers a callback invoked with the full queue after every
// add or removal. The UI renders whatever the latest callback delivered,
// independent of snapshot state.
func (c *Center) OnChange(fn func([]Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = fn
}

// Add queues a notification and schedules its removal. The assigned id is
// returned so callers may remove it early.
func (c *Center) Add(severity Severity, title, message string) string {
	id, err := shortid.Generate()
	if err != nil {
		// shortid only fails on entropy exhaustion; fall back to a
		// timestamp id rather than dropping the notification
		id = fmt.Sprintf("n-%d", time.Now().UnixNano())
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return id
	}

	c.notifications = append(c.notifications, Notification{
		Id:       id,
		Severity: severity,
		Title:    title,
		Message:  message,
	})
	c.timers[id] = time.AfterFunc(c.ttl, func() {
		c.Remove(id)
	})
	c.notifyLocked()
	c.mu.Unlock()

	return id
}

// Remove deletes the notification with the given id. Removing an unknown or
// already-expired id is a no-op.
func (c *Center) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}

	for i, n := range c.notifications {
		if n.Id == id {
			c.notifications = append(c.notifications[:i], c.notifications[i+1:]...)
			c.notifyLocked()
			return
		}
	}
}

// Notifications returns a copy of the currently queued notifications.
func (c *Center) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// Close stops all expiry timers and drops the queue. Further Adds are
// ignored.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	c.notifications = nil
}

func (c *Center) notifyLocked() {
	if c.listener == nil {
		return
	}

	out := make([]Notification, len(c.notifications))
	copy(out, c.notifications)
	c.listener(out)
}
