package notify

import (
	"testing"
	"time"

	"github.com/ValentinKt/clean-up-crew/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAddAssignsUniqueIds(t *testing.T) {
	c := NewCenter(testutil.TestLogger(t))
	defer c.Close()

	id1 := c.Add(SeverityInfo, "first", "message one")
	id2 := c.Add(SeverityError, "second", "message two")

	assert.NotEmpty(t, id1)
	assert.NotEmpty(t, id2)
	assert.NotEqual(t, id1, id2, "expected distinct notification ids")

	queued := c.Notifications()
	assert.Len(t, queued, 2)
	assert.Equal(t, "first", queued[0].Title)
	assert.Equal(t, SeverityError, queued[1].Severity)
}

func TestRemoveIsIdempotent(t *testing.T) {
	c := NewCenter(testutil.TestLogger(t))
	defer c.Close()

	id := c.Add(SeverityInfo, "title", "message")
	c.Remove(id)
	assert.Empty(t, c.Notifications())

	// removing again or removing an unknown id must not panic
	c.Remove(id)
	c.Remove("no-such-id")
	assert.Empty(t, c.Notifications())
}

func TestAutoExpiry(t *testing.T) {
	c := NewCenter(testutil.TestLogger(t))
	defer c.Close()
	c.ttl = 20 * time.Millisecond

	c.Add(SeverityInfo, "transient", "gone soon")
	assert.Len(t, c.Notifications(), 1)

	assert.Eventually(t, func() bool {
		return len(c.Notifications()) == 0
	}, time.Second, 5*time.Millisecond, "notification should auto-expire")
}

func TestDuplicatesAreNotCoalesced(t *testing.T) {
	c := NewCenter(testutil.TestLogger(t))
	defer c.Close()

	c.Add(SeverityInfo, "New Participant!", "Ana has joined the event.")
	c.Add(SeverityInfo, "New Participant!", "Ben has joined the event.")

	assert.Len(t, c.Notifications(), 2, "two joins in one cycle are two notifications")
}

func TestOnChangeListener(t *testing.T) {
	c := NewCenter(testutil.TestLogger(t))
	defer c.Close()

	var last []Notification
	c.OnChange(func(ns []Notification) { last = ns })

	id := c.Add(SeverityWarning, "title", "message")
	assert.Len(t, last, 1)

	c.Remove(id)
	assert.Empty(t, last)
}

func TestAddAfterClose(t *testing.T) {
	c := NewCenter(testutil.TestLogger(t))
	c.Close()

	c.Add(SeverityInfo, "late", "ignored")
	assert.Empty(t, c.Notifications())
}
