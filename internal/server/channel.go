package server

import (
	"log"
	"sync"
	"time"

	"github.com/ValentinKt/clean-up-crew/internal/stats"
)

const idleChannelTimeout = time.Second * 5

// EventChannel is the fan-out point for one event: it tracks which clients
// are watching the event and forwards change notifications to each of them.
// A channel with no watchers unloads itself after a short idle period.
type EventChannel struct {
	eventId     string
	es          *EventServer
	watchChan   chan *ClientMessage
	unwatchChan chan *ClientMessage
	changeChan  chan *ChangeNotification
	watchers    map[*Client]struct{}
	watcherLock sync.RWMutex
	log         *log.Logger
	// killTimer unloads the channel once no client watches the event
	killTimer *time.Timer
	exit      chan struct{}
	done      chan struct{}
}

func newEventChannel(es *EventServer, eventId string) *EventChannel {
	return &EventChannel{
		eventId:     eventId,
		es:          es,
		watchChan:   make(chan *ClientMessage, 256),
		unwatchChan: make(chan *ClientMessage, 256),
		changeChan:  make(chan *ChangeNotification, 256),
		watchers:    make(map[*Client]struct{}),
		log:         es.log,
		exit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (ch *EventChannel) start() {
	ch.log.Printf("starting channel for event %q", ch.eventId)
	ch.killTimer = time.NewTimer(idleChannelTimeout)
	ch.killTimer.Stop()

	for {
		select {
		case watchMsg := <-ch.watchChan:
			ch.handleWatch(watchMsg)
		case unwatchMsg := <-ch.unwatchChan:
			ch.handleUnwatch(unwatchMsg)
		case change := <-ch.changeChan:
			ch.broadcast(change)
		case <-ch.killTimer.C:
			ch.handleTimeout()
		case <-ch.exit:
			ch.handleExit()
			return
		}
	}
}

func (ch *EventChannel) handleWatch(watchMsg *ClientMessage) {
	ch.killTimer.Stop()

	c := watchMsg.client
	ch.addWatcher(c)
	c.queueMessage(NoErrOK(watchMsg.Id))
}

func (ch *EventChannel) handleUnwatch(unwatchMsg *ClientMessage) {
	c := unwatchMsg.client
	ch.removeWatcher(c)

	if unwatchMsg.UserId != "" {
		// only reply when the unwatch came from a client request, not from
		// connection cleanup
		c.queueMessage(NoErrOK(unwatchMsg.Id))
	}
}

func (ch *EventChannel) handleTimeout() {
	ch.log.Printf("channel for event %q timed out", ch.eventId)
	select {
	case ch.es.unloadChan <- ch.eventId:
	default:
		ch.log.Printf("unload channel full, retrying event %q later", ch.eventId)
		ch.killTimer.Reset(idleChannelTimeout)
	}
}

func (ch *EventChannel) handleExit() {
	ch.log.Printf("channel for event %q is exiting", ch.eventId)

	ch.watcherLock.Lock()
	for c := range ch.watchers {
		c.delChannel(ch.eventId)
	}
	ch.watcherLock.Unlock()

	close(ch.done)
}

func (ch *EventChannel) addWatcher(c *Client) {
	ch.watcherLock.Lock()
	defer ch.watcherLock.Unlock()

	ch.watchers[c] = struct{}{}
	c.addChannel(ch)
}

func (ch *EventChannel) removeWatcher(c *Client) {
	ch.watcherLock.Lock()
	defer ch.watcherLock.Unlock()

	if _, ok := ch.watchers[c]; !ok {
		return
	}

	delete(ch.watchers, c)
	c.delChannel(ch.eventId)

	if len(ch.watchers) == 0 {
		ch.log.Printf("no watchers on event %q, starting kill timer", ch.eventId)
		ch.killTimer.Reset(idleChannelTimeout)
	}
}

func (ch *EventChannel) broadcast(change *ChangeNotification) {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Change: change,
	}

	ch.watcherLock.RLock()
	defer ch.watcherLock.RUnlock()

	for c := range ch.watchers {
		// the mutating actor is notified too; self-suppression is the
		// consumer's concern
		c.queueMessage(msg)
		ch.es.stats.Incr(stats.ChangeNotifications)
	}
}
