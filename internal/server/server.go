package server

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ValentinKt/clean-up-crew/internal/database"
	"github.com/ValentinKt/clean-up-crew/internal/stats"
)

// EventServer owns the set of connected websocket clients and one
// EventChannel per event that currently has watchers. The HTTP API reports
// every committed mutation through NotifyChange, and the matching channel
// fans a change notification out to all watchers of that event.
type EventServer struct {
	log         *log.Logger
	db          database.EventRepository
	stats       stats.StatsProvider
	clients     map[*Client]struct{}
	clientsLock sync.Mutex
	watchChan   chan *ClientMessage
	changeChan  chan *ChangeNotification
	unloadChan  chan string
	channels    map[string]*EventChannel
	stop        chan struct{}
	done        chan struct{}
}

func NewEventServer(logger *log.Logger, db database.EventRepository, su stats.StatsProvider) (*EventServer, error) {
	es := &EventServer{
		log:        logger,
		db:         db,
		stats:      su,
		clients:    make(map[*Client]struct{}),
		watchChan:  make(chan *ClientMessage, 256),
		changeChan: make(chan *ChangeNotification, 256),
		unloadChan: make(chan string, 256),
		channels:   make(map[string]*EventChannel),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	su.RegisterMetric(stats.ConnectedClients)
	su.RegisterMetric(stats.ActiveEventChannels)
	su.RegisterMetric(stats.ChangeNotifications)
	su.RegisterMetric(stats.RpcCalls)

	return es, nil
}

func (es *EventServer) Run() {
	for {
		select {
		case watchMsg := <-es.watchChan:
			es.handleWatch(watchMsg)
		case change := <-es.changeChan:
			if ch, ok := es.channels[change.EventId]; ok {
				select {
				case ch.changeChan <- change:
				default:
					es.log.Printf("change channel full on event %q", change.EventId)
				}
			}
			// no channel means nobody is watching, nothing to fan out
		case id := <-es.unloadChan:
			if ch, ok := es.channels[id]; ok {
				es.unloadChannel(id)
				ch.exit <- struct{}{}
				<-ch.done
			}
		case <-es.stop:
			es.log.Println("shutting down event channels")
			for _, ch := range es.channels {
				close(ch.exit)
				<-ch.done
			}

			close(es.done)
			return
		}
	}
}

func (es *EventServer) handleWatch(watchMsg *ClientMessage) {
	eventId := watchMsg.Watch.EventId
	if ch, ok := es.channels[eventId]; ok {
		select {
		case ch.watchChan <- watchMsg:
		default:
			es.log.Printf("watch channel full on event %q", eventId)
			watchMsg.client.queueMessage(ErrServiceUnavailable(watchMsg.Id))
		}
		return
	}

	// verify the event exists before spinning up a channel for it
	if _, err := es.db.GetEventById(eventId); err != nil {
		watchMsg.client.queueMessage(ErrEventNotFound(watchMsg.Id))
		return
	}

	ch := newEventChannel(es, eventId)
	es.channels[eventId] = ch
	es.stats.Incr(stats.ActiveEventChannels)
	ch.watchChan <- watchMsg

	go ch.start()
}

// NotifyChange fans a change notification out to every watcher of the
// event. Called by the API layer after each committed mutation.
func (es *EventServer) NotifyChange(eventId, stream string) {
	change := &ChangeNotification{EventId: eventId, Stream: stream}
	select {
	case es.changeChan <- change:
	case <-es.stop:
	}
}

func (es *EventServer) RegisterClient(c *Client) {
	es.clientsLock.Lock()
	defer es.clientsLock.Unlock()
	es.clients[c] = struct{}{}
	es.stats.Incr(stats.ConnectedClients)
	es.log.Printf("registered connection for user %q", c.user.Id)
}

func (es *EventServer) DeregisterClient(c *Client) {
	es.clientsLock.Lock()
	defer es.clientsLock.Unlock()
	if _, ok := es.clients[c]; ok {
		delete(es.clients, c)
		es.stats.Decr(stats.ConnectedClients)
	}
}

func (es *EventServer) unloadChannel(eventId string) {
	if _, ok := es.channels[eventId]; ok {
		es.log.Printf("unloading channel for event %q", eventId)
		delete(es.channels, eventId)
		es.stats.Decr(stats.ActiveEventChannels)
	}
}

func (es *EventServer) Shutdown(ctx context.Context) error {
	es.log.Println("received shutdown signal")
	es.clientsLock.Lock()
	for c := range es.clients {
		c.stopClient()
	}
	es.clientsLock.Unlock()

	close(es.stop)

	select {
	case <-es.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event server shutdown: %w", ctx.Err())
	}
}
