package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/ValentinKt/clean-up-crew/internal/realtime"
	"github.com/ValentinKt/clean-up-crew/internal/server"
	"github.com/ValentinKt/clean-up-crew/internal/types"
	"github.com/gorilla/websocket"
)

// ChangeFeed implements realtime.Backend over one websocket connection.
// Fetches go through the HTTP client; change subscriptions are multiplexed
// over the socket as watch/unwatch messages, and incoming change
// notifications are dispatched to the watcher of the affected event.
type ChangeFeed struct {
	api      *Client
	log      *log.Logger
	conn     *websocket.Conn
	writeMu  sync.Mutex
	mu       sync.Mutex
	nextId   int
	handlers map[string]func()
	closed   bool
}

func NewChangeFeed(ctx context.Context, api *Client, logger *log.Logger) (*ChangeFeed, error) {
	wsUrl := *api.baseUrl
	switch wsUrl.Scheme {
	case "https":
		wsUrl.Scheme = "wss"
	default:
		wsUrl.Scheme = "ws"
	}
	wsUrl.Path = "/ws"

	// the dialer shares the HTTP client's jar so the session cookie
	// authenticates the upgrade
	dialer := websocket.Dialer{Jar: api.http.Jar}
	conn, resp, err := dialer.DialContext(ctx, wsUrl.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: websocket upgrade rejected", ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	cf := &ChangeFeed{
		api:      api,
		log:      logger,
		conn:     conn,
		handlers: make(map[string]func()),
	}

	go cf.readLoop()

	return cf, nil
}

func (cf *ChangeFeed) readLoop() {
	for {
		var msg server.ServerMessage
		if err := cf.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cf.log.Printf("change feed read: %v", err)
			}
			return
		}

		switch {
		case msg.Change != nil:
			cf.dispatch(msg.Change)
		case msg.Response != nil:
			if msg.Response.Error != "" {
				cf.log.Printf("request %d failed: %s", msg.Id, msg.Response.Error)
			}
		}
	}
}

func (cf *ChangeFeed) dispatch(change *server.ChangeNotification) {
	cf.mu.Lock()
	onChange := cf.handlers[change.EventId]
	cf.mu.Unlock()

	if onChange != nil {
		onChange()
	}
}

// nextMsgId allocates the id for the next request sent over the socket.
func (cf *ChangeFeed) nextMsgId() int {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	cf.nextId++
	return cf.nextId
}

func (cf *ChangeFeed) send(msg *server.ClientMessage) error {
	cf.writeMu.Lock()
	defer cf.writeMu.Unlock()

	if err := cf.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return nil
}

// FetchEventById returns the canonical snapshot, translating a deleted
// event into a nil snapshot rather than an error.
func (cf *ChangeFeed) FetchEventById(ctx context.Context, eventId string) (*types.Event, error) {
	evt, err := cf.api.GetEventById(ctx, eventId)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return evt, err
}

func (cf *ChangeFeed) SubscribeEventChanges(_ context.Context, eventId string, onChange func()) (realtime.Subscription, error) {
	cf.mu.Lock()
	if cf.closed {
		cf.mu.Unlock()
		return nil, fmt.Errorf("change feed is closed")
	}
	cf.handlers[eventId] = onChange
	cf.mu.Unlock()

	err := cf.send(&server.ClientMessage{
		BaseMessage: server.BaseMessage{Id: cf.nextMsgId(), Timestamp: server.Now()},
		Watch:       &server.Watch{EventId: eventId},
	})
	if err != nil {
		cf.mu.Lock()
		delete(cf.handlers, eventId)
		cf.mu.Unlock()
		return nil, err
	}

	return &feedSubscription{feed: cf, eventId: eventId}, nil
}

// Close tears down the socket. Outstanding subscriptions stop delivering;
// their Unsubscribe calls remain safe no-ops.
func (cf *ChangeFeed) Close() error {
	cf.mu.Lock()
	if cf.closed {
		cf.mu.Unlock()
		return nil
	}
	cf.closed = true
	cf.handlers = make(map[string]func())
	cf.mu.Unlock()

	return cf.conn.Close()
}

type feedSubscription struct {
	feed    *ChangeFeed
	eventId string
	once    sync.Once
}

// Unsubscribe detaches the handler and tells the backend to stop watching
// the event. Repeat calls are no-ops.
func (s *feedSubscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.handlers, s.eventId)
		closed := s.feed.closed
		s.feed.mu.Unlock()

		if closed {
			return
		}

		err = s.feed.send(&server.ClientMessage{
			BaseMessage: server.BaseMessage{Id: s.feed.nextMsgId(), Timestamp: server.Now()},
			Unwatch:     &server.Unwatch{EventId: s.eventId},
		})
	})
	return err
}
