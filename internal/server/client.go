package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/ValentinKt/clean-up-crew/internal/types"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one websocket connection. A user may hold several connections;
// each tracks the event channels it is watching so cleanup can detach it
// from all of them.
type Client struct {
	conn         *websocket.Conn
	eventServer  *EventServer
	log          *log.Logger
	user         types.User
	send         chan *ServerMessage
	channels     map[string]*EventChannel
	channelsLock sync.RWMutex
	stop         chan struct{}
	stopOnce     sync.Once
}

func NewClient(user types.User, conn *websocket.Conn, es *EventServer, l *log.Logger) *Client {
	return &Client{
		conn:        conn,
		eventServer: es,
		log:         l,
		user:        user,
		send:        make(chan *ServerMessage, 256),
		channels:    make(map[string]*EventChannel),
		stop:        make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Println("write exiting")
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Println("read exiting")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		msg.client = c
		msg.UserId = c.user.Id
		msg.Timestamp = Now()

		switch {
		case msg.Watch != nil:
			c.watchEvent(&msg)
		case msg.Unwatch != nil:
			c.unwatchEvent(&msg)
		default:
			c.queueMessage(ErrInvalidMessage(msg.Id))
		}
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Println("failed to send message to client, channel is full")
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Client) cleanup() {
	c.eventServer.DeregisterClient(c)
	c.unwatchAll()
	c.stopClient()
}

func (c *Client) unwatchAll() {
	c.channelsLock.RLock()
	defer c.channelsLock.RUnlock()

	for _, ch := range c.channels {
		ch.unwatchChan <- &ClientMessage{
			Unwatch: &Unwatch{EventId: ch.eventId},
			client:  c,
		}
	}
}

func (c *Client) watchEvent(msg *ClientMessage) {
	select {
	case c.eventServer.watchChan <- msg:
	default:
		c.log.Printf("watch channel full")
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) unwatchEvent(msg *ClientMessage) {
	ch := c.getChannel(msg.Unwatch.EventId)
	if ch == nil {
		// unwatching an event that is not watched is a no-op
		c.queueMessage(NoErrOK(msg.Id))
		return
	}

	select {
	case ch.unwatchChan <- msg:
	default:
		c.log.Printf("unwatch channel full for event %q", ch.eventId)
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) delChannel(eventId string) {
	c.channelsLock.Lock()
	defer c.channelsLock.Unlock()

	delete(c.channels, eventId)
}

func (c *Client) addChannel(ch *EventChannel) {
	c.channelsLock.Lock()
	defer c.channelsLock.Unlock()

	c.channels[ch.eventId] = ch
}

func (c *Client) getChannel(eventId string) *EventChannel {
	c.channelsLock.RLock()
	defer c.channelsLock.RUnlock()

	if ch, ok := c.channels[eventId]; ok {
		return ch
	}

	return nil
}
