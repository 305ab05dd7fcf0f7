package server

import (
	"net/http"
	"time"
)

// Change streams covered by an event subscription.
const (
	StreamEvents       = "events"
	StreamParticipants = "participants"
	StreamChat         = "chat"
	StreamEquipment    = "equipment"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is what a connected client sends over the websocket: watch
// or unwatch requests for a single event's change feed.
type ClientMessage struct {
	BaseMessage
	Watch   *Watch   `json:"watch,omitempty"`
	Unwatch *Unwatch `json:"unwatch,omitempty"`
	UserId  string   `json:"-"`
	client  *Client
}

func (cm *ClientMessage) GetUserId() string {
	if cm.UserId != "" {
		return cm.UserId
	}
	if cm.client != nil {
		return cm.client.user.Id
	}
	return ""
}

type Watch struct {
	EventId string `json:"event_id"`
}

type Unwatch struct {
	EventId string `json:"event_id"`
}

// ServerMessage is pushed to clients: either a response to a watch/unwatch
// request or a change notification. Change notifications carry no row data;
// they only tell the client which stream of which event changed, and the
// client re-fetches the canonical snapshot.
type ServerMessage struct {
	BaseMessage
	Response *Response           `json:"response,omitempty"`
	Change   *ChangeNotification `json:"change,omitempty"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
}

type ChangeNotification struct {
	EventId string `json:"event_id"`
	Stream  string `json:"stream"`
}

func NoErrOK(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
		},
	}
}

func ErrEventNotFound(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        "event not found",
		},
	}
}

func ErrInternalError(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusInternalServerError,
			Error:        "internal server error",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
