package server

import (
	"net/http"
	"testing"

	"github.com/ValentinKt/clean-up-crew/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestGetUserId(t *testing.T) {
	t.Run("extracts id from UserId", func(t *testing.T) {
		cm := &ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			UserId:      "u42",
		}

		assert.Equal(t, "u42", cm.GetUserId())
	})

	t.Run("extracts id from client", func(t *testing.T) {
		cm := &ClientMessage{
			BaseMessage: BaseMessage{Id: 1, Timestamp: Now()},
			client: &Client{
				user: types.User{Id: "u42"},
			},
		}

		assert.Equal(t, "u42", cm.GetUserId())
	})

	t.Run("empty when neither set", func(t *testing.T) {
		assert.Equal(t, "", (&ClientMessage{}).GetUserId())
	})
}

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		name string
		msg  *ServerMessage
		code int
	}{
		{"ok", NoErrOK(1), http.StatusOK},
		{"event not found", ErrEventNotFound(2), http.StatusNotFound},
		{"internal error", ErrInternalError(3), http.StatusInternalServerError},
		{"service unavailable", ErrServiceUnavailable(4), http.StatusServiceUnavailable},
		{"invalid message", ErrInvalidMessage(5), http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotNil(t, tc.msg.Response)
			assert.Equal(t, tc.code, tc.msg.Response.ResponseCode)
			assert.False(t, tc.msg.Timestamp.IsZero())
		})
	}
}

func TestErrInvalidMessageNegativeId(t *testing.T) {
	msg := ErrInvalidMessage(-1)
	assert.Equal(t, 0, msg.Id, "negative request ids are not echoed back")
}
