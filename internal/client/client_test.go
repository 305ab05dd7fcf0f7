package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ValentinKt/clean-up-crew/internal/testutil"
	"github.com/ValentinKt/clean-up-crew/internal/types"
	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, testutil.TestLogger(t))
	assert.NoError(t, err)
	return c
}

// failOnRequest fails the test if any request reaches the server, proving
// validation happened locally.
func failOnRequest(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
	})
}

func TestLocalValidation(t *testing.T) {
	c := newTestClient(t, failOnRequest(t))
	ctx := context.Background()

	assert.ErrorIs(t, c.PostChatMessage(ctx, "evt1", "   "), ErrValidation)
	assert.ErrorIs(t, c.AddChecklistItem(ctx, "evt1", ""), ErrValidation)
	assert.ErrorIs(t, c.AddEventPhoto(ctx, "evt1", " "), ErrValidation)
	assert.ErrorIs(t, c.UpdateEventDetails(ctx, "evt1", EventDetails{}), ErrValidation)

	_, err := c.UpdateUser(ctx, "  ", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = c.CreateEvent(ctx, EventDetails{Title: " "}, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestClaimItemAdvisoryCheck(t *testing.T) {
	snapshot := &types.Event{
		Id: "evt1",
		Equipment: []types.ChecklistItem{
			{Id: "item1", Name: "Trash bags", ClaimedBy: "someone-else"},
			{Id: "item2", Name: "Gloves"},
		},
	}

	t.Run("item claimed by another user fails fast", func(t *testing.T) {
		c := newTestClient(t, failOnRequest(t))
		err := c.ClaimItem(context.Background(), snapshot, "evt1", "item1")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unclaimed item is dispatched", func(t *testing.T) {
		var gotPath string
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}))

		assert.NoError(t, c.ClaimItem(context.Background(), snapshot, "evt1", "item2"))
		assert.Equal(t, "/api/events/evt1/equipment/item2/claim", gotPath)
	})

	t.Run("nil snapshot skips the advisory check", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		assert.NoError(t, c.ClaimItem(context.Background(), nil, "evt1", "item1"))
	})
}

func TestErrorTaxonomy(t *testing.T) {
	tcases := []struct {
		name        string
		statusCode  int
		expectedErr error
	}{
		{"bad request maps to validation", http.StatusBadRequest, ErrValidation},
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"conflict", http.StatusConflict, ErrConflict},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				json.NewEncoder(w).Encode(map[string]any{
					"status_code": tc.statusCode,
					"message":     "nope",
				})
			}))

			err := c.JoinEvent(context.Background(), "evt1")
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestNetworkErrorIsWrapped(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1", testutil.TestLogger(t))
	assert.NoError(t, err)
	c.http.Timeout = 100 * time.Millisecond

	assert.ErrorIs(t, c.JoinEvent(context.Background(), "evt1"), ErrNetwork)
}

func TestLoginEstablishesSession(t *testing.T) {
	viewer := types.User{Id: "usr1", Name: "Ada"}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "session-token", Path: "/"})
		json.NewEncoder(w).Encode(viewer)
	})
	var sessionCookie string
	mux.HandleFunc("GET /api/events", func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie("token"); err == nil {
			sessionCookie = cookie.Value
		}
		json.NewEncoder(w).Encode([]types.Event{})
	})

	c := newTestClient(t, mux)

	u, err := c.Login(context.Background(), "ada@example.com", "password")
	assert.NoError(t, err)
	assert.Equal(t, viewer, u)
	assert.Equal(t, viewer, c.Viewer())

	_, err = c.ListEventsForUser(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "session-token", sessionCookie)
}

func TestGetEventById(t *testing.T) {
	event := types.Event{Id: "evt1", Title: "Beach Cleanup", Status: types.StatusUpcoming}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events/evt1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(event)
	})

	c := newTestClient(t, mux)

	got, err := c.GetEventById(context.Background(), "evt1")
	assert.NoError(t, err)
	assert.Equal(t, event.Id, got.Id)
	assert.Equal(t, event.Title, got.Title)

	_, err = c.GetEventById(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
