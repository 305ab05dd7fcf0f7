package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ValentinKt/clean-up-crew/internal/config"
	"github.com/ValentinKt/clean-up-crew/internal/database"
	"github.com/ValentinKt/clean-up-crew/internal/server"
	"github.com/ValentinKt/clean-up-crew/internal/stats"
	"github.com/ValentinKt/clean-up-crew/internal/testutil"
	"github.com/ValentinKt/clean-up-crew/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// findCookie is a helper function to find a cookie by name in the response recorder.
// It returns the cookie if found, or nil if not found.
func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func newTestApp(t *testing.T, repo database.EventRepository) *CrewApp {
	t.Helper()

	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Times(4)
	su.On("Incr", mock.Anything).Maybe()

	es, err := server.NewEventServer(testutil.TestLogger(t), repo, su)
	assert.NoError(t, err)

	cfg := &config.Config{
		ServerAddr:     "localhost:8080",
		SigningKey:     []byte("test-signing-key"),
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	app, err := NewCrewApp(http.NewServeMux(), testutil.TestLogger(t), es, repo, su, cfg)
	assert.NoError(t, err)

	return app
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()

	buf := &bytes.Buffer{}
	assert.NoError(t, json.NewEncoder(buf).Encode(v))
	return buf
}

// authedRequest builds a request whose context carries an authenticated
// user id, as authMiddleware would have done.
func authedRequest(method, target, userId string, body *bytes.Buffer) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(WithUserId(req.Context(), userId))
}

func testDbEvent() *database.Event {
	return &database.Event{
		Id:          "evt1",
		Title:       "Beach Cleanup",
		Description: "Bring gloves",
		Address:     "North Beach",
		Lat:         43.7,
		Lng:         7.2,
		Radius:      500,
		Date:        time.Now().UTC().Add(24 * time.Hour),
		Status:      string(types.StatusUpcoming),
		OrganizerId: "org1",
		Organizer:   database.User{Id: "org1", Name: "Olive"},
		Participants: []database.User{
			{Id: "org1", Name: "Olive"},
			{Id: "usr2", Name: "Ben"},
		},
		Equipment: []database.ChecklistItem{
			{Id: "item1", EventId: "evt1", Name: "Trash bags", ClaimedBy: "usr2"},
			{Id: "item2", EventId: "evt1", Name: "Gloves"},
		},
	}
}

func Test_healthCheck(t *testing.T) {
	tcases := []struct {
		name    string
		mockErr error
	}{
		{
			name:    "successful health check",
			mockErr: nil,
		},
		{
			name:    "failed health check",
			mockErr: errors.New("db error"),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockEventRepository{}
			defer mockRepo.AssertExpectations(t)
			mockRepo.On("Ping").Return(tc.mockErr).Once()

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			app.healthCheck(rr, req)

			if tc.mockErr != nil {
				assert.Equal(t, http.StatusInternalServerError, rr.Code)
			} else {
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.Equal(t, "OK", rr.Body.String())
			}
		})
	}
}

func Test_createAccount(t *testing.T) {
	expectedUser := database.User{
		Id:        "usr1",
		Name:      "newuser",
		Email:     "newuser@example.com",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	tcases := []struct {
		name         string
		body         any
		mockUser     *database.User
		mockErr      error
		expectedCode int
	}{
		{
			name: "successfully creates a new account",
			body: RegisterRequest{
				Name:     expectedUser.Name,
				Email:    expectedUser.Email,
				Password: "password",
			},
			mockUser:     &expectedUser,
			expectedCode: http.StatusCreated,
		},
		{
			name:         "fails with invalid json body",
			body:         "invalid json",
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "fails with missing name",
			body: RegisterRequest{
				Email:    expectedUser.Email,
				Password: "password",
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "fails when repository errors",
			body: RegisterRequest{
				Name:     expectedUser.Name,
				Email:    expectedUser.Email,
				Password: "password",
			},
			mockUser:     &database.User{},
			mockErr:      errors.New("db error"),
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockEventRepository{}
			defer mockRepo.AssertExpectations(t)
			if tc.mockUser != nil {
				mockRepo.On("CreateAccount", mock.AnythingOfType("database.CreateAccountParams")).
					Return(*tc.mockUser, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, tc.body))
			app.createAccount(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedCode == http.StatusCreated {
				var u types.User
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
				assert.Equal(t, expectedUser.Id, u.Id)
				assert.Equal(t, expectedUser.Name, u.Name)
			}
		})
	}
}

func Test_login(t *testing.T) {
	passwdHash, err := hashPassword("password")
	assert.NoError(t, err)

	dbUser := database.User{
		Id:           "usr1",
		Name:         "testuser",
		Email:        "testuser@example.com",
		PasswordHash: passwdHash,
	}

	t.Run("successful login sets session cookie", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetAccountByEmail", dbUser.Email).Return(dbUser, nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			jsonBody(t, LoginRequest{Email: dbUser.Email, Password: "password"}))
		app.login(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		cookie := findCookie(rr, tokenCookieKey)
		assert.NotNil(t, cookie)
		assert.NotEmpty(t, cookie.Value)

		var u types.User
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
		assert.Equal(t, dbUser.Id, u.Id)
		assert.Equal(t, dbUser.Name, u.Name)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetAccountByEmail", dbUser.Email).Return(dbUser, nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			jsonBody(t, LoginRequest{Email: dbUser.Email, Password: "wrong"}))
		app.login(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, findCookie(rr, tokenCookieKey))
	})

	t.Run("unknown email is not found", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetAccountByEmail", "nobody@example.com").
			Return(database.User{}, sql.ErrNoRows).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			jsonBody(t, LoginRequest{Email: "nobody@example.com", Password: "password"}))
		app.login(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func Test_logout(t *testing.T) {
	app := newTestApp(t, &database.MockEventRepository{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil)
	req.AddCookie(createJwtCookie("testtoken", defaultExp))
	app.logout(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)

	cookie := findCookie(rr, tokenCookieKey)
	assert.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
}

func Test_session(t *testing.T) {
	dbUser := database.User{Id: "usr1", Name: "testuser", Email: "testuser@example.com"}

	t.Run("returns the authenticated user", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetAccountById", dbUser.Id).Return(dbUser, nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		app.session(rr, authedRequest(http.MethodGet, "/api/auth/session", dbUser.Id, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		var u types.User
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
		assert.Equal(t, dbUser.Id, u.Id)
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		app := newTestApp(t, &database.MockEventRepository{})
		rr := httptest.NewRecorder()
		app.session(rr, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func Test_updateAccount(t *testing.T) {
	t.Run("updates name and avatar", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("UpdateAccount", database.UpdateAccountParams{
			UserId:    "usr1",
			Name:      "New Name",
			AvatarUrl: "https://example.com/a.png",
		}).Return(database.User{Id: "usr1", Name: "New Name"}, nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/account", "usr1",
			jsonBody(t, UpdateAccountRequest{Name: "New Name", AvatarUrl: "https://example.com/a.png"}))
		app.updateAccount(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		app := newTestApp(t, &database.MockEventRepository{})
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/account", "usr1",
			jsonBody(t, UpdateAccountRequest{Name: "   "}))
		app.updateAccount(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func Test_createEvent(t *testing.T) {
	t.Run("creates event with equipment checklist", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("CreateEvent", mock.MatchedBy(func(p database.CreateEventParams) bool {
			return p.Title == "Beach Cleanup" &&
				p.OrganizerId == "org1" &&
				len(p.EquipmentIds) == 2 &&
				len(p.EquipmentNames) == 2
		})).Return(testDbEvent(), nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events", "org1", jsonBody(t, CreateEventRequest{
			Title:     "Beach Cleanup",
			Location:  types.Location{Address: "North Beach", Lat: 43.7, Lng: 7.2},
			Radius:    500,
			Date:      time.Now().UTC().Add(24 * time.Hour),
			Equipment: []string{"Trash bags", "Gloves"},
		}))
		app.createEvent(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var evt types.Event
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&evt))
		assert.Equal(t, "evt1", evt.Id)
		assert.Len(t, evt.Equipment, 2)
	})

	t.Run("empty title is rejected", func(t *testing.T) {
		app := newTestApp(t, &database.MockEventRepository{})
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events", "org1",
			jsonBody(t, CreateEventRequest{Title: " "}))
		app.createEvent(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func Test_getEvent(t *testing.T) {
	t.Run("returns the complete aggregate", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "evt1").Return(testDbEvent(), nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodGet, "/api/events/evt1", "usr2", nil)
		req.SetPathValue("id", "evt1")
		app.getEvent(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var evt types.Event
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&evt))
		assert.Equal(t, "evt1", evt.Id)
		assert.Equal(t, "org1", evt.Organizer.Id)
		assert.Len(t, evt.Participants, 2)
		assert.Equal(t, "usr2", evt.Equipment[0].ClaimedBy)
	})

	t.Run("unknown event is not found", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "missing").Return(nil, sql.ErrNoRows).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodGet, "/api/events/missing", "usr2", nil)
		req.SetPathValue("id", "missing")
		app.getEvent(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func Test_listEvents(t *testing.T) {
	mockRepo := &database.MockEventRepository{}
	defer mockRepo.AssertExpectations(t)
	mockRepo.On("ListEventsForUser", "usr2").Return([]database.Event{*testDbEvent()}, nil).Once()

	app := newTestApp(t, mockRepo)
	rr := httptest.NewRecorder()
	app.listEvents(rr, authedRequest(http.MethodGet, "/api/events", "usr2", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var events []types.Event
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&events))
	assert.Len(t, events, 1)
	assert.Equal(t, "evt1", events[0].Id)
}

func Test_updateEvent(t *testing.T) {
	t.Run("organizer may update details", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "evt1").Return(testDbEvent(), nil).Once()
		mockRepo.On("UpdateEventDetails", mock.MatchedBy(func(p database.UpdateEventParams) bool {
			return p.EventId == "evt1" && p.Title == "Beach Cleanup II"
		})).Return(nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/events/evt1", "org1",
			jsonBody(t, UpdateEventRequest{Title: "Beach Cleanup II"}))
		req.SetPathValue("id", "evt1")
		app.updateEvent(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("non-organizer is forbidden", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "evt1").Return(testDbEvent(), nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPut, "/api/events/evt1", "usr2",
			jsonBody(t, UpdateEventRequest{Title: "Hijacked"}))
		req.SetPathValue("id", "evt1")
		app.updateEvent(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func Test_joinEvent(t *testing.T) {
	t.Run("adds the caller as participant", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "evt1").Return(testDbEvent(), nil).Once()
		mockRepo.On("AddParticipant", "evt1", "usr3").Return(nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events/evt1/join", "usr3", nil)
		req.SetPathValue("id", "evt1")
		app.joinEvent(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("joining a completed event conflicts", func(t *testing.T) {
		completed := testDbEvent()
		completed.Status = string(types.StatusCompleted)

		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "evt1").Return(completed, nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events/evt1/join", "usr3", nil)
		req.SetPathValue("id", "evt1")
		app.joinEvent(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func Test_leaveEvent(t *testing.T) {
	mockRepo := &database.MockEventRepository{}
	defer mockRepo.AssertExpectations(t)
	mockRepo.On("RemoveParticipant", "evt1", "usr2").Return(nil).Once()

	app := newTestApp(t, mockRepo)
	rr := httptest.NewRecorder()
	req := authedRequest(http.MethodPost, "/api/events/evt1/leave", "usr2", nil)
	req.SetPathValue("id", "evt1")
	app.leaveEvent(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func Test_postChatMessage(t *testing.T) {
	t.Run("persists a trimmed message", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "evt1").Return(testDbEvent(), nil).Once()
		mockRepo.On("CreateMessage", mock.MatchedBy(func(m database.Message) bool {
			return m.EventId == "evt1" && m.UserId == "usr2" &&
				m.Content == "hello everyone" && m.Id != ""
		})).Return(nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events/evt1/chat", "usr2",
			jsonBody(t, ChatRequest{Message: "  hello everyone  "}))
		req.SetPathValue("id", "evt1")
		app.postChatMessage(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("whitespace-only message is rejected before any write", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events/evt1/chat", "usr2",
			jsonBody(t, ChatRequest{Message: "   "}))
		req.SetPathValue("id", "evt1")
		app.postChatMessage(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func Test_updateEventStatus(t *testing.T) {
	tcases := []struct {
		name         string
		caller       string
		current      types.EventStatus
		target       types.EventStatus
		expectUpdate bool
		expectedCode int
	}{
		{
			name:         "organizer starts an upcoming event",
			caller:       "org1",
			current:      types.StatusUpcoming,
			target:       types.StatusInProgress,
			expectUpdate: true,
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "organizer cancels an in-progress event",
			caller:       "org1",
			current:      types.StatusInProgress,
			target:       types.StatusCancelled,
			expectUpdate: true,
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "non-organizer is forbidden",
			caller:       "usr2",
			current:      types.StatusUpcoming,
			target:       types.StatusInProgress,
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "skipping a state conflicts",
			caller:       "org1",
			current:      types.StatusUpcoming,
			target:       types.StatusCompleted,
			expectedCode: http.StatusConflict,
		},
		{
			name:         "terminal state is locked",
			caller:       "org1",
			current:      types.StatusCancelled,
			target:       types.StatusInProgress,
			expectedCode: http.StatusConflict,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			dbEvent := testDbEvent()
			dbEvent.Status = string(tc.current)

			mockRepo := &database.MockEventRepository{}
			defer mockRepo.AssertExpectations(t)
			mockRepo.On("GetEventById", "evt1").Return(dbEvent, nil).Once()
			if tc.expectUpdate {
				mockRepo.On("UpdateEventStatus", "evt1", string(tc.target)).Return(nil).Once()
			}

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			req := authedRequest(http.MethodPost, "/api/events/evt1/status", tc.caller,
				jsonBody(t, StatusRequest{Status: tc.target}))
			req.SetPathValue("id", "evt1")
			app.updateEventStatus(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
}

func Test_addChecklistItem(t *testing.T) {
	t.Run("adds a named item", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "evt1").Return(testDbEvent(), nil).Once()
		mockRepo.On("AddChecklistItem", mock.MatchedBy(func(item database.ChecklistItem) bool {
			return item.EventId == "evt1" && item.Name == "Rakes" && item.Id != ""
		})).Return(nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events/evt1/equipment", "usr2",
			jsonBody(t, ChecklistItemRequest{Name: " Rakes "}))
		req.SetPathValue("id", "evt1")
		app.addChecklistItem(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("empty item name is rejected", func(t *testing.T) {
		app := newTestApp(t, &database.MockEventRepository{})
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events/evt1/equipment", "usr2",
			jsonBody(t, ChecklistItemRequest{Name: ""}))
		req.SetPathValue("id", "evt1")
		app.addChecklistItem(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func Test_claimItem(t *testing.T) {
	t.Run("claims an unclaimed item", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "evt1").Return(testDbEvent(), nil).Once()
		mockRepo.On("UpdateChecklistClaim", "evt1", "item2", "usr3").Return(nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events/evt1/equipment/item2/claim", "usr3",
			jsonBody(t, ClaimRequest{Claim: true}))
		req.SetPathValue("id", "evt1")
		req.SetPathValue("itemId", "item2")
		app.claimItem(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("claiming another user's item conflicts", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "evt1").Return(testDbEvent(), nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events/evt1/equipment/item1/claim", "usr3",
			jsonBody(t, ClaimRequest{Claim: true}))
		req.SetPathValue("id", "evt1")
		req.SetPathValue("itemId", "item1")
		app.claimItem(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("unclaim clears the claimant", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "evt1").Return(testDbEvent(), nil).Once()
		mockRepo.On("UpdateChecklistClaim", "evt1", "item1", "").Return(nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events/evt1/equipment/item1/claim", "usr2",
			jsonBody(t, ClaimRequest{Claim: false}))
		req.SetPathValue("id", "evt1")
		req.SetPathValue("itemId", "item1")
		app.claimItem(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func Test_markItemProvided(t *testing.T) {
	t.Run("marks a claimed item provided", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "evt1").Return(testDbEvent(), nil).Once()
		mockRepo.On("MarkItemProvided", "evt1", "item1", true).Return(nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events/evt1/equipment/item1/provided", "usr2",
			jsonBody(t, ProvidedRequest{Provided: true}))
		req.SetPathValue("id", "evt1")
		req.SetPathValue("itemId", "item1")
		app.markItemProvided(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("unclaimed item conflicts", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "evt1").Return(testDbEvent(), nil).Once()
		mockRepo.On("MarkItemProvided", "evt1", "item2", true).Return(sql.ErrNoRows).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events/evt1/equipment/item2/provided", "usr2",
			jsonBody(t, ProvidedRequest{Provided: true}))
		req.SetPathValue("id", "evt1")
		req.SetPathValue("itemId", "item2")
		app.markItemProvided(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func Test_addPhoto(t *testing.T) {
	t.Run("attaches a photo url", func(t *testing.T) {
		mockRepo := &database.MockEventRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetEventById", "evt1").Return(testDbEvent(), nil).Once()
		mockRepo.On("AddPhoto", "evt1", "https://example.com/p.jpg").Return(nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events/evt1/photos", "usr2",
			jsonBody(t, PhotoRequest{Url: "https://example.com/p.jpg"}))
		req.SetPathValue("id", "evt1")
		app.addPhoto(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("empty url is rejected", func(t *testing.T) {
		app := newTestApp(t, &database.MockEventRepository{})
		rr := httptest.NewRecorder()
		req := authedRequest(http.MethodPost, "/api/events/evt1/photos", "usr2",
			jsonBody(t, PhotoRequest{}))
		req.SetPathValue("id", "evt1")
		app.addPhoto(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
