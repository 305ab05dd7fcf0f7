package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/ValentinKt/clean-up-crew/internal/database"
	"github.com/ValentinKt/clean-up-crew/internal/server"
	"github.com/ValentinKt/clean-up-crew/internal/types"
	"github.com/gorilla/websocket"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	AvatarUrl string `json:"avatar_url"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateAccountRequest struct {
	Name      string `json:"name"`
	AvatarUrl string `json:"avatar_url"`
}

type CreateEventRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    types.Location `json:"location"`
	Radius      float64        `json:"radius"`
	Date        time.Time      `json:"date"`
	Equipment   []string       `json:"equipment"`
}

type UpdateEventRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    types.Location `json:"location"`
	Radius      float64        `json:"radius"`
	Date        time.Time      `json:"date"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type StatusRequest struct {
	Status types.EventStatus `json:"status"`
}

type ChecklistItemRequest struct {
	Name string `json:"name"`
}

type ClaimRequest struct {
	Claim bool `json:"claim"`
}

type ProvidedRequest struct {
	Provided bool `json:"provided"`
}

type PhotoRequest struct {
	Url string `json:"url"`
}

func (s *CrewApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *CrewApp) writeError(w http.ResponseWriter, errResp *ApiError) {
	if errResp.Err != nil {
		s.log.Printf("api error: %v", errResp)
	}
	s.writeJson(w, errResp.StatusCode, errResp)
}

func toApiUser(u database.User) types.User {
	return types.User{
		Id:        u.Id,
		Name:      u.Name,
		Email:     u.Email,
		AvatarUrl: u.AvatarUrl,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// toApiEvent maps a database aggregate to the wire shape consumed by
// clients as the canonical snapshot.
func toApiEvent(e *database.Event) types.Event {
	event := types.Event{
		Id:          e.Id,
		Title:       e.Title,
		Description: e.Description,
		Location: types.Location{
			Address: e.Address,
			Lat:     e.Lat,
			Lng:     e.Lng,
		},
		Radius:    e.Radius,
		Date:      e.Date,
		Status:    types.EventStatus(e.Status),
		Organizer: toApiUser(e.Organizer),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}

	for _, p := range e.Participants {
		event.Participants = append(event.Participants, toApiUser(p))
	}
	for _, item := range e.Equipment {
		event.Equipment = append(event.Equipment, types.ChecklistItem{
			Id:         item.Id,
			Name:       item.Name,
			ClaimedBy:  item.ClaimedBy,
			IsProvided: item.IsProvided,
		})
	}
	for _, m := range e.Chat {
		event.Chat = append(event.Chat, types.ChatMessage{
			Id:        m.Id,
			User:      toApiUser(m.User),
			Message:   m.Content,
			Timestamp: m.CreatedAt,
		})
	}
	for _, p := range e.Photos {
		event.Photos = append(event.Photos, types.Photo{
			Url:       p.Url,
			Timestamp: p.CreatedAt,
		})
	}

	return event
}

func (s *CrewApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *CrewApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		s.writeError(w, NewBadRequestError())
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	id, err := s.generateShortId()
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	newUser, err := s.db.CreateAccount(database.CreateAccountParams{
		Id:           id,
		Name:         req.Name,
		Email:        req.Email,
		AvatarUrl:    req.AvatarUrl,
		PasswordHash: pwdHash,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, toApiUser(newUser))
}

func (s *CrewApp) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	dbUser, err := s.db.GetAccountByEmail(req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
		} else {
			s.writeError(w, NewInternalServerError(err))
		}
		return
	}

	if !verifyPassword(dbUser.PasswordHash, req.Password) {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	token, err := s.createJwtForSession(dbUser.Id, defaultExp)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultExp))
	s.writeJson(w, http.StatusOK, toApiUser(dbUser))
}

func (s *CrewApp) session(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		s.writeError(w, NewNotFoundError())
		return
	}

	s.writeJson(w, http.StatusOK, toApiUser(user))
}

func (s *CrewApp) logout(w http.ResponseWriter, _ *http.Request) {
	// instruct browser to delete cookie by overwriting it with an expired token
	http.SetCookie(w, createJwtCookie("", time.Duration(time.Unix(0, 0).Unix())))
	w.WriteHeader(http.StatusNoContent)
}

func (s *CrewApp) updateAccount(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		s.writeError(w, NewValidationError("name cannot be empty"))
		return
	}

	dbUser, err := s.db.UpdateAccount(database.UpdateAccountParams{
		UserId:    userId,
		Name:      strings.TrimSpace(req.Name),
		AvatarUrl: req.AvatarUrl,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toApiUser(dbUser))
}

func (s *CrewApp) createEvent(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		s.writeError(w, NewValidationError("title cannot be empty"))
		return
	}

	eventId, err := s.generateShortId()
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	itemIds := make([]string, len(req.Equipment))
	for i := range req.Equipment {
		if itemIds[i], err = s.generateShortId(); err != nil {
			s.writeError(w, NewInternalServerError(err))
			return
		}
	}

	dbEvent, err := s.db.CreateEvent(database.CreateEventParams{
		Id:             eventId,
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Address:        req.Location.Address,
		Lat:            req.Location.Lat,
		Lng:            req.Location.Lng,
		Radius:         req.Radius,
		Date:           req.Date,
		OrganizerId:    userId,
		EquipmentIds:   itemIds,
		EquipmentNames: req.Equipment,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, toApiEvent(dbEvent))
}

func (s *CrewApp) listEvents(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	dbEvents, err := s.db.ListEventsForUser(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	events := make([]types.Event, 0, len(dbEvents))
	for i := range dbEvents {
		events = append(events, toApiEvent(&dbEvents[i]))
	}

	s.writeJson(w, http.StatusOK, events)
}

func (s *CrewApp) getEvent(w http.ResponseWriter, r *http.Request) {
	dbEvent, err := s.db.GetEventById(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
		} else {
			s.writeError(w, NewInternalServerError(err))
		}
		return
	}

	s.writeJson(w, http.StatusOK, toApiEvent(dbEvent))
}

// requireEvent loads the event and, when organizerId is non-empty, enforces
// that the caller is its organizer.
func (s *CrewApp) requireEvent(w http.ResponseWriter, eventId, organizerId string) (*database.Event, bool) {
	dbEvent, err := s.db.GetEventById(eventId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
		} else {
			s.writeError(w, NewInternalServerError(err))
		}
		return nil, false
	}

	if organizerId != "" && dbEvent.OrganizerId != organizerId {
		s.writeError(w, NewForbiddenError())
		return nil, false
	}

	return dbEvent, true
}

func (s *CrewApp) updateEvent(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())
	eventId := r.PathValue("id")

	var req UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		s.writeError(w, NewValidationError("title cannot be empty"))
		return
	}

	if _, ok := s.requireEvent(w, eventId, userId); !ok {
		return
	}

	err := s.db.UpdateEventDetails(database.UpdateEventParams{
		EventId:     eventId,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Address:     req.Location.Address,
		Lat:         req.Location.Lat,
		Lng:         req.Location.Lng,
		Radius:      req.Radius,
		Date:        req.Date,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.es.NotifyChange(eventId, server.StreamEvents)
	w.WriteHeader(http.StatusNoContent)
}

func (s *CrewApp) joinEvent(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())
	eventId := r.PathValue("id")

	dbEvent, ok := s.requireEvent(w, eventId, "")
	if !ok {
		return
	}

	if types.EventStatus(dbEvent.Status).Terminal() {
		s.writeError(w, NewConflictError("event is no longer active"))
		return
	}

	if err := s.db.AddParticipant(eventId, userId); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.es.NotifyChange(eventId, server.StreamParticipants)
	w.WriteHeader(http.StatusNoContent)
}

func (s *CrewApp) leaveEvent(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())
	eventId := r.PathValue("id")

	if err := s.db.RemoveParticipant(eventId, userId); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.es.NotifyChange(eventId, server.StreamParticipants)
	w.WriteHeader(http.StatusNoContent)
}

func (s *CrewApp) postChatMessage(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())
	eventId := r.PathValue("id")

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		s.writeError(w, NewValidationError("message cannot be empty"))
		return
	}

	if _, ok := s.requireEvent(w, eventId, ""); !ok {
		return
	}

	msgId, err := s.generateShortId()
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	err = s.db.CreateMessage(database.Message{
		Id:        msgId,
		EventId:   eventId,
		UserId:    userId,
		Content:   msg,
		CreatedAt: server.Now(),
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.es.NotifyChange(eventId, server.StreamChat)
	w.WriteHeader(http.StatusNoContent)
}

func (s *CrewApp) updateEventStatus(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())
	eventId := r.PathValue("id")

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	// only the organizer may transition status, and only out of a
	// non-terminal state
	dbEvent, ok := s.requireEvent(w, eventId, userId)
	if !ok {
		return
	}

	if !types.EventStatus(dbEvent.Status).CanTransitionTo(req.Status) {
		s.writeError(w, NewConflictError("invalid status transition"))
		return
	}

	if err := s.db.UpdateEventStatus(eventId, string(req.Status)); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.es.NotifyChange(eventId, server.StreamEvents)
	w.WriteHeader(http.StatusNoContent)
}

func (s *CrewApp) addChecklistItem(w http.ResponseWriter, r *http.Request) {
	eventId := r.PathValue("id")

	var req ChecklistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.writeError(w, NewValidationError("item name cannot be empty"))
		return
	}

	if _, ok := s.requireEvent(w, eventId, ""); !ok {
		return
	}

	itemId, err := s.generateShortId()
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	err = s.db.AddChecklistItem(database.ChecklistItem{
		Id:      itemId,
		EventId: eventId,
		Name:    name,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.es.NotifyChange(eventId, server.StreamEquipment)
	w.WriteHeader(http.StatusNoContent)
}

func (s *CrewApp) claimItem(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())
	eventId := r.PathValue("id")
	itemId := r.PathValue("itemId")

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	dbEvent, ok := s.requireEvent(w, eventId, "")
	if !ok {
		return
	}

	claimant := ""
	if req.Claim {
		for _, item := range dbEvent.Equipment {
			if item.Id == itemId && item.ClaimedBy != "" && item.ClaimedBy != userId {
				s.writeError(w, NewConflictError("item already claimed"))
				return
			}
		}
		claimant = userId
	}

	if err := s.db.UpdateChecklistClaim(eventId, itemId, claimant); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
		} else {
			s.writeError(w, NewInternalServerError(err))
		}
		return
	}

	s.es.NotifyChange(eventId, server.StreamEquipment)
	w.WriteHeader(http.StatusNoContent)
}

func (s *CrewApp) markItemProvided(w http.ResponseWriter, r *http.Request) {
	eventId := r.PathValue("id")
	itemId := r.PathValue("itemId")

	var req ProvidedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if _, ok := s.requireEvent(w, eventId, ""); !ok {
		return
	}

	if err := s.db.MarkItemProvided(eventId, itemId, req.Provided); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// unknown item, or provided-without-claim which is disallowed
			s.writeError(w, NewConflictError("item is not claimed"))
		} else {
			s.writeError(w, NewInternalServerError(err))
		}
		return
	}

	s.es.NotifyChange(eventId, server.StreamEquipment)
	w.WriteHeader(http.StatusNoContent)
}

func (s *CrewApp) addPhoto(w http.ResponseWriter, r *http.Request) {
	eventId := r.PathValue("id")

	var req PhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if strings.TrimSpace(req.Url) == "" {
		s.writeError(w, NewValidationError("photo url cannot be empty"))
		return
	}

	if _, ok := s.requireEvent(w, eventId, ""); !ok {
		return
	}

	if err := s.db.AddPhoto(eventId, req.Url); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.es.NotifyChange(eventId, server.StreamEvents)
	w.WriteHeader(http.StatusNoContent)
}

func (s *CrewApp) serveWs(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, NewNotFoundError())
		} else {
			s.writeError(w, NewInternalServerError(err))
		}
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients send no origin header
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(toApiUser(user), conn, s.es, s.log)

	s.es.RegisterClient(client)
	go client.Write()
	go client.Read()
}
