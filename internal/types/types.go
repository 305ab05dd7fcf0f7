package types

import (
	"time"
)

// EventStatus is the lifecycle state of a cleanup event. Transitions only
// move forward: Upcoming -> InProgress -> Completed, with cancellation
// allowed from either non-terminal state.
type EventStatus string

const (
	StatusUpcoming   EventStatus = "Upcoming"
	StatusInProgress EventStatus = "In Progress"
	StatusCompleted  EventStatus = "Completed"
	StatusCancelled  EventStatus = "Cancelled"
)

func (s EventStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the status machine permits moving from s
// to next. Terminal states have no outgoing transitions.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	switch s {
	case StatusUpcoming:
		return next == StatusInProgress || next == StatusCancelled
	case StatusInProgress:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

type User struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	AvatarUrl string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type Location struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type ChecklistItem struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	ClaimedBy  string `json:"claimed_by,omitempty"`
	IsProvided bool   `json:"is_provided,omitempty"`
}

// ChatMessage is immutable once created; there is no edit or delete.
type ChatMessage struct {
	Id        string    `json:"id"`
	User      User      `json:"user"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Photo struct {
	Url       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// Event is the aggregate root. A snapshot embeds every sub-resource so a
// single fetch yields a complete, diffable view of the event.
type Event struct {
	Id           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Location     Location        `json:"location"`
	Radius       float64         `json:"radius"`
	Date         time.Time       `json:"date"`
	Status       EventStatus     `json:"status"`
	Organizer    User            `json:"organizer"`
	Participants []User          `json:"participants"`
	Equipment    []ChecklistItem `json:"equipment"`
	Chat         []ChatMessage   `json:"chat"`
	Photos       []Photo         `json:"photos"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at,omitempty"`
}

// HasParticipant reports whether the user id is in the participant set.
func (e *Event) HasParticipant(userId string) bool {
	for _, p := range e.Participants {
		if p.Id == userId {
			return true
		}
	}
	return false
}

// FindItem returns the checklist item with the given id, if present.
func (e *Event) FindItem(itemId string) (ChecklistItem, bool) {
	for _, item := range e.Equipment {
		if item.Id == itemId {
			return item, true
		}
	}
	return ChecklistItem{}, false
}

// ReplaceUser substitutes updated profile data everywhere the user appears
// in the event: organizer, participants and chat authors. The event is
// modified in place.
func (e *Event) ReplaceUser(u User) {
	if e.Organizer.Id == u.Id {
		e.Organizer = u
	}
	for i, p := range e.Participants {
		if p.Id == u.Id {
			e.Participants[i] = u
		}
	}
	for i, m := range e.Chat {
		if m.User.Id == u.Id {
			e.Chat[i].User = u
		}
	}
}
