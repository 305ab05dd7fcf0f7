package database

// EventRepository mirrors the remote procedure surface of the hosted
// backend: each mutation corresponds to one RPC function, and GetEventById
// assembles the complete aggregate used as the canonical snapshot.
type EventRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	UpdateAccount(params UpdateAccountParams) (User, error)
	GetAccountById(id string) (User, error)
	GetAccountByEmail(email string) (User, error)
	CreateEvent(params CreateEventParams) (*Event, error)
	UpdateEventDetails(params UpdateEventParams) error
	GetEventById(id string) (*Event, error)
	ListEventsForUser(userId string) ([]Event, error)
	AddParticipant(eventId, userId string) error
	RemoveParticipant(eventId, userId string) error
	CreateMessage(msg Message) error
	AddChecklistItem(item ChecklistItem) error
	UpdateChecklistClaim(eventId, itemId, userId string) error
	MarkItemProvided(eventId, itemId string, provided bool) error
	UpdateEventStatus(eventId, status string) error
	AddPhoto(eventId, url string) error
}
