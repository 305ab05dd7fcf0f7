package database

import "time"

type User struct {
	Id           string
	Name         string
	Email        string
	AvatarUrl    string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Event struct {
	Id           string
	Title        string
	Description  string
	Address      string
	Lat          float64
	Lng          float64
	Radius       float64
	Date         time.Time
	Status       string
	OrganizerId  string
	Organizer    User
	Participants []User
	Equipment    []ChecklistItem
	Chat         []Message
	Photos       []Photo
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ChecklistItem struct {
	Id         string
	EventId    string
	Name       string
	ClaimedBy  string
	IsProvided bool
	Position   int
}

type Message struct {
	Id        string
	EventId   string
	UserId    string
	User      User
	Content   string
	CreatedAt time.Time
}

type Photo struct {
	EventId   string
	Url       string
	CreatedAt time.Time
}

type CreateAccountParams struct {
	Id           string
	Name         string
	Email        string
	AvatarUrl    string
	PasswordHash string
}

type UpdateAccountParams struct {
	UserId    string
	Name      string
	AvatarUrl string
}

type CreateEventParams struct {
	Id             string
	Title          string
	Description    string
	Address        string
	Lat            float64
	Lng            float64
	Radius         float64
	Date           time.Time
	OrganizerId    string
	EquipmentIds   []string
	EquipmentNames []string
}

type UpdateEventParams struct {
	EventId     string
	Title       string
	Description string
	Address     string
	Lat         float64
	Lng         float64
	Radius      float64
	Date        time.Time
}
