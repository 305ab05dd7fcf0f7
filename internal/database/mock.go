package database

import (
	"github.com/stretchr/testify/mock"
)

type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockEventRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockEventRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockEventRepository) GetAccountById(id string) (User, error) {
	args := m.Called(id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockEventRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockEventRepository) CreateEvent(params CreateEventParams) (*Event, error) {
	args := m.Called(params)
	if event, ok := args.Get(0).(*Event); ok {
		return event, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockEventRepository) UpdateEventDetails(params UpdateEventParams) error {
	args := m.Called(params)
	return args.Error(0)
}
func (m *MockEventRepository) GetEventById(id string) (*Event, error) {
	args := m.Called(id)
	if event, ok := args.Get(0).(*Event); ok {
		return event, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockEventRepository) ListEventsForUser(userId string) ([]Event, error) {
	args := m.Called(userId)
	if events, ok := args.Get(0).([]Event); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockEventRepository) AddParticipant(eventId, userId string) error {
	args := m.Called(eventId, userId)
	return args.Error(0)
}
func (m *MockEventRepository) RemoveParticipant(eventId, userId string) error {
	args := m.Called(eventId, userId)
	return args.Error(0)
}
func (m *MockEventRepository) CreateMessage(msg Message) error {
	args := m.Called(msg)
	return args.Error(0)
}
func (m *MockEventRepository) AddChecklistItem(item ChecklistItem) error {
	args := m.Called(item)
	return args.Error(0)
}
func (m *MockEventRepository) UpdateChecklistClaim(eventId, itemId, userId string) error {
	args := m.Called(eventId, itemId, userId)
	return args.Error(0)
}
func (m *MockEventRepository) MarkItemProvided(eventId, itemId string, provided bool) error {
	args := m.Called(eventId, itemId, provided)
	return args.Error(0)
}
func (m *MockEventRepository) UpdateEventStatus(eventId, status string) error {
	args := m.Called(eventId, status)
	return args.Error(0)
}
func (m *MockEventRepository) AddPhoto(eventId, url string) error {
	args := m.Called(eventId, url)
	return args.Error(0)
}
