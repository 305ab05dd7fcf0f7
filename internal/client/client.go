package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/ValentinKt/clean-up-crew/internal/types"
)

const defaultTimeout = 10 * time.Second

// Client is the command layer: a thin RPC wrapper over the backend's HTTP
// API. Commands never mutate local snapshots; every mutation is dispatched
// to the backend and observed again through the change feed.
type Client struct {
	baseUrl *url.URL
	http    *http.Client
	log     *log.Logger
	viewer  types.User
}

func NewClient(baseUrl string, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	// session cookie from login is carried by the jar on every call
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	return &Client{
		baseUrl: u,
		http: &http.Client{
			Jar:     jar,
			Timeout: defaultTimeout,
		},
		log: logger,
	}, nil
}

// Viewer returns the user authenticated by the last successful Login or
// Register call. The zero value means no session is established.
func (c *Client) Viewer() types.User {
	return c.viewer
}

type registerRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	AvatarUrl string `json:"avatar_url,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateAccountRequest struct {
	Name      string `json:"name"`
	AvatarUrl string `json:"avatar_url,omitempty"`
}

// EventDetails is the editable portion of an event, used both for creation
// and for detail updates.
type EventDetails struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    types.Location `json:"location"`
	Radius      float64        `json:"radius"`
	Date        time.Time      `json:"date"`
}

type createEventRequest struct {
	EventDetails
	Equipment []string `json:"equipment,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type statusRequest struct {
	Status types.EventStatus `json:"status"`
}

type checklistItemRequest struct {
	Name string `json:"name"`
}

type claimRequest struct {
	Claim bool `json:"claim"`
}

type providedRequest struct {
	Provided bool `json:"provided"`
}

type photoRequest struct {
	Url string `json:"url"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl.JoinPath(path).String(), &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) Register(ctx context.Context, name, email, password, avatarUrl string) (types.User, error) {
	var u types.User
	err := c.do(ctx, http.MethodPost, "/api/auth/register", registerRequest{
		Name:      name,
		Email:     email,
		Password:  password,
		AvatarUrl: avatarUrl,
	}, &u)
	return u, err
}

func (c *Client) Login(ctx context.Context, email, password string) (types.User, error) {
	var u types.User
	err := c.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{
		Email:    email,
		Password: password,
	}, &u)
	if err == nil {
		c.viewer = u
	}
	return u, err
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/api/auth/logout", nil, nil); err != nil {
		return err
	}

	c.viewer = types.User{}
	return nil
}

func (c *Client) Session(ctx context.Context) (types.User, error) {
	var u types.User
	err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &u)
	return u, err
}

// UpdateUser changes the viewer's profile. The returned user should be
// substituted into all locally held snapshots via types.Event.ReplaceUser.
func (c *Client) UpdateUser(ctx context.Context, name, avatarUrl string) (types.User, error) {
	if strings.TrimSpace(name) == "" {
		return types.User{}, fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}

	var u types.User
	err := c.do(ctx, http.MethodPut, "/api/account", updateAccountRequest{
		Name:      name,
		AvatarUrl: avatarUrl,
	}, &u)
	if err == nil {
		c.viewer = u
	}
	return u, err
}

func (c *Client) CreateEvent(ctx context.Context, details EventDetails, equipment []string) (*types.Event, error) {
	if strings.TrimSpace(details.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}

	var evt types.Event
	err := c.do(ctx, http.MethodPost, "/api/events", createEventRequest{
		EventDetails: details,
		Equipment:    equipment,
	}, &evt)
	if err != nil {
		return nil, err
	}
	return &evt, nil
}

func (c *Client) UpdateEventDetails(ctx context.Context, eventId string, details EventDetails) error {
	if strings.TrimSpace(details.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}

	return c.do(ctx, http.MethodPut, "/api/events/"+eventId, details, nil)
}

func (c *Client) GetEventById(ctx context.Context, eventId string) (*types.Event, error) {
	var evt types.Event
	if err := c.do(ctx, http.MethodGet, "/api/events/"+eventId, nil, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

func (c *Client) ListEventsForUser(ctx context.Context) ([]types.Event, error) {
	var events []types.Event
	if err := c.do(ctx, http.MethodGet, "/api/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) JoinEvent(ctx context.Context, eventId string) error {
	return c.do(ctx, http.MethodPost, "/api/events/"+eventId+"/join", nil, nil)
}

func (c *Client) LeaveEvent(ctx context.Context, eventId string) error {
	return c.do(ctx, http.MethodPost, "/api/events/"+eventId+"/leave", nil, nil)
}

// PostChatMessage dispatches a chat message after trimming it. Empty
// messages are rejected locally, before any network traffic.
func (c *Client) PostChatMessage(ctx context.Context, eventId, message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message cannot be empty", ErrValidation)
	}

	return c.do(ctx, http.MethodPost, "/api/events/"+eventId+"/chat", chatRequest{Message: message}, nil)
}

func (c *Client) UpdateEventStatus(ctx context.Context, eventId string, status types.EventStatus) error {
	return c.do(ctx, http.MethodPost, "/api/events/"+eventId+"/status", statusRequest{Status: status}, nil)
}

func (c *Client) AddChecklistItem(ctx context.Context, eventId, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: item name cannot be empty", ErrValidation)
	}

	return c.do(ctx, http.MethodPost, "/api/events/"+eventId+"/equipment", checklistItemRequest{Name: name}, nil)
}

// ClaimItem claims the checklist item for the viewer. When a snapshot is
// supplied, a claim held by someone else fails fast without a round trip;
// the check is advisory and the backend arbitrates races either way.
func (c *Client) ClaimItem(ctx context.Context, snapshot *types.Event, eventId, itemId string) error {
	if snapshot != nil {
		if item, ok := snapshot.FindItem(itemId); ok &&
			item.ClaimedBy != "" && item.ClaimedBy != c.viewer.Id {
			return fmt.Errorf("%w: item already claimed", ErrConflict)
		}
	}

	return c.do(ctx, http.MethodPost, "/api/events/"+eventId+"/equipment/"+itemId+"/claim",
		claimRequest{Claim: true}, nil)
}

func (c *Client) UnclaimItem(ctx context.Context, eventId, itemId string) error {
	return c.do(ctx, http.MethodPost, "/api/events/"+eventId+"/equipment/"+itemId+"/claim",
		claimRequest{Claim: false}, nil)
}

func (c *Client) MarkItemProvided(ctx context.Context, eventId, itemId string, provided bool) error {
	return c.do(ctx, http.MethodPost, "/api/events/"+eventId+"/equipment/"+itemId+"/provided",
		providedRequest{Provided: provided}, nil)
}

func (c *Client) AddEventPhoto(ctx context.Context, eventId, photoUrl string) error {
	if strings.TrimSpace(photoUrl) == "" {
		return fmt.Errorf("%w: photo url cannot be empty", ErrValidation)
	}

	return c.do(ctx, http.MethodPost, "/api/events/"+eventId+"/photos", photoRequest{Url: photoUrl}, nil)
}
