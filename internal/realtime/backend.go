package realtime

import (
	"context"

	"github.com/ValentinKt/clean-up-crew/internal/types"
)

// Backend is the narrow contract the sync core consumes from the hosted
// service. Fetches return the canonical snapshot; change subscriptions
// carry no payload, they only signal that a re-fetch is due.
type Backend interface {
	// FetchEventById returns the canonical snapshot for the event, or nil
	// if the event no longer exists.
	FetchEventById(ctx context.Context, eventId string) (*types.Event, error)
	// SubscribeEventChanges opens a push subscription covering the event
	// record, its participants, chat and equipment. onChange is invoked on
	// any insert, update or delete touching the event.
	SubscribeEventChanges(ctx context.Context, eventId string, onChange func()) (Subscription, error)
}

// Subscription is a live change feed for one event. Unsubscribe is
// idempotent and safe to call on an already-closed subscription.
type Subscription interface {
	Unsubscribe() error
}
