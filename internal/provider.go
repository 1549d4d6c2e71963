package internal

import (
	"context"
	"time"
)

type Mux interface {
	Get(platform string) (Provider, error)
}

// Provider is a remote calendar the local store is synced against. Events
// are returned already mapped to the local representation with
// GoogleEventID holding the remote id.
type Provider interface {
	Calendars(_ context.Context, userID string) ([]*Calendar, error)
	Events(_ context.Context, userID, calendarID string, from, to time.Time) ([]*Event, error)
	CreateEvent(_ context.Context, userID, calendarID string, _ *Event) (*Event, error)
	UpdateEvent(_ context.Context, userID, calendarID string, _ *Event) (*Event, error)
	DeleteEvent(_ context.Context, userID, calendarID, id string) error
}

type TokenSource interface {
	AccessToken(_ context.Context, userID string) (string, error)
}
