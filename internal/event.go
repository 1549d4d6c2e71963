package internal

import (
	"net/mail"
	"strings"
	"time"
)

type Event struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Location      string    `json:"location,omitempty"`
	StartsAt      time.Time `json:"start_time"`
	EndsAt        time.Time `json:"end_time"`
	Timezone      string    `json:"timezone,omitempty"`
	AllDay        bool      `json:"is_all_day"`
	Status        Status    `json:"status"`
	Recurrence    string    `json:"recurrence,omitempty"`
	GoogleEventID string    `json:"google_event_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks the invariants every stored event must hold.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if e.StartsAt.IsZero() || e.EndsAt.IsZero() {
		return &ValidationError{Field: "start_time", Reason: "start and end are required"}
	}
	if !e.EndsAt.After(e.StartsAt) {
		return &ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}
	if !e.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status " + e.Status.String()}
	}
	if e.Timezone != "" {
		if _, err := time.LoadLocation(e.Timezone); err != nil {
			return &ValidationError{Field: "timezone", Reason: err.Error()}
		}
	}
	return nil
}

type Status string

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case Confirmed, Tentative, Cancelled:
		return true
	}
	return false
}

var (
	Confirmed Status = "confirmed"
	Tentative Status = "tentative"
	Cancelled Status = "cancelled"
)

type Attendee struct {
	ID                  string              `json:"id"`
	EventID             string              `json:"event_id"`
	Email               string              `json:"email"`
	Name                string              `json:"name,omitempty"`
	NotificationChannel NotificationChannel `json:"notification_channel"`
	RSVPStatus          RSVPStatus          `json:"rsvp_status"`
	RSVPToken           string              `json:"-"`
	ResponseComment     string              `json:"response_comment,omitempty"`
	RespondedAt         *time.Time          `json:"responded_at,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// NormalizeEmail returns the bare lower-cased address of s.
func NormalizeEmail(s string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return "", &ValidationError{Field: "email", Reason: "invalid email address"}
	}
	return strings.ToLower(addr.Address), nil
}

type NotificationChannel string

func (c NotificationChannel) String() string {
	return string(c)
}

func (c NotificationChannel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelMessenger, ChannelBoth:
		return true
	}
	return false
}

var (
	ChannelEmail     NotificationChannel = "email"
	ChannelMessenger NotificationChannel = "messenger"
	ChannelBoth      NotificationChannel = "both"
)

type RSVPStatus string

func (s RSVPStatus) String() string {
	return string(s)
}

// Answer reports whether s is a response an attendee may submit.
func (s RSVPStatus) Answer() bool {
	switch s {
	case Accepted, Declined, Maybe:
		return true
	}
	return false
}

var (
	Pending  RSVPStatus = "pending"
	Accepted RSVPStatus = "accepted"
	Declined RSVPStatus = "declined"
	Maybe    RSVPStatus = "maybe"
)
