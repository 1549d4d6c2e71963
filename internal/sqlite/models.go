package sqlite

import (
	"database/sql"
	"time"

	"github.com/guilherme-santos/calendarhub/internal"
)

type Event struct {
	ID            string
	UserID        string `db:"user_id"`
	Title         string
	Description   sql.NullString
	Location      sql.NullString
	StartTime     time.Time `db:"start_time"`
	EndTime       time.Time `db:"end_time"`
	Timezone      sql.NullString
	AllDay        bool `db:"is_all_day"`
	Status        string
	Recurrence    sql.NullString
	GoogleEventID sql.NullString `db:"google_event_id"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func newEventRow(e *internal.Event) Event {
	return Event{
		ID:            e.ID,
		UserID:        e.UserID,
		Title:         e.Title,
		Description:   nullString(e.Description),
		Location:      nullString(e.Location),
		StartTime:     e.StartsAt.UTC(),
		EndTime:       e.EndsAt.UTC(),
		Timezone:      nullString(e.Timezone),
		AllDay:        e.AllDay,
		Status:        e.Status.String(),
		Recurrence:    nullString(e.Recurrence),
		GoogleEventID: nullString(e.GoogleEventID),
		CreatedAt:     e.CreatedAt.UTC(),
		UpdatedAt:     e.UpdatedAt.UTC(),
	}
}

func (e Event) Convert() *internal.Event {
	return &internal.Event{
		ID:            e.ID,
		UserID:        e.UserID,
		Title:         e.Title,
		Description:   e.Description.String,
		Location:      e.Location.String,
		StartsAt:      e.StartTime.UTC(),
		EndsAt:        e.EndTime.UTC(),
		Timezone:      e.Timezone.String,
		AllDay:        e.AllDay,
		Status:        internal.Status(e.Status),
		Recurrence:    e.Recurrence.String,
		GoogleEventID: e.GoogleEventID.String,
		CreatedAt:     e.CreatedAt.UTC(),
		UpdatedAt:     e.UpdatedAt.UTC(),
	}
}

type Attendee struct {
	ID                  string
	EventID             string `db:"event_id"`
	Email               string
	Name                string
	NotificationChannel string         `db:"notification_channel"`
	RSVPStatus          string         `db:"rsvp_status"`
	RSVPToken           string         `db:"rsvp_token"`
	ResponseComment     sql.NullString `db:"response_comment"`
	RespondedAt         sql.NullTime   `db:"responded_at"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func (a Attendee) Convert() *internal.Attendee {
	res := &internal.Attendee{
		ID:                  a.ID,
		EventID:             a.EventID,
		Email:               a.Email,
		Name:                a.Name,
		NotificationChannel: internal.NotificationChannel(a.NotificationChannel),
		RSVPStatus:          internal.RSVPStatus(a.RSVPStatus),
		RSVPToken:           a.RSVPToken,
		ResponseComment:     a.ResponseComment.String,
		CreatedAt:           a.CreatedAt.UTC(),
		UpdatedAt:           a.UpdatedAt.UTC(),
	}
	if a.RespondedAt.Valid {
		t := a.RespondedAt.Time.UTC()
		res.RespondedAt = &t
	}
	return res
}

type Invitation struct {
	Attendee Attendee `db:"attendee"`
	Event    Event    `db:"event"`
}

type ConnectedAccount struct {
	ID                string
	UserID            string `db:"user_id"`
	Provider          string
	ProviderAccountID string         `db:"provider_account_id"`
	AccessToken       string         `db:"access_token"`
	RefreshToken      sql.NullString `db:"refresh_token"`
	ExpiresAt         sql.NullTime   `db:"expires_at"`
	Scope             string
	TokenType         string    `db:"token_type"`
	IsPrimary         bool      `db:"is_primary"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (a ConnectedAccount) Convert() *internal.ConnectedAccount {
	res := &internal.ConnectedAccount{
		ID:                a.ID,
		UserID:            a.UserID,
		Provider:          a.Provider,
		ProviderAccountID: a.ProviderAccountID,
		AccessToken:       a.AccessToken,
		RefreshToken:      a.RefreshToken.String,
		Scope:             a.Scope,
		TokenType:         a.TokenType,
		IsPrimary:         a.IsPrimary,
		CreatedAt:         a.CreatedAt.UTC(),
		UpdatedAt:         a.UpdatedAt.UTC(),
	}
	if a.ExpiresAt.Valid {
		t := a.ExpiresAt.Time.UTC()
		res.ExpiresAt = &t
	}
	return res
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
