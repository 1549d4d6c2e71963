package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/guilherme-santos/calendarhub/internal"
)

const attendeeColumns = `id, event_id, email, name, notification_channel, rsvp_status, rsvp_token,
	response_comment, responded_at, created_at, updated_at`

// AttendeeByEmail returns nil when the event has no attendee with email.
func (s Storage) AttendeeByEmail(ctx context.Context, eventID, email string) (*internal.Attendee, error) {
	var row Attendee
	err := s.db.GetContext(ctx, &row, `
		SELECT `+attendeeColumns+`
		FROM event_attendees
		WHERE event_id = ? AND email = ?
	`, eventID, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get attendee", err)
	}
	return row.Convert(), nil
}

func (s Storage) CreateAttendee(ctx context.Context, a *internal.Attendee) error {
	now := s.now()
	if a.ID == "" {
		a.ID = newID()
	}
	if a.RSVPStatus == "" {
		a.RSVPStatus = internal.Pending
	}
	if a.NotificationChannel == "" {
		a.NotificationChannel = internal.ChannelEmail
	}
	a.CreatedAt, a.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_attendees (`+attendeeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.EventID, a.Email, a.Name, a.NotificationChannel.String(), a.RSVPStatus.String(), a.RSVPToken,
		nullString(a.ResponseComment), nullTime(a.RespondedAt), a.CreatedAt, a.UpdatedAt)
	return wrap("create attendee", err)
}

func (s Storage) UpdateAttendeeContact(ctx context.Context, a *internal.Attendee) error {
	a.UpdatedAt = s.now()
	_, err := s.db.ExecContext(ctx, `
		UPDATE event_attendees SET name = ?, notification_channel = ?, updated_at = ? WHERE id = ?
	`, a.Name, a.NotificationChannel.String(), a.UpdatedAt, a.ID)
	return wrap("update attendee", err)
}

// AttendeeByToken returns the attendee holding token and the event it was
// invited to.
func (s Storage) AttendeeByToken(ctx context.Context, token string) (*internal.Attendee, *internal.Event, error) {
	var row Invitation
	err := s.db.GetContext(ctx, &row, `
		SELECT
			a.id AS "attendee.id", a.event_id AS "attendee.event_id", a.email AS "attendee.email",
			a.name AS "attendee.name", a.notification_channel AS "attendee.notification_channel",
			a.rsvp_status AS "attendee.rsvp_status", a.rsvp_token AS "attendee.rsvp_token",
			a.response_comment AS "attendee.response_comment", a.responded_at AS "attendee.responded_at",
			a.created_at AS "attendee.created_at", a.updated_at AS "attendee.updated_at",
			e.id AS "event.id", e.user_id AS "event.user_id", e.title AS "event.title",
			e.description AS "event.description", e.location AS "event.location",
			e.start_time AS "event.start_time", e.end_time AS "event.end_time", e.timezone AS "event.timezone",
			e.is_all_day AS "event.is_all_day", e.status AS "event.status", e.recurrence AS "event.recurrence",
			e.google_event_id AS "event.google_event_id",
			e.created_at AS "event.created_at", e.updated_at AS "event.updated_at"
		FROM event_attendees a
		INNER JOIN events e ON e.id = a.event_id
		WHERE a.rsvp_token = ?
	`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, internal.ErrNotFound
	}
	if err != nil {
		return nil, nil, wrap("get attendee by token", err)
	}
	return row.Attendee.Convert(), row.Event.Convert(), nil
}

// RespondAttendee records the response of the attendee holding token,
// replacing any earlier one. It reports whether such an attendee exists.
func (s Storage) RespondAttendee(ctx context.Context, token string, status internal.RSVPStatus, comment string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE event_attendees
		SET rsvp_status = ?, response_comment = ?, responded_at = ?, updated_at = ?
		WHERE rsvp_token = ?
	`, status.String(), nullString(comment), at.UTC(), s.now(), token)
	if err != nil {
		return false, wrap("respond attendee", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("respond attendee", err)
	}
	return n > 0, nil
}

func (s Storage) Attendees(ctx context.Context, eventID string) ([]*internal.Attendee, error) {
	var rows []Attendee
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+attendeeColumns+`
		FROM event_attendees
		WHERE event_id = ?
		ORDER BY created_at, id
	`, eventID)
	if err != nil {
		return nil, wrap("list attendees", err)
	}
	res := make([]*internal.Attendee, len(rows))
	for i, r := range rows {
		res[i] = r.Convert()
	}
	return res, nil
}
