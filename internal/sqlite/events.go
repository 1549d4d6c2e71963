package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/guilherme-santos/calendarhub/internal"
)

const eventColumns = `id, user_id, title, description, location, start_time, end_time, timezone,
	is_all_day, status, recurrence, google_event_id, created_at, updated_at`

func (s Storage) CreateEvent(ctx context.Context, e *internal.Event) error {
	now := s.now()
	if e.ID == "" {
		e.ID = newID()
	}
	if e.Status == "" {
		e.Status = internal.Confirmed
	}
	e.CreatedAt, e.UpdatedAt = now, now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES (:id, :user_id, :title, :description, :location, :start_time, :end_time, :timezone,
			:is_all_day, :status, :recurrence, :google_event_id, :created_at, :updated_at)
	`, newEventRow(e))
	return wrap("create event", err)
}

func (s Storage) Event(ctx context.Context, userID, id string) (*internal.Event, error) {
	var row Event
	err := s.db.GetContext(ctx, &row, `
		SELECT `+eventColumns+`
		FROM events
		WHERE id = ? AND user_id = ?
	`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, internal.ErrNotFound
	}
	if err != nil {
		return nil, wrap("get event", err)
	}
	return row.Convert(), nil
}

// Events returns the user's events overlapping [from, to). Zero bounds are
// open.
func (s Storage) Events(ctx context.Context, userID string, from, to time.Time) ([]*internal.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE user_id = ?`
	args := []any{userID}
	if !from.IsZero() {
		query += ` AND end_time > ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += ` AND start_time < ?`
		args = append(args, to.UTC())
	}
	query += ` ORDER BY start_time, id`
	return s.selectEvents(ctx, "list events", query, args...)
}

// UpdateEvent stores every editable field of e. When lastSeen is set, the
// write only happens if the row was not modified since then.
func (s Storage) UpdateEvent(ctx context.Context, e *internal.Event, lastSeen time.Time) error {
	prevUpdatedAt := e.UpdatedAt
	e.UpdatedAt = s.now()
	row := newEventRow(e)

	query := `
		UPDATE events SET
			title = ?, description = ?, location = ?, start_time = ?, end_time = ?, timezone = ?,
			is_all_day = ?, status = ?, recurrence = ?, google_event_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`
	args := []any{
		row.Title, row.Description, row.Location, row.StartTime, row.EndTime, row.Timezone,
		row.AllDay, row.Status, row.Recurrence, row.GoogleEventID, row.UpdatedAt,
		row.ID, row.UserID,
	}
	if !lastSeen.IsZero() {
		query += ` AND updated_at = ?`
		args = append(args, lastSeen.UTC())
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		e.UpdatedAt = prevUpdatedAt
		return wrap("update event", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		e.UpdatedAt = prevUpdatedAt
		if _, err := s.Event(ctx, e.UserID, e.ID); err != nil {
			return err
		}
		return internal.ErrConflict
	}
	return nil
}

// DeleteEvent removes the event and its attendees.
func (s Storage) DeleteEvent(ctx context.Context, userID, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap("delete event", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return wrap("delete event", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return internal.ErrNotFound
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM event_attendees WHERE event_id = ?`, id)
	if err != nil {
		return wrap("delete attendees", err)
	}
	return wrap("delete event", tx.Commit())
}

// EventByGoogleID returns nil when no local event is linked to googleID.
func (s Storage) EventByGoogleID(ctx context.Context, userID, googleID string) (*internal.Event, error) {
	var row Event
	err := s.db.GetContext(ctx, &row, `
		SELECT `+eventColumns+`
		FROM events
		WHERE user_id = ? AND google_event_id = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, userID, googleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get event by google id", err)
	}
	return row.Convert(), nil
}

// LinkedEvents returns the user's non-cancelled events that have a Google
// counterpart.
func (s Storage) LinkedEvents(ctx context.Context, userID string) ([]*internal.Event, error) {
	return s.selectEvents(ctx, "list linked events", `
		SELECT `+eventColumns+`
		FROM events
		WHERE user_id = ? AND google_event_id IS NOT NULL AND status != ?
		ORDER BY start_time, id
	`, userID, internal.Cancelled.String())
}

// UnsyncedEvents returns the user's non-cancelled events never exported to
// Google.
func (s Storage) UnsyncedEvents(ctx context.Context, userID string) ([]*internal.Event, error) {
	return s.selectEvents(ctx, "list unsynced events", `
		SELECT `+eventColumns+`
		FROM events
		WHERE user_id = ? AND google_event_id IS NULL AND status != ?
		ORDER BY start_time, id
	`, userID, internal.Cancelled.String())
}

func (s Storage) SetEventStatus(ctx context.Context, id string, status internal.Status) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events SET status = ?, updated_at = ? WHERE id = ?
	`, status.String(), s.now(), id)
	return wrap("set event status", err)
}

func (s Storage) SetGoogleEventID(ctx context.Context, id, googleEventID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events SET google_event_id = ?, updated_at = ? WHERE id = ?
	`, nullString(googleEventID), s.now(), id)
	return wrap("set google event id", err)
}

func (s Storage) selectEvents(ctx context.Context, op, query string, args ...any) ([]*internal.Event, error) {
	var rows []Event
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrap(op, err)
	}
	res := make([]*internal.Event, len(rows))
	for i, r := range rows {
		res[i] = r.Convert()
	}
	return res, nil
}
