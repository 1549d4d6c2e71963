package google

import (
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/guilherme-santos/calendarhub/internal"
)

const (
	untitledEvent   = "Untitled Event"
	defaultTimezone = "UTC"
)

// newEvent maps a Google event to the local representation. The mapping is
// lossy: attendees, extended properties and every recurrence line but the
// first are dropped, so newGoogleEvent(newEvent(x)) is not x.
func newEvent(userID string, item *calendar.Event) *internal.Event {
	e := &internal.Event{
		UserID:        userID,
		GoogleEventID: item.Id,
		Title:         item.Summary,
		Description:   item.Description,
		Location:      item.Location,
		Status:        newStatus(item.Status),
		Timezone:      defaultTimezone,
	}
	if e.Title == "" {
		e.Title = untitledEvent
	}
	if len(item.Recurrence) > 0 {
		e.Recurrence = item.Recurrence[0]
	}

	start, end := item.Start, item.End
	if start == nil {
		start = &calendar.EventDateTime{}
	}
	if end == nil {
		end = &calendar.EventDateTime{}
	}
	if start.TimeZone != "" {
		e.Timezone = start.TimeZone
	}

	// Google marks all-day events by sending a date and no dateTime.
	e.AllDay = start.Date != "" && start.DateTime == ""
	if e.AllDay {
		if d, err := internal.ParseDate(start.Date); err == nil {
			e.StartsAt = d.Time
		}
		if d, err := internal.ParseDate(end.Date); err == nil {
			e.EndsAt = d.Time
		} else if !e.StartsAt.IsZero() {
			e.EndsAt = e.StartsAt.AddDate(0, 0, 1)
		}
		return e
	}

	e.StartsAt, _ = time.Parse(time.RFC3339, start.DateTime)
	e.EndsAt, _ = time.Parse(time.RFC3339, end.DateTime)
	e.StartsAt = e.StartsAt.UTC()
	e.EndsAt = e.EndsAt.UTC()
	return e
}

func newStatus(s string) internal.Status {
	switch s {
	case "cancelled":
		return internal.Cancelled
	case "tentative":
		return internal.Tentative
	}
	return internal.Confirmed
}

// newGoogleEvent maps a local event to the body sent to Google. Confirmed is
// Google's default, so it is left out.
func newGoogleEvent(event *internal.Event) *calendar.Event {
	gevent := &calendar.Event{
		Summary:     event.Title,
		Description: event.Description,
		Location:    event.Location,
	}

	if event.AllDay {
		start := internal.NewDateFromTime(event.StartsAt.UTC())
		end := internal.NewDateFromTime(event.EndsAt.UTC())
		// Google's end date is exclusive and must follow the start date.
		if !end.After(start.Time) {
			end = start.AddDate(0, 0, 1)
		}
		gevent.Start = &calendar.EventDateTime{Date: start.String()}
		gevent.End = &calendar.EventDateTime{Date: end.String()}
	} else {
		tz := event.Timezone
		if tz == "" {
			tz = defaultTimezone
		}
		gevent.Start = &calendar.EventDateTime{
			DateTime: event.StartsAt.UTC().Format(time.RFC3339),
			TimeZone: tz,
		}
		gevent.End = &calendar.EventDateTime{
			DateTime: event.EndsAt.UTC().Format(time.RFC3339),
			TimeZone: tz,
		}
	}

	switch event.Status {
	case internal.Cancelled, internal.Tentative:
		gevent.Status = event.Status.String()
	}
	if event.Recurrence != "" {
		gevent.Recurrence = []string{event.Recurrence}
	}
	return gevent
}

func newCalendar(item *calendar.CalendarListEntry) *internal.Calendar {
	return &internal.Calendar{
		ID:              item.Id,
		Summary:         item.Summary,
		Description:     item.Description,
		BackgroundColor: item.BackgroundColor,
		ForegroundColor: item.ForegroundColor,
		Primary:         item.Primary,
		AccessRole:      item.AccessRole,
	}
}
